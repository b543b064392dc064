package app

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	hudBackground = color.RGBA{0, 0, 0, 150}
	hudText       = color.RGBA{255, 255, 255, 255}
	hudDim        = color.RGBA{190, 190, 190, 255}
	hudError      = color.RGBA{255, 130, 130, 255}
)

// statusLine summarises the session for the HUD.
func (g *Game) statusLine() string {
	st := g.session.Status()
	line := fmt.Sprintf("%s  frame %d", st.State, st.Frame)
	if st.Unit != "" {
		line += "  " + st.Unit
	}
	return line
}

// fileLine describes the active script.
func (g *Game) fileLine() string {
	f := g.workspace.Active()
	if f == nil {
		return "no script open"
	}
	mark := ""
	if f.Dirty {
		mark = " *"
	}
	return fmt.Sprintf("%s%s  %d bytes  (%d/%d)", f.Name, mark, len(f.Text), g.workspace.ActiveIndex()+1, len(g.workspace.Files()))
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	lines := []string{g.statusLine(), g.fileLine(), g.stage.Describe()}
	w, h := g.text.MeasureLines(lines)
	y0 := screen.Bounds().Dy() - h - 16
	vector.DrawFilledRect(screen, 8, float32(y0-4), float32(w+16), float32(h+8), hudBackground, false)
	g.text.DrawLines(screen, lines, 16, y0, func(int) color.Color { return hudText })

	if err := g.session.LastError(); err != nil {
		msg := err.Error()
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		g.text.DrawText(screen, msg, 16, y0-10, hudError)
	}
}

// helpLines lists every action with its current binding.
func (g *Game) helpLines() []string {
	lines := make([]string, 0, len(actions)+1)
	lines = append(lines, "Keys (drop .js or .json/.lz4 files to open; scripts run unchecked, run only code you trust)")
	for _, a := range actions {
		binding := a.binding(g.settings.Keybinds)
		if binding == "" {
			binding = "-"
		}
		lines = append(lines, fmt.Sprintf("%-10s %s", binding, a.name))
	}
	return lines
}

func (g *Game) drawHelp(screen *ebiten.Image) {
	lines := g.helpLines()
	w, h := g.text.MeasureLines(lines)
	vector.DrawFilledRect(screen, 8, 8, float32(w+16), float32(h+8), hudBackground, false)
	g.text.DrawLines(screen, lines, 16, 12, func(i int) color.Color {
		if i == 0 {
			return hudText
		}
		return hudDim
	})
}
