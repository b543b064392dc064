package app

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	text "github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const ellipsis = "..."

// TextRenderer lays out HUD and panel text in a single face. Blocks of
// lines are spaced by the face height plus lineGap.
type TextRenderer struct {
	face    font.Face
	lineGap int
}

// NewTextRenderer creates a text renderer; a nil face selects the built-in
// 7x13 bitmap font.
func NewTextRenderer(face font.Face) *TextRenderer {
	if face == nil {
		face = basicfont.Face7x13
	}
	return &TextRenderer{face: face, lineGap: 2}
}

// DrawText draws s with its baseline at y.
func (tr *TextRenderer) DrawText(screen *ebiten.Image, s string, x, y int, clr color.Color) {
	text.Draw(screen, s, tr.face, x, y, clr)
}

// MeasureString returns the advance width of s in pixels.
func (tr *TextRenderer) MeasureString(s string) int {
	return font.MeasureString(tr.face, s).Ceil()
}

func (tr *TextRenderer) GetLineHeight() int {
	m := tr.face.Metrics()
	return (m.Ascent + m.Descent).Round()
}

// LineAdvance is the distance between baselines inside a block.
func (tr *TextRenderer) LineAdvance() int {
	return tr.GetLineHeight() + tr.lineGap
}

// MeasureLines returns the size of lines laid out as DrawLines does.
func (tr *TextRenderer) MeasureLines(lines []string) (w, h int) {
	if len(lines) == 0 {
		return 0, 0
	}
	for _, l := range lines {
		w = max(w, tr.MeasureString(l))
	}
	return w, len(lines)*tr.LineAdvance() - tr.lineGap
}

// DrawLines draws lines top-down with the block's top-left corner at (x, y).
// colour picks the colour of line i.
func (tr *TextRenderer) DrawLines(screen *ebiten.Image, lines []string, x, y int, colour func(i int) color.Color) {
	ascent := tr.face.Metrics().Ascent.Round()
	for i, l := range lines {
		tr.DrawText(screen, l, x, y+ascent+i*tr.LineAdvance(), colour(i))
	}
}

// Ellipsize shortens s, ending it with "...", until it fits in width
// pixels. Text that already fits is returned as is.
func (tr *TextRenderer) Ellipsize(s string, width int) string {
	if tr.MeasureString(s) <= width {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		cut := string(runes[:n]) + ellipsis
		if tr.MeasureString(cut) <= width {
			return cut
		}
	}
	return ellipsis
}
