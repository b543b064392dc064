package app

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	toastFade      = 0.4 // seconds
	toastLineH     = 16
	toastPadding   = 10
	toastMaxLines  = 6
	toastMaxColumn = 64
)

var (
	toastInfo  = color.RGBA{70, 130, 255, 255}
	toastError = color.RGBA{220, 70, 70, 255}
)

// ToastButton represents a clickable button in a toast
type ToastButton struct {
	Text    string
	OnClick func()
	X, Y    int
	Width   int
	Height  int
}

// Toast represents a single toast notification
type Toast struct {
	ID          string
	Lines       []string
	Buttons     []ToastButton
	AutoCloseAt time.Time
	CreatedAt   time.Time
	X, Y        int
	Width       int
	Height      int
	Background  color.RGBA
	Border      color.RGBA

	alpha float32
	fade  *gween.Tween
}

// ToastBuilder provides a fluent interface for building toasts
type ToastBuilder struct {
	tm    *ToastManager
	toast *Toast
}

// ToastManager manages all active toasts. Toasts stack in the top-right
// corner and fade out once their time is up.
type ToastManager struct {
	toasts    []*Toast
	nextID    int
	maxToasts int
	margin    int
	screenW   int
}

func NewToastManager() *ToastManager {
	return &ToastManager{maxToasts: 5, margin: 12, screenW: 800}
}

// New starts a toast with the default info styling and a 3s lifetime.
func (tm *ToastManager) New() *ToastBuilder {
	now := time.Now()
	toast := &Toast{
		ID:          fmt.Sprintf("toast_%d", tm.nextID),
		CreatedAt:   now,
		AutoCloseAt: now.Add(3 * time.Second),
		Background:  color.RGBA{40, 40, 50, 240},
		Border:      toastInfo,
		alpha:       1,
	}
	tm.nextID++
	return &ToastBuilder{tm: tm, toast: toast}
}

// Text adds wrapped text to the toast
func (tb *ToastBuilder) Text(text string) *ToastBuilder {
	for _, line := range strings.Split(text, "\n") {
		tb.toast.Lines = append(tb.toast.Lines, wrapLine(line, toastMaxColumn)...)
	}
	if len(tb.toast.Lines) > toastMaxLines {
		tb.toast.Lines = append(tb.toast.Lines[:toastMaxLines-1], "...")
	}
	return tb
}

// Button adds a button to the toast
func (tb *ToastBuilder) Button(text string, onClick func()) *ToastBuilder {
	tb.toast.Buttons = append(tb.toast.Buttons, ToastButton{
		Text:    text,
		OnClick: onClick,
		Width:   len(text)*7 + 16,
		Height:  20,
	})
	return tb
}

// AutoClose sets the toast to automatically close after the specified duration
func (tb *ToastBuilder) AutoClose(d time.Duration) *ToastBuilder {
	tb.toast.AutoCloseAt = tb.toast.CreatedAt.Add(d)
	return tb
}

// Error switches to error styling
func (tb *ToastBuilder) Error() *ToastBuilder {
	tb.toast.Border = toastError
	return tb
}

// Show lays the toast out and adds it to the manager
func (tb *ToastBuilder) Show() *Toast {
	tb.layout()
	tb.tm.add(tb.toast)
	return tb.toast
}

func (tb *ToastBuilder) layout() {
	t := tb.toast
	width := 200
	for _, line := range t.Lines {
		width = max(width, len(line)*7+2*toastPadding)
	}
	height := toastPadding*2 + len(t.Lines)*toastLineH
	if len(t.Buttons) > 0 {
		x := toastPadding
		for i := range t.Buttons {
			t.Buttons[i].X = x
			t.Buttons[i].Y = height - toastPadding + 4
			x += t.Buttons[i].Width + 8
		}
		height += 28
		width = max(width, x+toastPadding)
	}
	t.Width, t.Height = width, height
}

func wrapLine(line string, column int) []string {
	if len(line) <= column {
		return []string{line}
	}
	var out []string
	var cur strings.Builder
	for _, word := range strings.Fields(line) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > column {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func (tm *ToastManager) add(t *Toast) {
	// Remove oldest toast if we're at the limit
	if len(tm.toasts) >= tm.maxToasts {
		tm.toasts = tm.toasts[1:]
	}
	tm.toasts = append(tm.toasts, t)
	tm.reposition()
}

// Toasts returns the visible toasts, oldest first.
func (tm *ToastManager) Toasts() []*Toast { return tm.toasts }

// SetScreenWidth keeps toasts anchored to the right edge.
func (tm *ToastManager) SetScreenWidth(w int) {
	if w != tm.screenW {
		tm.screenW = w
		tm.reposition()
	}
}

func (tm *ToastManager) reposition() {
	y := tm.margin
	for _, t := range tm.toasts {
		t.X = tm.screenW - t.Width - tm.margin
		t.Y = y
		y += t.Height + tm.margin
	}
}

// Update advances fades and handles button clicks.
func (tm *ToastManager) Update() {
	tm.step(time.Now(), float32(1/ebiten.ActualTPS()))
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		tm.click(ebiten.CursorPosition())
	}
}

// step starts the fade of expired toasts and drops finished ones. dt is in
// seconds.
func (tm *ToastManager) step(now time.Time, dt float32) {
	if dt <= 0 || dt > 1 {
		dt = 1.0 / 60
	}
	kept := tm.toasts[:0]
	for _, t := range tm.toasts {
		if t.fade == nil && now.After(t.AutoCloseAt) {
			t.fade = gween.New(1, 0, toastFade, ease.OutQuad)
		}
		if t.fade != nil {
			alpha, done := t.fade.Update(dt)
			if done {
				continue
			}
			t.alpha = alpha
		}
		kept = append(kept, t)
	}
	if len(kept) != len(tm.toasts) {
		clear(tm.toasts[len(kept):])
		tm.toasts = kept
		tm.reposition()
	}
}

// click runs the button under the cursor. It reports whether a toast took
// the click.
func (tm *ToastManager) click(mx, my int) bool {
	for _, t := range tm.toasts {
		for _, b := range t.Buttons {
			if mx >= t.X+b.X && mx <= t.X+b.X+b.Width && my >= t.Y+b.Y && my <= t.Y+b.Y+b.Height {
				if b.OnClick != nil {
					b.OnClick()
				}
				return true
			}
		}
	}
	return false
}

// Draw renders all active toasts
func (tm *ToastManager) Draw(screen *ebiten.Image, tr *TextRenderer) {
	for _, t := range tm.toasts {
		bg := fade(t.Background, t.alpha)
		vector.DrawFilledRect(screen, float32(t.X), float32(t.Y), float32(t.Width), float32(t.Height), bg, false)
		vector.StrokeRect(screen, float32(t.X), float32(t.Y), float32(t.Width), float32(t.Height), 2, fade(t.Border, t.alpha), false)

		fg := fade(color.RGBA{255, 255, 255, 255}, t.alpha)
		for i, line := range t.Lines {
			tr.DrawText(screen, line, t.X+toastPadding, t.Y+toastPadding+(i+1)*toastLineH-4, fg)
		}
		for _, b := range t.Buttons {
			x, y := float32(t.X+b.X), float32(t.Y+b.Y)
			vector.DrawFilledRect(screen, x, y, float32(b.Width), float32(b.Height), fade(t.Border, t.alpha), false)
			tr.DrawText(screen, b.Text, t.X+b.X+8, t.Y+b.Y+14, fg)
		}
	}
}

// fade scales a colour's alpha; the components are premultiplied.
func fade(c color.RGBA, alpha float32) color.RGBA {
	a := float32(min(max(alpha, 0), 1))
	return color.RGBA{
		R: uint8(float32(c.R) * a),
		G: uint8(float32(c.G) * a),
		B: uint8(float32(c.B) * a),
		A: uint8(float32(c.A) * a),
	}
}
