package duck

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"duckstudio/canvas"
	"duckstudio/scene"
)

const (
	thumbSourceW = 160
	thumbSourceH = 90
)

// Thumbnail renders s at frame 0 and scales the result to w x h.
func Thumbnail(s *scene.Scene, w, h int) *image.RGBA {
	c := canvas.New(thumbSourceW, thumbSourceH)
	_ = c.SetFillStyle("#87ceeb")
	c.FillRect(0, 0, thumbSourceW, thumbSourceH)
	Draw(c, thumbSourceW/2, thumbSourceH/2, s, 0)

	if w <= 0 || h <= 0 || (w == thumbSourceW && h == thumbSourceH) {
		return c.Image()
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), c.Image(), c.Image().Bounds(), xdraw.Over, nil)
	return dst
}
