// Package duck is the reference renderer: a part-based procedural duck
// drawn from a scene.Scene on any canvas.Context.
package duck

import (
	"math"

	"duckstudio/canvas"
	"duckstudio/scene"
)

// Render paints every part of s in ascending ZIndex order, ties in
// declaration order. Keys without a draw routine are skipped. s is only read.
func Render(dc canvas.Context, s *scene.Scene, frame int) {
	if s == nil {
		return
	}
	for _, e := range s.Ordered() {
		k, ok := kindOf(e.Key, *e.Part)
		if !ok {
			continue
		}
		drawPart(dc, k, frame)
	}
}

// Draw paints the cloud backdrop and then the duck centred on (cx, cy).
func Draw(dc canvas.Context, cx, cy float64, s *scene.Scene, frame int) {
	dc.Save()
	drawClouds(dc)
	dc.Translate(cx, cy)
	Render(dc, s, frame)
	dc.Restore()
}

func drawClouds(dc canvas.Context) {
	_ = dc.SetFillStyle("rgba(255,255,255,0.5)")
	dc.BeginPath()
	dc.Arc(100, 80, 30, 0, 2*math.Pi, false)
	dc.Arc(130, 80, 40, 0, 2*math.Pi, false)
	dc.Arc(160, 80, 30, 0, 2*math.Pi, false)
	dc.Fill()
}
