package duck

import (
	"fmt"
	"math"

	"duckstudio/canvas"
	"duckstudio/scene"
)

// unit is the reference radius every part is sized against.
const unit = 16.0

const (
	blinkInterval = 180
	blinkDuration = 5
)

// BlinkClosed reports whether the eye is drawn closed on the given frame.
func BlinkClosed(frame int) bool {
	m := frame % blinkInterval
	if m < 0 {
		m += blinkInterval
	}
	return m < blinkDuration
}

// FeatherSway is the extra rotation of feather i on the given frame.
func FeatherSway(frame, i int) float64 {
	return math.Sin(float64(frame)*0.05+float64(i)) * 0.05
}

// LegSwing returns the angular offsets of the left and right legs. They
// share one oscillation and are always mirrored.
func LegSwing(frame int) (left, right float64) {
	a := math.Sin(float64(frame)*0.2) * 0.2
	return a, -a
}

// partKind is the closed set of drawable part records. Every record embeds
// a copy of its scene.Part, so drawing never reaches back into the scene.
type partKind interface {
	part() scene.Part
}

type (
	bodyPart     struct{ scene.Part }
	chestPart    struct{ scene.Part }
	wingPart     struct{ scene.Part }
	feathersPart struct{ scene.Part }
	tailPart     struct{ scene.Part }
	headPart     struct{ scene.Part }
	billPart     struct{ scene.Part }
	legPart      struct {
		scene.Part
		left bool
	}
)

func (p bodyPart) part() scene.Part     { return p.Part }
func (p chestPart) part() scene.Part    { return p.Part }
func (p wingPart) part() scene.Part     { return p.Part }
func (p feathersPart) part() scene.Part { return p.Part }
func (p tailPart) part() scene.Part     { return p.Part }
func (p headPart) part() scene.Part     { return p.Part }
func (p billPart) part() scene.Part     { return p.Part }
func (p legPart) part() scene.Part      { return p.Part }

// kindOf maps a scene key to its record. Keys outside scene.Keys have no
// draw routine.
func kindOf(k scene.Key, p scene.Part) (partKind, bool) {
	switch k {
	case scene.Body:
		return bodyPart{p}, true
	case scene.Chest:
		return chestPart{p}, true
	case scene.Wing:
		return wingPart{p}, true
	case scene.Feathers:
		return feathersPart{p}, true
	case scene.Tail:
		return tailPart{p}, true
	case scene.Head:
		return headPart{p}, true
	case scene.Bill:
		return billPart{p}, true
	case scene.LeftLeg:
		return legPart{Part: p, left: true}, true
	case scene.RightLeg:
		return legPart{Part: p}, true
	}
	return nil, false
}

func drawPart(dc canvas.Context, k partKind, frame int) {
	switch p := k.(type) {
	case bodyPart:
		drawBody(dc, p)
	case chestPart:
		drawChest(dc, p)
	case wingPart:
		drawWing(dc, p)
	case feathersPart:
		drawFeathers(dc, p, frame)
	case tailPart:
		drawTail(dc, p)
	case headPart:
		drawHead(dc, p, frame)
	case billPart:
		drawBill(dc, p)
	case legPart:
		left, right := LegSwing(frame)
		if p.left {
			drawLeg(dc, p, left)
		} else {
			drawLeg(dc, p, right)
		}
	default:
		panic(fmt.Sprintf("duck: no draw routine for %T", k))
	}
}

func place(dc canvas.Context, p scene.Part, extraRotation float64) {
	dc.Translate(p.X, p.Y)
	dc.Scale(p.Scale, p.Scale)
	dc.Rotate(p.Rotation + extraRotation)
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// fillStyle applies colour, falling back to def when colour is empty or invalid.
func fillStyle(dc canvas.Context, colour, def string) {
	if colour == "" || dc.SetFillStyle(colour) != nil {
		_ = dc.SetFillStyle(def)
	}
}

func circle(dc canvas.Context, x, y, r float64) {
	dc.BeginPath()
	dc.Arc(x, y, r, 0, 2*math.Pi, false)
}

func drawBody(dc canvas.Context, p bodyPart) {
	dc.Save()
	place(dc, p.Part, 0)
	r := orDefault(p.Radius, unit)
	fillStyle(dc, p.Color, "#c9c9c9")
	circle(dc, 0, 0, r)
	dc.Fill()
	_ = dc.SetStrokeStyle("#333")
	dc.SetLineWidth(2)
	dc.Stroke()
	dc.Restore()
}

func drawChest(dc canvas.Context, p chestPart) {
	dc.Save()
	place(dc, p.Part, 0)
	r := orDefault(p.Radius, unit)
	fillStyle(dc, p.Color, "#c9c9c9")
	dc.BeginPath()
	dc.Arc(0, 0, r, -math.Pi/2.2, math.Pi/2.2, false)
	dc.Fill()
	dc.Restore()
}

func drawWing(dc canvas.Context, p wingPart) {
	dc.Save()
	place(dc, p.Part, p.BaseRotation)
	r := unit
	dc.BeginPath()
	dc.MoveTo(0, 0)
	dc.QuadraticCurveTo(-r*0.7, -r*0.85, -r*1.4, 0)
	dc.QuadraticCurveTo(-r*0.7, r*0.85, 0, 0)
	dc.ClosePath()
	fillStyle(dc, p.Color, "#c9c9c9")
	dc.Fill()
	_ = dc.SetStrokeStyle("#333")
	dc.SetLineWidth(1)
	dc.Stroke()

	// speculum patch, clipped to the wing outline
	dc.Save()
	dc.Clip()
	_ = dc.SetFillStyle("#1976d2")
	circle(dc, -r*1.2, 0, r*0.6)
	dc.Fill()
	dc.Restore()
	dc.Restore()
}

func drawFeathers(dc canvas.Context, p feathersPart, frame int) {
	dc.Save()
	place(dc, p.Part, 0)
	const fr = 15.0
	baseAngle := -18 * math.Pi / 180
	_ = dc.SetStrokeStyle("rgba(60,60,60,0.7)")
	dc.SetLineWidth(1.3)
	for i := 0; i < 3; i++ {
		dc.Save()
		dc.Rotate(baseAngle + FeatherSway(frame, i))
		offsetY := fr * (0.6 + float64(i)*0.25)
		dc.BeginPath()
		dc.MoveTo(-fr*0.6, offsetY*0.1)
		dc.QuadraticCurveTo(-fr*1.1, offsetY*0.6, -fr*0.2, offsetY*0.9)
		dc.Stroke()
		dc.Restore()
	}
	dc.Restore()
}

func drawTail(dc canvas.Context, p tailPart) {
	dc.Save()
	place(dc, p.Part, 0)
	r := unit
	fillStyle(dc, p.Color, "#fff")
	dc.BeginPath()
	dc.MoveTo(0, 0)
	dc.LineTo(-r, -r*0.5)
	dc.LineTo(-r, r*0.4)
	dc.ClosePath()
	dc.Fill()
	_ = dc.SetStrokeStyle("#333")
	dc.SetLineWidth(1)
	dc.Stroke()

	_ = dc.SetFillStyle("#222")
	dc.BeginPath()
	dc.MoveTo(0, 0)
	dc.LineTo(-r*0.9, -r*0.4)
	dc.LineTo(-r*0.9, r*0.3)
	dc.ClosePath()
	dc.Fill()
	dc.Restore()
}

func drawHead(dc canvas.Context, p headPart, frame int) {
	dc.Save()
	place(dc, p.Part, 0)
	r := orDefault(p.Radius, 11.2)
	fillStyle(dc, p.Color, "#1b5e20")
	circle(dc, 0, 0, r)
	dc.Fill()

	_ = dc.SetFillStyle("#fff")
	dc.BeginPath()
	dc.Arc(0, 0, r, math.Pi*0.7, math.Pi*1.3, false)
	dc.ClosePath()
	dc.Fill()

	_ = dc.SetStrokeStyle("#333")
	dc.SetLineWidth(2)
	circle(dc, 0, 0, r)
	dc.Stroke()

	if BlinkClosed(frame) {
		_ = dc.SetStrokeStyle("#000")
		dc.SetLineWidth(1.5)
		dc.BeginPath()
		dc.MoveTo(r*0.25, -r*0.15)
		dc.LineTo(r*0.55, -r*0.12)
		dc.Stroke()
	} else {
		_ = dc.SetFillStyle("#000")
		circle(dc, r*0.35, -r*0.12, r*0.18)
		dc.Fill()
		_ = dc.SetFillStyle("#fff")
		circle(dc, r*0.45, -r*0.20, r*0.06)
		dc.Fill()
	}
	dc.Restore()
}

func drawBill(dc canvas.Context, p billPart) {
	dc.Save()
	place(dc, p.Part, 0)
	const headR = 11.2
	fillStyle(dc, p.Color, "#f9c74f")
	dc.BeginPath()
	dc.MoveTo(headR*0.9, -headR*0.16)
	dc.LineTo(headR*1.45, 0)
	dc.LineTo(headR*0.9, headR*0.16)
	dc.ClosePath()
	dc.Fill()
	_ = dc.SetStrokeStyle("#333")
	dc.SetLineWidth(1)
	dc.Stroke()
	dc.Restore()
}

func drawLeg(dc canvas.Context, p legPart, swing float64) {
	dc.Save()
	place(dc, p.Part, 0)
	legLength := unit * 1.1
	colour := p.Color
	if colour == "" || dc.SetStrokeStyle(colour) != nil {
		_ = dc.SetStrokeStyle("#ff9b42")
	}
	dc.SetLineWidth(2)
	_ = dc.SetLineCap("round")

	dc.Save()
	dc.Rotate(0.4 + swing)
	dc.BeginPath()
	dc.MoveTo(0, 0)
	dc.LineTo(-legLength*0.6, legLength*0.4)
	dc.Stroke()
	dc.BeginPath()
	dc.MoveTo(-legLength*0.6, legLength*0.4)
	dc.LineTo(-legLength*0.8, legLength*0.4)
	dc.Stroke()
	dc.BeginPath()
	dc.MoveTo(-legLength*0.55, legLength*0.4)
	dc.LineTo(-legLength*0.55, legLength*0.25)
	dc.Stroke()
	dc.Restore()
	dc.Restore()
}
