// Package canvas provides the immediate-mode 2D drawing surface that the
// renderer and user scripts paint on.
//
// The data flow is:
//
//	Context calls (draw) -> *image.RGBA (CPU) -> *ebiten.Image (window)
//
// Canvas is NOT safe for concurrent use; it belongs to the goroutine that
// drives the animation loop.
package canvas

// Context is the drawing API exposed to renderers and scripts. Method
// semantics follow the HTML canvas 2D context: paths are built in the
// current transform, Fill/Stroke/Clip keep the path until BeginPath, and
// Save/Restore cover transform, clip and style state.
type Context interface {
	Save()
	Restore()

	Translate(x, y float64)
	Scale(x, y float64)
	Rotate(angle float64)

	BeginPath()
	ClosePath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadraticCurveTo(cpx, cpy, x, y float64)
	BezierCurveTo(cp1x, cp1y, cp2x, cp2y, x, y float64)
	Arc(x, y, radius, startAngle, endAngle float64, counterclockwise bool)
	Rect(x, y, w, h float64)

	Fill()
	Stroke()
	Clip()
	FillRect(x, y, w, h float64)
	ClearRect(x, y, w, h float64)

	FillStyle() string
	SetFillStyle(style string) error
	StrokeStyle() string
	SetStrokeStyle(style string) error
	LineWidth() float64
	SetLineWidth(w float64)
	LineCap() string
	SetLineCap(cap string) error
	GlobalAlpha() float64
	SetGlobalAlpha(a float64)
}
