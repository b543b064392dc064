package canvas

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/mazznoer/csscolorparser"
)

const (
	// DefaultWidth and DefaultHeight are used while the display size is unknown.
	DefaultWidth  = 640
	DefaultHeight = 360

	minDPR = 1
	maxDPR = 2
)

type style struct {
	fill        string
	fillRGBA    [4]float64
	stroke      string
	strokeRGBA  [4]float64
	lineWidth   float64
	lineCap     string
	globalAlpha float64
}

func defaultStyle() style {
	return style{
		fill:        "#000",
		fillRGBA:    [4]float64{0, 0, 0, 1},
		stroke:      "#000",
		strokeRGBA:  [4]float64{0, 0, 0, 1},
		lineWidth:   1,
		lineCap:     "butt",
		globalAlpha: 1,
	}
}

// Canvas is a gg-backed Context with a display size and a device pixel
// ratio. The backing image has floor(display*DPR) pixels and the base
// transform scales by DPR, so callers draw in display units.
type Canvas struct {
	img *image.RGBA
	dc  *gg.Context

	state style
	stack []style

	displayW, displayH int
	dpr                float64
	appliedDPR         float64
}

// New creates a canvas with the given display size at DPR 1.
func New(width, height int) *Canvas {
	c := &Canvas{displayW: width, displayH: height, dpr: 1}
	c.Adjust()
	return c
}

// SetDisplay records the size the canvas is shown at and the device pixel
// ratio of the screen. It takes effect on the next Adjust.
func (c *Canvas) SetDisplay(width, height int, dpr float64) {
	c.displayW, c.displayH, c.dpr = width, height, dpr
}

// DisplaySize returns the size in display units.
func (c *Canvas) DisplaySize() (float64, float64) {
	w, h := c.displayW, c.displayH
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return float64(w), float64(h)
}

// DeviceScale returns the DPR applied at the last Adjust.
func (c *Canvas) DeviceScale() float64 {
	return c.appliedDPR
}

func clampDPR(v float64) float64 {
	if math.IsNaN(v) || v < minDPR {
		return minDPR
	}
	if v > maxDPR {
		return maxDPR
	}
	return v
}

// Adjust resizes the backing image to match the display size and resets
// all drawing state (transform, clip, styles), like assigning a canvas
// element's width. Pixels survive only if the size did not change.
func (c *Canvas) Adjust() {
	dpr := clampDPR(c.dpr)
	w, h := c.DisplaySize()
	pw := max(1, int(math.Floor(w*dpr)))
	ph := max(1, int(math.Floor(h*dpr)))

	if c.img == nil || c.img.Bounds().Dx() != pw || c.img.Bounds().Dy() != ph {
		c.img = image.NewRGBA(image.Rect(0, 0, pw, ph))
	}
	c.dc = gg.NewContextForRGBA(c.img)
	c.dc.Scale(dpr, dpr)
	c.appliedDPR = dpr
	c.state = defaultStyle()
	c.stack = c.stack[:0]
}

// Clear makes every pixel transparent.
func (c *Canvas) Clear() {
	clear(c.img.Pix)
}

// Context returns c; it exists so Canvas satisfies the loop's surface
// interface.
func (c *Canvas) Context() Context {
	return c
}

// Image returns the backing image. It is reused between frames.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// WritePNG encodes the current pixels as PNG.
func (c *Canvas) WritePNG(w io.Writer) error {
	return png.Encode(w, c.img)
}

// SavePNG writes the current pixels to path.
func (c *Canvas) SavePNG(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *Canvas) Save() {
	c.stack = append(c.stack, c.state)
	c.dc.Push()
}

// Restore is a no-op when nothing was saved.
func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.dc.Pop()
}

func (c *Canvas) Translate(x, y float64) { c.dc.Translate(x, y) }
func (c *Canvas) Scale(x, y float64)     { c.dc.Scale(x, y) }
func (c *Canvas) Rotate(angle float64)   { c.dc.Rotate(angle) }

func (c *Canvas) BeginPath()          { c.dc.ClearPath() }
func (c *Canvas) ClosePath()          { c.dc.ClosePath() }
func (c *Canvas) MoveTo(x, y float64) { c.dc.MoveTo(x, y) }
func (c *Canvas) LineTo(x, y float64) { c.dc.LineTo(x, y) }

func (c *Canvas) QuadraticCurveTo(cpx, cpy, x, y float64) {
	c.dc.QuadraticTo(cpx, cpy, x, y)
}

func (c *Canvas) BezierCurveTo(cp1x, cp1y, cp2x, cp2y, x, y float64) {
	c.dc.CubicTo(cp1x, cp1y, cp2x, cp2y, x, y)
}

// Arc adds a circular arc. Angles are normalised the way the canvas 2D
// context does it: clockwise arcs end within one turn after startAngle,
// counterclockwise arcs within one turn before it.
func (c *Canvas) Arc(x, y, radius, startAngle, endAngle float64, counterclockwise bool) {
	if radius < 0 {
		return
	}
	c.dc.DrawArc(x, y, radius, startAngle, normalizeArcEnd(startAngle, endAngle, counterclockwise))
}

func normalizeArcEnd(start, end float64, ccw bool) float64 {
	const turn = 2 * math.Pi
	if !ccw {
		if end-start >= turn {
			return start + turn
		}
		d := math.Mod(end-start, turn)
		if d < 0 {
			d += turn
		}
		return start + d
	}
	if start-end >= turn {
		return start - turn
	}
	d := math.Mod(start-end, turn)
	if d < 0 {
		d += turn
	}
	return start - d
}

func (c *Canvas) Rect(x, y, w, h float64) {
	c.dc.DrawRectangle(x, y, w, h)
}

func (c *Canvas) Fill() {
	f := c.state.fillRGBA
	c.dc.SetRGBA(f[0], f[1], f[2], f[3]*c.state.globalAlpha)
	c.dc.FillPreserve()
}

// Stroke scales the line width by the current transform so lines keep
// their thickness in user units.
func (c *Canvas) Stroke() {
	s := c.state.strokeRGBA
	c.dc.SetRGBA(s[0], s[1], s[2], s[3]*c.state.globalAlpha)
	c.dc.SetLineWidth(c.state.lineWidth * c.transformScale())
	switch c.state.lineCap {
	case "round":
		c.dc.SetLineCapRound()
	case "square":
		c.dc.SetLineCapSquare()
	default:
		c.dc.SetLineCapButt()
	}
	c.dc.StrokePreserve()
}

func (c *Canvas) Clip() {
	c.dc.ClipPreserve()
}

func (c *Canvas) transformScale() float64 {
	x0, y0 := c.dc.TransformPoint(0, 0)
	x1, y1 := c.dc.TransformPoint(1, 0)
	x2, y2 := c.dc.TransformPoint(0, 1)
	det := (x1-x0)*(y2-y0) - (y1-y0)*(x2-x0)
	return math.Sqrt(math.Abs(det))
}

// FillRect paints a rectangle without touching the current path. The
// active clip region is not applied.
func (c *Canvas) FillRect(x, y, w, h float64) {
	scratch := gg.NewContextForRGBA(c.img)
	corners := [4][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i, pt := range corners {
		dx, dy := c.dc.TransformPoint(pt[0], pt[1])
		if i == 0 {
			scratch.MoveTo(dx, dy)
		} else {
			scratch.LineTo(dx, dy)
		}
	}
	scratch.ClosePath()
	f := c.state.fillRGBA
	scratch.SetRGBA(f[0], f[1], f[2], f[3]*c.state.globalAlpha)
	scratch.Fill()
}

// ClearRect makes the device-space bounding box of the transformed
// rectangle transparent.
func (c *Canvas) ClearRect(x, y, w, h float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range [4][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}} {
		dx, dy := c.dc.TransformPoint(pt[0], pt[1])
		minX, maxX = math.Min(minX, dx), math.Max(maxX, dx)
		minY, maxY = math.Min(minY, dy), math.Max(maxY, dy)
	}
	r := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	r = r.Intersect(c.img.Bounds())
	for py := r.Min.Y; py < r.Max.Y; py++ {
		row := c.img.Pix[c.img.PixOffset(r.Min.X, py):c.img.PixOffset(r.Max.X, py)]
		clear(row)
	}
}

func parseColor(s string) ([4]float64, error) {
	col, err := csscolorparser.Parse(s)
	if err != nil {
		return [4]float64{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return [4]float64{col.R, col.G, col.B, col.A}, nil
}

func (c *Canvas) FillStyle() string { return c.state.fill }

// SetFillStyle keeps the previous style when s is not a valid CSS colour.
func (c *Canvas) SetFillStyle(s string) error {
	rgba, err := parseColor(s)
	if err != nil {
		return err
	}
	c.state.fill, c.state.fillRGBA = s, rgba
	return nil
}

func (c *Canvas) StrokeStyle() string { return c.state.stroke }

func (c *Canvas) SetStrokeStyle(s string) error {
	rgba, err := parseColor(s)
	if err != nil {
		return err
	}
	c.state.stroke, c.state.strokeRGBA = s, rgba
	return nil
}

func (c *Canvas) LineWidth() float64 { return c.state.lineWidth }

// SetLineWidth ignores non-positive and non-finite widths.
func (c *Canvas) SetLineWidth(w float64) {
	if w <= 0 || math.IsInf(w, 0) || math.IsNaN(w) {
		return
	}
	c.state.lineWidth = w
}

func (c *Canvas) LineCap() string { return c.state.lineCap }

func (c *Canvas) SetLineCap(lineCap string) error {
	switch lineCap {
	case "butt", "round", "square":
		c.state.lineCap = lineCap
		return nil
	}
	return fmt.Errorf("invalid line cap %q", lineCap)
}

func (c *Canvas) GlobalAlpha() float64 { return c.state.globalAlpha }

// SetGlobalAlpha ignores values outside [0, 1].
func (c *Canvas) SetGlobalAlpha(a float64) {
	if a < 0 || a > 1 || math.IsNaN(a) {
		return
	}
	c.state.globalAlpha = a
}
