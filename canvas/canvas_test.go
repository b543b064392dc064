package canvas

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func TestAdjustTracksDisplaySize(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		dpr          float64
		wantW, wantH int
		wantDPR      float64
	}{
		{"unit dpr", 200, 100, 1, 200, 100, 1},
		{"retina", 200, 100, 2, 400, 200, 2},
		{"clamped high", 200, 100, 3, 400, 200, 2},
		{"clamped low", 200, 100, 0.5, 200, 100, 1},
		{"fractional floors", 101, 51, 1.5, 151, 76, 1.5},
		{"unknown size", 0, 0, 1, DefaultWidth, DefaultHeight, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(10, 10)
			c.SetDisplay(tt.w, tt.h, tt.dpr)
			c.Adjust()
			b := c.Image().Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
			if c.DeviceScale() != tt.wantDPR {
				t.Errorf("dpr = %v, want %v", c.DeviceScale(), tt.wantDPR)
			}
		})
	}
}

func TestAdjustResetsState(t *testing.T) {
	c := New(50, 50)
	_ = c.SetFillStyle("red")
	c.SetLineWidth(5)
	c.Save()
	c.Translate(10, 10)

	c.Adjust()
	if c.FillStyle() != "#000" || c.LineWidth() != 1 {
		t.Errorf("style survived Adjust: fill=%q width=%v", c.FillStyle(), c.LineWidth())
	}
	// nothing left to restore
	c.Restore()
}

func TestRestoreWithoutSaveIsNoop(t *testing.T) {
	c := New(10, 10)
	c.Restore()
	c.Restore()
}

func TestSaveRestoreStyles(t *testing.T) {
	c := New(10, 10)
	_ = c.SetStrokeStyle("#123456")
	c.Save()
	_ = c.SetStrokeStyle("blue")
	_ = c.SetLineCap("round")
	c.Restore()
	if c.StrokeStyle() != "#123456" || c.LineCap() != "butt" {
		t.Errorf("after restore stroke=%q cap=%q", c.StrokeStyle(), c.LineCap())
	}
}

func TestInvalidStylesKeepPrevious(t *testing.T) {
	c := New(10, 10)
	_ = c.SetFillStyle("hsl(25,100%,30%)")
	if err := c.SetFillStyle("not-a-colour"); err == nil {
		t.Error("invalid colour accepted")
	}
	if c.FillStyle() != "hsl(25,100%,30%)" {
		t.Errorf("fill = %q", c.FillStyle())
	}
	if err := c.SetLineCap("pointy"); err == nil {
		t.Error("invalid cap accepted")
	}
	c.SetLineWidth(-1)
	c.SetLineWidth(math.NaN())
	if c.LineWidth() != 1 {
		t.Errorf("width = %v", c.LineWidth())
	}
}

func TestFillRectAndClearRect(t *testing.T) {
	c := New(20, 20)
	_ = c.SetFillStyle("#ff0000")
	c.FillRect(0, 0, 20, 20)
	if got := c.Image().RGBAAt(5, 5); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("pixel = %v, want red", got)
	}

	c.ClearRect(0, 0, 10, 20)
	if got := c.Image().RGBAAt(5, 5); got.A != 0 {
		t.Errorf("cleared pixel = %v", got)
	}
	if got := c.Image().RGBAAt(15, 5); got.R != 255 {
		t.Errorf("pixel outside clear rect = %v", got)
	}

	c.Clear()
	if got := c.Image().RGBAAt(15, 5); got.A != 0 {
		t.Errorf("pixel after Clear = %v", got)
	}
}

func TestArcFill(t *testing.T) {
	c := New(40, 40)
	_ = c.SetFillStyle("rgba(0,0,255,1)")
	c.BeginPath()
	c.Arc(20, 20, 10, 0, 2*math.Pi, false)
	c.Fill()
	if got := c.Image().RGBAAt(20, 20); got.B != 255 || got.A != 255 {
		t.Errorf("centre = %v, want blue", got)
	}
	if got := c.Image().RGBAAt(2, 2); got.A != 0 {
		t.Errorf("corner = %v, want transparent", got)
	}
}

func TestClipLimitsFill(t *testing.T) {
	c := New(40, 40)
	c.Save()
	c.BeginPath()
	c.Rect(0, 0, 20, 40)
	c.Clip()
	c.BeginPath()
	c.Rect(0, 0, 40, 40)
	_ = c.SetFillStyle("#00ff00")
	c.Fill()
	c.Restore()

	if got := c.Image().RGBAAt(10, 10); got.G != 255 {
		t.Errorf("inside clip = %v", got)
	}
	if got := c.Image().RGBAAt(30, 10); got.A != 0 {
		t.Errorf("outside clip = %v", got)
	}
}

func TestNormalizeArcEnd(t *testing.T) {
	const turn = 2 * math.Pi
	tests := []struct {
		name       string
		start, end float64
		ccw        bool
		want       float64
	}{
		{"simple cw", 0, math.Pi, false, math.Pi},
		{"full cw", 0, turn, false, turn},
		{"over full cw", 0, 3 * turn, false, turn},
		{"wrapped cw", math.Pi, 0, false, turn},
		{"simple ccw", math.Pi, 0, true, 0},
		{"full ccw", 0, -turn, true, -turn},
		{"wrapped ccw", 0, math.Pi, true, -math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeArcEnd(tt.start, tt.end, tt.ccw)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("normalizeArcEnd(%v, %v, %v) = %v, want %v", tt.start, tt.end, tt.ccw, got, tt.want)
			}
		})
	}
}

func TestWritePNG(t *testing.T) {
	c := New(8, 4)
	var buf bytes.Buffer
	if err := c.WritePNG(&buf); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Errorf("decoded bounds = %v", img.Bounds())
	}
}
