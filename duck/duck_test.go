package duck

import (
	"bytes"
	"errors"
	"testing"

	"duckstudio/canvas"
	"duckstudio/sandbox"
	"duckstudio/scene"
	"duckstudio/typedef"
)

// recorder is a canvas.Context that remembers the first translation of
// every top-level Save block, which is where a part is placed.
type recorder struct {
	depth  int
	placed []float64
	fill   string
	stroke string
	width  float64
	lcap   string
	alpha  float64
}

func (r *recorder) Save()    { r.depth++ }
func (r *recorder) Restore() { r.depth-- }
func (r *recorder) Translate(x, y float64) {
	if r.depth == 1 {
		r.placed = append(r.placed, x)
	}
}
func (r *recorder) Scale(x, y float64)                     {}
func (r *recorder) Rotate(float64)                         {}
func (r *recorder) BeginPath()                             {}
func (r *recorder) ClosePath()                             {}
func (r *recorder) MoveTo(x, y float64)                    {}
func (r *recorder) LineTo(x, y float64)                    {}
func (r *recorder) QuadraticCurveTo(a, b, c, d float64)    {}
func (r *recorder) BezierCurveTo(a, b, c, d, e, f float64) {}
func (r *recorder) Arc(x, y, rad, s, e float64, ccw bool)  {}
func (r *recorder) Rect(x, y, w, h float64)                {}
func (r *recorder) Fill()                                  {}
func (r *recorder) Stroke()                                {}
func (r *recorder) Clip()                                  {}
func (r *recorder) FillRect(x, y, w, h float64)            {}
func (r *recorder) ClearRect(x, y, w, h float64)           {}
func (r *recorder) FillStyle() string                      { return r.fill }
func (r *recorder) SetFillStyle(s string) error            { r.fill = s; return nil }
func (r *recorder) StrokeStyle() string                    { return r.stroke }
func (r *recorder) SetStrokeStyle(s string) error          { r.stroke = s; return nil }
func (r *recorder) LineWidth() float64                     { return r.width }
func (r *recorder) SetLineWidth(w float64)                 { r.width = w }
func (r *recorder) LineCap() string                        { return r.lcap }
func (r *recorder) SetLineCap(c string) error              { r.lcap = c; return nil }
func (r *recorder) GlobalAlpha() float64                   { return r.alpha }
func (r *recorder) SetGlobalAlpha(a float64)               { r.alpha = a }

var _ canvas.Context = (*recorder)(nil)

func TestRenderDrawsInZOrder(t *testing.T) {
	s := scene.Default()
	xs := map[float64]scene.Key{}
	for i, k := range s.Keys() {
		p, _ := s.Get(k)
		p.X = float64(100 + i)
		xs[p.X] = k
	}

	r := &recorder{}
	Render(r, s, 3)

	want := []scene.Key{scene.LeftLeg, scene.RightLeg, scene.Tail, scene.Body, scene.Chest,
		scene.Wing, scene.Feathers, scene.Head, scene.Bill}
	if len(r.placed) != len(want) {
		t.Fatalf("placed %d parts, want %d", len(r.placed), len(want))
	}
	for i, x := range r.placed {
		if xs[x] != want[i] {
			t.Errorf("part %d = %s, want %s", i, xs[x], want[i])
		}
	}
	if r.depth != 0 {
		t.Errorf("unbalanced save/restore: depth %d", r.depth)
	}
}

func TestRenderSkipsUnknownKeys(t *testing.T) {
	s := scene.New()
	s.Put("antenna", scene.Part{X: 5, Scale: 1})
	s.Put(scene.Body, scene.Part{X: 7, Scale: 1})

	r := &recorder{}
	Render(r, s, 0)
	if len(r.placed) != 1 || r.placed[0] != 7 {
		t.Errorf("placed = %v, want only the body", r.placed)
	}
}

func TestEveryKnownKeyHasDrawRoutine(t *testing.T) {
	for _, k := range scene.Keys {
		t.Run(string(k), func(t *testing.T) {
			kind, ok := kindOf(k, scene.Part{Scale: 1})
			if !ok {
				t.Fatalf("no variant for %s", k)
			}
			r := &recorder{}
			drawPart(r, kind, 0)
			if len(r.placed) != 1 {
				t.Errorf("%s placed %d times", k, len(r.placed))
			}
		})
	}
	if _, ok := kindOf("tentacle", scene.Part{}); ok {
		t.Error("unknown key produced a variant")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	s := scene.Default()
	for _, frame := range []int{0, 3, 91, 180, 1234} {
		a := canvas.New(200, 120)
		b := canvas.New(200, 120)
		Draw(a, 100, 60, s, frame)
		Draw(b, 100, 60, s, frame)
		if !bytes.Equal(a.Image().Pix, b.Image().Pix) {
			t.Errorf("frame %d: pixels differ between identical renders", frame)
		}
	}
}

func TestFrameChangesPixels(t *testing.T) {
	s := scene.Default()
	closed := canvas.New(200, 120)
	open := canvas.New(200, 120)
	Draw(closed, 100, 60, s, 180)
	Draw(open, 100, 60, s, 190)
	if bytes.Equal(closed.Image().Pix, open.Image().Pix) {
		t.Error("frames 180 and 190 render identically")
	}
}

func TestBlinkClosed(t *testing.T) {
	tests := []struct {
		frame int
		want  bool
	}{
		{0, true}, {4, true}, {5, false}, {100, false}, {179, false},
		{180, true}, {184, true}, {185, false}, {360, true}, {-176, true}, {-1, false},
	}
	for _, tt := range tests {
		if got := BlinkClosed(tt.frame); got != tt.want {
			t.Errorf("BlinkClosed(%d) = %v, want %v", tt.frame, got, tt.want)
		}
	}
	for c := 0; c < 2000; c++ {
		if BlinkClosed(c) != (c%180 < 5) {
			t.Fatalf("BlinkClosed(%d) disagrees with c mod 180 < 5", c)
		}
	}
}

func TestLegSwingMirrored(t *testing.T) {
	for c := -50; c < 500; c++ {
		left, right := LegSwing(c)
		if left != -right {
			t.Fatalf("frame %d: left %v right %v", c, left, right)
		}
	}
	if l, _ := LegSwing(8); l == 0 {
		t.Error("legs do not swing")
	}
}

func TestFeatherSwayIsPhaseShifted(t *testing.T) {
	if FeatherSway(10, 0) == FeatherSway(10, 1) {
		t.Error("feathers sway in phase")
	}
	if FeatherSway(10, 2) != FeatherSway(10, 2) {
		t.Error("sway is not a pure function")
	}
}

func TestRenderDoesNotMutateScene(t *testing.T) {
	s := scene.Default()
	before := s.Clone()
	c := canvas.New(100, 100)
	for frame := 0; frame < 10; frame++ {
		Draw(c, 50, 50, s, frame)
	}
	if !s.Equal(before) {
		t.Error("rendering changed the scene")
	}
}

func TestRenderWithClampedScale(t *testing.T) {
	s := scene.Default()
	if err := s.Set(scene.Head, scene.PropScale, 0); err != nil {
		t.Fatal(err)
	}
	if p, _ := s.Get(scene.Head); p.Scale <= 0 {
		t.Fatalf("scale = %v", p.Scale)
	}
	c := canvas.New(100, 100)
	Draw(c, 50, 50, s, 1)

	// A zero scale that bypassed editing must not panic either.
	raw := scene.Default()
	raw.Put(scene.Body, scene.Part{Scale: 0})
	Draw(c, 50, 50, raw, 1)
}

func TestThumbnail(t *testing.T) {
	img := Thumbnail(scene.Default(), 80, 45)
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 45 {
		t.Errorf("bounds = %v", b)
	}
	full := Thumbnail(scene.Default(), 0, 0)
	if b := full.Bounds(); b.Dx() != thumbSourceW || b.Dy() != thumbSourceH {
		t.Errorf("unscaled bounds = %v", b)
	}
}

func TestBuiltinUnit(t *testing.T) {
	l := sandbox.NewLoader(sandbox.Config{})
	u := Builtin(l)
	entry := sandbox.Resolve(u)
	if entry == nil {
		t.Fatal("builtin has no entry point")
	}

	c := canvas.New(120, 80)
	subj := typedef.Subject{X: 60, Y: 40, Frame: 1, Parts: scene.Default()}
	if err := entry.Invoke(c, subj, typedef.Motion{}, nil); err != nil {
		t.Fatal(err)
	}
	if px := c.Image().RGBAAt(60, 40); px.A == 0 {
		t.Error("nothing drawn at the subject centre")
	}

	u.Release()
	if err := entry.Invoke(c, subj, typedef.Motion{}, nil); !errors.Is(err, sandbox.ErrReleased) {
		t.Errorf("invoke after release: %v", err)
	}
	if live := l.Live(); len(live) != 0 {
		t.Errorf("live units after release: %v", live)
	}
}
