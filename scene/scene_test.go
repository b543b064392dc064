package scene

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func keysOf(entries []Entry) []Key {
	out := make([]Key, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

func TestOrderedDefault(t *testing.T) {
	got := keysOf(Default().Ordered())
	want := []Key{LeftLeg, RightLeg, Tail, Body, Chest, Wing, Feathers, Head, Bill}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s (full %v)", i, got[i], want[i], got)
		}
	}
}

func TestOrderedTiesKeepDeclarationOrder(t *testing.T) {
	s := New()
	s.Put("c", Part{ZIndex: 1})
	s.Put("a", Part{ZIndex: 0})
	s.Put("b", Part{ZIndex: 1})
	s.Put("d", Part{ZIndex: 0})

	got := keysOf(s.Ordered())
	want := []Key{"a", "d", "c", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestOrderedIsDeterministic(t *testing.T) {
	s := Default()
	first := keysOf(s.Ordered())
	for i := 0; i < 20; i++ {
		next := keysOf(s.Ordered())
		for j := range first {
			if next[j] != first[j] {
				t.Fatalf("run %d: order changed: %v vs %v", i, next, first)
			}
		}
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	s := Default()
	c := s.Clone()
	if !s.Equal(c) {
		t.Fatal("clone differs from source")
	}
	if err := c.Set(Body, PropX, 99); err != nil {
		t.Fatal(err)
	}
	if p, _ := s.Get(Body); p.X != 0 {
		t.Errorf("source body.x = %v after editing clone", p.X)
	}
	c.Put("extra", Part{Scale: 1})
	if s.Len() != len(Keys) {
		t.Errorf("source grew to %d parts", s.Len())
	}
}

func TestSetScaleClamp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, MinScale},
		{"negative", -3, MinScale},
		{"tiny", 0.001, MinScale},
		{"nan", math.NaN(), MinScale},
		{"floor", MinScale, MinScale},
		{"normal", 1.5, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			if err := s.Set(Head, PropScale, tt.in); err != nil {
				t.Fatal(err)
			}
			p, _ := s.Get(Head)
			if p.Scale != tt.want {
				t.Errorf("scale = %v, want %v", p.Scale, tt.want)
			}
		})
	}
}

func TestSetRotationDegrees(t *testing.T) {
	s := Default()
	if err := s.Set(Wing, PropRotation, 90); err != nil {
		t.Fatal(err)
	}
	p, _ := s.Get(Wing)
	if math.Abs(p.Rotation-math.Pi/2) > 1e-12 {
		t.Errorf("rotation = %v rad, want pi/2", p.Rotation)
	}
	deg, err := s.Value(Wing, PropRotation)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(deg-90) > 1e-9 {
		t.Errorf("Value = %v, want 90", deg)
	}
}

func TestSetErrors(t *testing.T) {
	s := Default()
	if err := s.Set("nose", PropX, 1); !errors.Is(err, ErrUnknownPart) {
		t.Errorf("unknown part: err = %v", err)
	}
	if err := s.Set(Body, "color", 1); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("unknown property: err = %v", err)
	}
	if err := s.Set(Body, PropX, math.Inf(1)); err == nil {
		t.Error("infinite value accepted")
	}
}

func TestResetPartAndReset(t *testing.T) {
	s := Default()
	_ = s.Set(Tail, PropX, 50)
	_ = s.Set(Head, PropScale, 3)
	s.Put("extra", Part{X: 7, Scale: 1})

	if err := s.ResetPart(Tail); err != nil {
		t.Fatal(err)
	}
	if p, _ := s.Get(Tail); p.X != -12 {
		t.Errorf("tail.x = %v after reset", p.X)
	}
	if p, _ := s.Get(Head); p.Scale != 3 {
		t.Errorf("head changed by ResetPart(tail)")
	}
	if err := s.ResetPart("extra"); !errors.Is(err, ErrUnknownPart) {
		t.Errorf("ResetPart(extra) err = %v", err)
	}

	s.Reset()
	if p, _ := s.Get(Head); p.Scale != 1 {
		t.Errorf("head.scale = %v after Reset", p.Scale)
	}
	if p, _ := s.Get("extra"); p.X != 7 {
		t.Errorf("part without default was modified")
	}
}

func TestDocumentRoundTripKeepsOrder(t *testing.T) {
	doc := `{
		"tail": {"name": "T", "x": 1, "y": 2, "scale": 2, "rotation": 0.5, "zIndex": 0},
		"body": {"name": "B", "x": 0, "y": 0, "zIndex": 1, "radius": 20, "color": "#fff"},
		"custom": {"x": 3}
	}`
	s, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	keys := s.Keys()
	if len(keys) != 3 || keys[0] != Tail || keys[1] != Body || keys[2] != "custom" {
		t.Fatalf("keys = %v", keys)
	}
	if p, _ := s.Get(Body); p.Scale != 1 {
		t.Errorf("missing scale decoded as %v, want 1", p.Scale)
	}

	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	again, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Equal(again) {
		t.Error("round trip changed the scene")
	}
}

func TestDecodeRejectsNonObject(t *testing.T) {
	for _, doc := range []string{`[]`, `"duck"`, `{"body": 3}`, `{`} {
		if _, err := Decode(strings.NewReader(doc)); err == nil {
			t.Errorf("Decode(%s) succeeded", doc)
		}
	}
}

func TestSaveLoadFile(t *testing.T) {
	dir := t.TempDir()
	s := Default()
	_ = s.Set(Bill, PropY, -9)

	for _, name := range []string{"duck.json", "duck.json.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := s.SaveFile(path); err != nil {
				t.Fatal(err)
			}
			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !loaded.Equal(s) {
				t.Error("loaded scene differs")
			}
		})
	}
}
