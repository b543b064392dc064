package scene

import (
	"fmt"
	"math"
	"sort"
)

// Key identifies one drawable part of the duck.
type Key string

const (
	Body     Key = "body"
	Chest    Key = "chest"
	Wing     Key = "wing"
	Feathers Key = "feathers"
	Tail     Key = "tail"
	Head     Key = "head"
	Bill     Key = "bill"
	LeftLeg  Key = "leftLeg"
	RightLeg Key = "rightLeg"
)

// Keys lists every part key the renderer knows, in default declaration order.
var Keys = []Key{Body, Chest, Wing, Feathers, Tail, Head, Bill, LeftLeg, RightLeg}

// Known reports whether k is one of the renderer's part keys.
func (k Key) Known() bool {
	for _, known := range Keys {
		if k == known {
			return true
		}
	}
	return false
}

// MinScale is the floor applied to edited scale values.
const MinScale = 0.01

// Part holds the transform and appearance of one part.
// Zero-valued optional fields (Radius, Color, BaseRotation) fall back to
// the renderer's defaults for that part kind.
type Part struct {
	Name         string  `json:"name"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Scale        float64 `json:"scale"`
	Rotation     float64 `json:"rotation"`
	ZIndex       int     `json:"zIndex"`
	Radius       float64 `json:"radius,omitempty"`
	Color        string  `json:"color,omitempty"`
	BaseRotation float64 `json:"baseRotation,omitempty"`
}

// Scene maps part keys to parts and remembers declaration order.
type Scene struct {
	parts map[Key]*Part
	order []Key
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{parts: make(map[Key]*Part)}
}

// Default returns a fresh copy of the built-in duck.
func Default() *Scene {
	s := New()
	s.Put(Body, Part{Name: "Body", X: 0, Y: 0, Scale: 1, Radius: 16, Color: "#c9c9c9", ZIndex: 1})
	s.Put(Chest, Part{Name: "Chest", X: 4.8, Y: 0, Scale: 1, Radius: 16, Color: "hsl(25,100%,30%)", ZIndex: 2})
	s.Put(Wing, Part{Name: "Wing", X: -0.8, Y: -4.8, Scale: 1, ZIndex: 3})
	s.Put(Feathers, Part{Name: "Feathers", X: -17, Y: -10, Scale: 1, Rotation: -31 * math.Pi / 180, ZIndex: 4})
	s.Put(Tail, Part{Name: "Tail", X: -12, Y: -3.2, Scale: 1, ZIndex: 0})
	s.Put(Head, Part{Name: "Head", X: 14.4, Y: -4.8, Scale: 1, Radius: 11.2, ZIndex: 5})
	s.Put(Bill, Part{Name: "Bill", X: 14.4, Y: -4.8, Scale: 1, ZIndex: 6})
	s.Put(LeftLeg, Part{Name: "Left leg", X: -4.8, Y: 8, Scale: 1, ZIndex: -1})
	s.Put(RightLeg, Part{Name: "Right leg", X: 1.6, Y: 8, Scale: 1, ZIndex: -1})
	return s
}

// Put stores a copy of p under k. New keys are appended to the declaration order.
func (s *Scene) Put(k Key, p Part) {
	if existing, ok := s.parts[k]; ok {
		*existing = p
		return
	}
	s.parts[k] = &p
	s.order = append(s.order, k)
}

// Get returns the live part stored under k.
func (s *Scene) Get(k Key) (*Part, bool) {
	p, ok := s.parts[k]
	return p, ok
}

// Len returns the number of parts.
func (s *Scene) Len() int {
	return len(s.order)
}

// Keys returns the part keys in declaration order.
func (s *Scene) Keys() []Key {
	return append([]Key(nil), s.order...)
}

// Entry pairs a key with its part.
type Entry struct {
	Key  Key
	Part *Part
}

// Ordered returns the parts sorted by ascending ZIndex. Parts with equal
// ZIndex keep their declaration order.
func (s *Scene) Ordered() []Entry {
	entries := make([]Entry, 0, len(s.order))
	for _, k := range s.order {
		entries = append(entries, Entry{Key: k, Part: s.parts[k]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Part.ZIndex < entries[j].Part.ZIndex
	})
	return entries
}

// Clone returns a deep copy that shares nothing with s.
func (s *Scene) Clone() *Scene {
	c := &Scene{
		parts: make(map[Key]*Part, len(s.parts)),
		order: append([]Key(nil), s.order...),
	}
	for k, p := range s.parts {
		cp := *p
		c.parts[k] = &cp
	}
	return c
}

// Equal reports whether both scenes hold the same parts in the same order.
func (s *Scene) Equal(other *Scene) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, k := range s.order {
		if other.order[i] != k {
			return false
		}
		if *s.parts[k] != *other.parts[k] {
			return false
		}
	}
	return true
}

func (s *Scene) String() string {
	return fmt.Sprintf("scene(%d parts)", s.Len())
}
