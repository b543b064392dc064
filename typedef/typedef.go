package typedef

import "duckstudio/scene"

// Subject describes what an entry point is asked to draw this frame.
// X and Y are the centre of the display in display units; Parts is the
// live scene and must be treated as read-only.
type Subject struct {
	X     float64
	Y     float64
	Frame int
	Parts *scene.Scene
}

// Motion carries the per-frame animation phase signals passed to entry
// points after the subject.
type Motion struct {
	Flap        float64 `json:"flap"`
	HeadTilt    float64 `json:"headTilt"`
	TailTilt    float64 `json:"tailTilt"`
	FeatherVibe float64 `json:"featherVibe"`
}
