package workspace

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"duckstudio/scene"
	"duckstudio/storage"
)

// Nudge steps per property for keyboard and API edits. Rotation is in degrees.
var nudgeStep = map[scene.Property]float64{
	scene.PropX:        1,
	scene.PropY:        1,
	scene.PropRotation: 5,
	scene.PropScale:    0.05,
}

// Stage owns the live scene the animation loop draws and the editor's
// selection. Every edit is persisted under storage.LastSceneKey.
type Stage struct {
	live  *scene.Scene
	store *storage.Tolerant
	log   *slog.Logger

	part int
	prop int
}

// NewStage restores the last persisted scene, falling back to the default duck.
func NewStage(store *storage.Tolerant, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	st := &Stage{store: store, log: logger.With("component", "stage"), live: scene.Default()}
	if store == nil {
		return st
	}
	if doc, ok := store.Get(storage.LastSceneKey); ok {
		s, err := scene.Decode(strings.NewReader(doc))
		if err != nil {
			st.log.Warn("ignoring stored scene", "error", err)
		} else {
			st.live = s
		}
	}
	return st
}

// Scene returns the live scene. Callers outside the editor must not modify it.
func (st *Stage) Scene() *scene.Scene { return st.live }

// Install replaces the live scene with a copy of s.
func (st *Stage) Install(s *scene.Scene) {
	st.live = s.Clone()
	st.part = 0
	st.persist()
}

// Selected returns the selected part key, or "" for an empty scene.
func (st *Stage) Selected() scene.Key {
	keys := st.live.Keys()
	if len(keys) == 0 {
		return ""
	}
	return keys[st.part%len(keys)]
}

// SelectPart moves the selection by delta, wrapping around.
func (st *Stage) SelectPart(delta int) scene.Key {
	n := st.live.Len()
	if n == 0 {
		return ""
	}
	st.part = ((st.part+delta)%n + n) % n
	return st.Selected()
}

func (st *Stage) Property() scene.Property {
	return scene.Properties[st.prop]
}

// NextProperty cycles the edited property.
func (st *Stage) NextProperty() scene.Property {
	st.prop = (st.prop + 1) % len(scene.Properties)
	return st.Property()
}

// Nudge changes the selected property of the selected part by steps.
func (st *Stage) Nudge(steps float64) error {
	k, prop := st.Selected(), st.Property()
	v, err := st.live.Value(k, prop)
	if err != nil {
		return err
	}
	return st.Set(k, prop, v+steps*nudgeStep[prop])
}

// Set edits one property of a part.
func (st *Stage) Set(k scene.Key, prop scene.Property, v float64) error {
	if err := st.live.Set(k, prop, v); err != nil {
		return err
	}
	st.persist()
	return nil
}

func (st *Stage) ResetPart(k scene.Key) error {
	if err := st.live.ResetPart(k); err != nil {
		return err
	}
	st.persist()
	return nil
}

// ResetScene restores every part that has a default.
func (st *Stage) ResetScene() {
	st.live.Reset()
	st.persist()
}

// Describe is a one-line summary of the selected part for the HUD.
func (st *Stage) Describe() string {
	k := st.Selected()
	p, ok := st.live.Get(k)
	if !ok {
		return "no parts"
	}
	rot, _ := st.live.Value(k, scene.PropRotation)
	return fmt.Sprintf("%s  x=%.1f y=%.1f rot=%.0f° scale=%.2f  [%s]", k, p.X, p.Y, rot, p.Scale, st.Property())
}

// Document encodes the live scene.
func (st *Stage) Document() ([]byte, error) {
	var buf bytes.Buffer
	if err := st.live.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (st *Stage) persist() {
	if st.store == nil {
		return
	}
	doc, err := st.Document()
	if err != nil {
		st.log.Warn("encode scene", "error", err)
		return
	}
	st.store.Set(storage.LastSceneKey, string(doc))
}
