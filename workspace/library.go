package workspace

import (
	"image"
	"path/filepath"
	"time"

	"duckstudio/duck"
	"duckstudio/scene"
)

const (
	ThumbWidth  = 96
	ThumbHeight = 54
)

// SceneDoc is a scene document loaded into the library.
type SceneDoc struct {
	Name   string
	Loaded time.Time
	Scene  *scene.Scene
	Thumb  *image.RGBA
}

// Library keeps loaded scene documents, newest first.
type Library struct {
	docs []*SceneDoc
}

// Add keeps a copy of s with a thumbnail rendered at frame 0.
func (l *Library) Add(name string, s *scene.Scene) *SceneDoc {
	own := s.Clone()
	doc := &SceneDoc{
		Name:   name,
		Loaded: time.Now(),
		Scene:  own,
		Thumb:  duck.Thumbnail(own, ThumbWidth, ThumbHeight),
	}
	l.docs = append([]*SceneDoc{doc}, l.docs...)
	return doc
}

// LoadFile reads a JSON or .lz4 scene document and adds it.
func (l *Library) LoadFile(path string) (*SceneDoc, error) {
	s, err := scene.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return l.Add(filepath.Base(path), s), nil
}

// LoadBytes decodes a dropped or downloaded document named name and adds it.
func (l *Library) LoadBytes(name string, data []byte) (*SceneDoc, error) {
	s, err := scene.DecodeNamed(name, data)
	if err != nil {
		return nil, err
	}
	return l.Add(filepath.Base(name), s), nil
}

func (l *Library) Docs() []*SceneDoc { return l.docs }

func (l *Library) Len() int { return len(l.docs) }

// At returns the i-th newest document.
func (l *Library) At(i int) (*SceneDoc, bool) {
	if i < 0 || i >= len(l.docs) {
		return nil, false
	}
	return l.docs[i], true
}
