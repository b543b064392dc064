package app

import (
	"encoding/json"

	"duckstudio/api"
	"duckstudio/scene"
)

// Game is the API's controller; api.Command.Execute calls these from
// drainCommands on the ebiten goroutine.
var _ api.Controller = (*Game)(nil)

func (g *Game) Status() api.StatusData {
	st := g.session.Status()
	return api.StatusData{
		State:     st.State,
		Frame:     st.Frame,
		Unit:      st.Unit,
		LastError: st.LastError,
		Parts:     g.stage.Scene().Len(),
		LiveUnits: len(g.loader.Live()),
	}
}

func (g *Game) Stop() { g.session.Stop() }

func (g *Game) SceneDocument() (json.RawMessage, error) {
	doc, err := g.stage.Document()
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc), nil
}

func (g *Game) SetPart(key, property string, value float64) error {
	return g.stage.Set(scene.Key(key), scene.Property(property), value)
}

func (g *Game) ResetPart(key string) error {
	return g.stage.ResetPart(scene.Key(key))
}

func (g *Game) ResetScene() { g.stage.ResetScene() }
