package duck

import (
	"duckstudio/canvas"
	"duckstudio/sandbox"
	"duckstudio/typedef"
)

// BuiltinName is the name of the native unit that exposes the reference renderer.
const BuiltinName = "builtin:duck"

// Builtin creates a native unit whose drawDuck binding is Draw.
func Builtin(l *sandbox.Loader) *sandbox.Unit {
	return l.Native(BuiltinName, sandbox.NativeBinding{Name: "drawDuck", Fn: drawDuckEntry})
}

func drawDuckEntry(dc canvas.Context, subj typedef.Subject, _ typedef.Motion) error {
	Draw(dc, subj.X, subj.Y, subj.Parts, subj.Frame)
	return nil
}
