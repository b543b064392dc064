package sandbox

import (
	"math"

	"github.com/dop251/goja"

	"duckstudio/canvas"
	"duckstudio/typedef"
)

// bridge is the ctx object scripts draw through. It forwards to whatever
// canvas.Context the current call received and exposes nothing else.
type bridge struct {
	vm  *goja.Runtime
	dc  canvas.Context
	obj *goja.Object
}

func newBridge(vm *goja.Runtime) *bridge {
	b := &bridge{vm: vm, obj: vm.NewObject()}

	b.method("save", 0, func([]float64) { b.dc.Save() })
	b.method("restore", 0, func([]float64) { b.dc.Restore() })
	b.method("translate", 2, func(a []float64) { b.dc.Translate(a[0], a[1]) })
	b.method("scale", 2, func(a []float64) { b.dc.Scale(a[0], a[1]) })
	b.method("rotate", 1, func(a []float64) { b.dc.Rotate(a[0]) })
	b.method("beginPath", 0, func([]float64) { b.dc.BeginPath() })
	b.method("closePath", 0, func([]float64) { b.dc.ClosePath() })
	b.method("moveTo", 2, func(a []float64) { b.dc.MoveTo(a[0], a[1]) })
	b.method("lineTo", 2, func(a []float64) { b.dc.LineTo(a[0], a[1]) })
	b.method("quadraticCurveTo", 4, func(a []float64) { b.dc.QuadraticCurveTo(a[0], a[1], a[2], a[3]) })
	b.method("bezierCurveTo", 6, func(a []float64) { b.dc.BezierCurveTo(a[0], a[1], a[2], a[3], a[4], a[5]) })
	b.method("rect", 4, func(a []float64) { b.dc.Rect(a[0], a[1], a[2], a[3]) })
	b.method("fill", 0, func([]float64) { b.dc.Fill() })
	b.method("stroke", 0, func([]float64) { b.dc.Stroke() })
	b.method("clip", 0, func([]float64) { b.dc.Clip() })
	b.method("fillRect", 4, func(a []float64) { b.dc.FillRect(a[0], a[1], a[2], a[3]) })
	b.method("clearRect", 4, func(a []float64) { b.dc.ClearRect(a[0], a[1], a[2], a[3]) })

	_ = b.obj.Set("arc", func(call goja.FunctionCall) goja.Value {
		a, ok := numbers(call, 5)
		if !ok {
			return goja.Undefined()
		}
		b.dc.Arc(a[0], a[1], a[2], a[3], a[4], call.Argument(5).ToBoolean())
		return goja.Undefined()
	})

	b.property("fillStyle",
		func() goja.Value { return vm.ToValue(b.dc.FillStyle()) },
		func(v goja.Value) { _ = b.dc.SetFillStyle(v.String()) })
	b.property("strokeStyle",
		func() goja.Value { return vm.ToValue(b.dc.StrokeStyle()) },
		func(v goja.Value) { _ = b.dc.SetStrokeStyle(v.String()) })
	b.property("lineWidth",
		func() goja.Value { return vm.ToValue(b.dc.LineWidth()) },
		func(v goja.Value) { b.dc.SetLineWidth(v.ToFloat()) })
	b.property("lineCap",
		func() goja.Value { return vm.ToValue(b.dc.LineCap()) },
		func(v goja.Value) { _ = b.dc.SetLineCap(v.String()) })
	b.property("globalAlpha",
		func() goja.Value { return vm.ToValue(b.dc.GlobalAlpha()) },
		func(v goja.Value) { b.dc.SetGlobalAlpha(v.ToFloat()) })

	return b
}

// numbers converts the first n arguments. Like the browser canvas, a call
// with a non-finite argument is ignored.
func numbers(call goja.FunctionCall, n int) ([]float64, bool) {
	a := make([]float64, n)
	for i := range a {
		a[i] = call.Argument(i).ToFloat()
		if math.IsNaN(a[i]) || math.IsInf(a[i], 0) {
			return nil, false
		}
	}
	return a, true
}

func (b *bridge) method(name string, arity int, fn func([]float64)) {
	_ = b.obj.Set(name, func(call goja.FunctionCall) goja.Value {
		if a, ok := numbers(call, arity); ok {
			fn(a)
		}
		return goja.Undefined()
	})
}

func (b *bridge) property(name string, get func() goja.Value, set func(goja.Value)) {
	getter := b.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() })
	setter := b.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		set(call.Argument(0))
		return goja.Undefined()
	})
	_ = b.obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

// subjectValue builds {x, y, frame, parts}. parts is a fresh plain-object
// copy of the scene, so scripts cannot modify the live one.
func subjectValue(vm *goja.Runtime, subj typedef.Subject) goja.Value {
	obj := vm.NewObject()
	_ = obj.Set("x", subj.X)
	_ = obj.Set("y", subj.Y)
	_ = obj.Set("frame", subj.Frame)

	parts := vm.NewObject()
	if subj.Parts != nil {
		for _, k := range subj.Parts.Keys() {
			p, _ := subj.Parts.Get(k)
			po := vm.NewObject()
			_ = po.Set("name", p.Name)
			_ = po.Set("x", p.X)
			_ = po.Set("y", p.Y)
			_ = po.Set("scale", p.Scale)
			_ = po.Set("rotation", p.Rotation)
			_ = po.Set("zIndex", p.ZIndex)
			if p.Radius != 0 {
				_ = po.Set("radius", p.Radius)
			}
			if p.Color != "" {
				_ = po.Set("color", p.Color)
			}
			if p.BaseRotation != 0 {
				_ = po.Set("baseRotation", p.BaseRotation)
			}
			_ = parts.Set(string(k), po)
		}
	}
	_ = obj.Set("parts", parts)
	return obj
}
