package sandbox

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"

	"duckstudio/canvas"
	"duckstudio/typedef"
)

// Callable is an entry point the animation loop can invoke. onReject is
// called if the call started asynchronous work that later fails; it may be
// called before Invoke returns.
type Callable interface {
	Invoke(dc canvas.Context, subj typedef.Subject, m typedef.Motion, onReject func(error)) error
}

// CallableFunc adapts a Go function to Callable. It never rejects
// asynchronously.
type CallableFunc func(dc canvas.Context, subj typedef.Subject, m typedef.Motion) error

func (f CallableFunc) Invoke(dc canvas.Context, subj typedef.Subject, m typedef.Motion, _ func(error)) error {
	return f(dc, subj, m)
}

// Unit is one loaded instance of a script or native module.
type Unit struct {
	id     string
	name   string
	loader *Loader
	budget time.Duration

	vm     *goja.Runtime
	bridge *bridge

	names    []string
	bindings map[string]Callable
	def      Callable

	released atomic.Bool
}

// ID is the unit's unique address; it stays in the loader's live table
// until Release.
func (u *Unit) ID() string { return u.id }

func (u *Unit) Name() string { return u.name }

// Names returns every exposed binding name in exposure order, callable or
// not. The default export is not included.
func (u *Unit) Names() []string {
	return append([]string(nil), u.names...)
}

// Callable returns the binding called name if it exists and is callable.
func (u *Unit) Callable(name string) (Callable, bool) {
	c, ok := u.bindings[name]
	return c, ok && c != nil
}

// Default returns the default export if it is callable.
func (u *Unit) Default() (Callable, bool) {
	return u.def, u.def != nil
}

// Release frees the unit's address. Repeated calls do nothing. Callables of
// a released unit return ErrReleased; work the script already scheduled is
// not cancelled.
func (u *Unit) Release() {
	if !u.released.CompareAndSwap(false, true) {
		return
	}
	u.loader.unregister(u)
	u.loader.log.Debug("unit released", "unit", u.id)
	if hook := u.loader.cfg.OnRelease; hook != nil {
		hook(u.id)
	}
}

func (u *Unit) Released() bool { return u.released.Load() }

func (u *Unit) expose(name string, c Callable) {
	if _, seen := u.bindings[name]; !seen {
		u.names = append(u.names, name)
	}
	u.bindings[name] = c
}

func (u *Unit) bindScript(exports goja.Value) {
	obj, ok := exports.(*goja.Object)
	if !ok {
		return
	}
	if fn, ok := goja.AssertFunction(obj); ok {
		u.def = &scriptCallable{unit: u, name: u.name, fn: fn}
	}
	keys := obj.Keys()
	// compiled ES modules expose their namespace, which enumerates by name
	if flag := obj.Get("__esModule"); flag != nil && flag.ToBoolean() {
		sort.Strings(keys)
	}
	for _, key := range keys {
		v := obj.Get(key)
		var c Callable
		if fn, ok := goja.AssertFunction(v); ok {
			c = &scriptCallable{unit: u, name: key, fn: fn}
		}
		if key == "default" {
			if c != nil {
				u.def = c
			}
			continue
		}
		u.expose(key, c)
	}
}

type nativeCallable struct {
	unit *Unit
	name string
	fn   CallableFunc
}

func (c *nativeCallable) Invoke(dc canvas.Context, subj typedef.Subject, m typedef.Motion, _ func(error)) (err error) {
	if c.unit.Released() {
		return ErrReleased
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", c.name, r)
		}
	}()
	return c.fn(dc, subj, m)
}

type scriptCallable struct {
	unit *Unit
	name string
	fn   goja.Callable
}

// Invoke calls the script function with
// (ctx, {x, y, frame, parts}, flap, headTilt, tailTilt, featherVibe).
// A returned promise gets a rejection handler that forwards to onReject.
func (c *scriptCallable) Invoke(dc canvas.Context, subj typedef.Subject, m typedef.Motion, onReject func(error)) (err error) {
	u := c.unit
	if u.Released() {
		return ErrReleased
	}
	vm := u.vm

	if u.budget > 0 {
		var mu sync.Mutex
		finished := false
		timer := time.AfterFunc(u.budget, func() {
			mu.Lock()
			defer mu.Unlock()
			if !finished {
				vm.Interrupt(ErrBudgetExceeded)
			}
		})
		defer func() {
			timer.Stop()
			mu.Lock()
			finished = true
			mu.Unlock()
			vm.ClearInterrupt()
		}()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", c.name, r)
		}
	}()

	u.bridge.dc = dc
	ret, err := c.fn(goja.Undefined(),
		u.bridge.obj,
		subjectValue(vm, subj),
		vm.ToValue(m.Flap),
		vm.ToValue(m.HeadTilt),
		vm.ToValue(m.TailTilt),
		vm.ToValue(m.FeatherVibe),
	)
	if err != nil {
		return c.wrap(err)
	}

	if onReject != nil {
		c.watchPromise(vm, ret, onReject)
	}
	return nil
}

func (c *scriptCallable) wrap(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if reason, ok := interrupted.Value().(error); ok {
			return fmt.Errorf("%s: %w", c.name, reason)
		}
	}
	return fmt.Errorf("%s: %w", c.name, err)
}

func (c *scriptCallable) watchPromise(vm *goja.Runtime, ret goja.Value, onReject func(error)) {
	obj, ok := ret.(*goja.Object)
	if !ok {
		return
	}
	if _, ok := obj.Export().(*goja.Promise); !ok {
		return
	}
	then, ok := goja.AssertFunction(obj.Get("then"))
	if !ok {
		return
	}
	handler := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		onReject(fmt.Errorf("%s: %w", c.name, &RejectionError{Reason: formatValue(call.Argument(0))}))
		return goja.Undefined()
	})
	if _, err := then(obj, goja.Undefined(), handler); err != nil {
		onReject(c.wrap(err))
	}
}
