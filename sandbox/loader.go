// Package sandbox turns script source into isolated, releasable units and
// picks the entry point the animation loop calls every frame.
//
// Each load gets its own goja runtime. The only globals a script sees are
// exports, module and console; the drawing context reaches it as a call
// argument.
package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

const (
	DefaultLoadTimeout = 5 * time.Second
	DefaultFrameBudget = 2 * time.Second
)

// Config controls a Loader. Zero durations select the defaults.
type Config struct {
	LoadTimeout time.Duration
	FrameBudget time.Duration
	Logger      *slog.Logger
	// OnRelease is called once for every unit that gets released.
	OnRelease func(id string)
}

// Loader creates units and tracks the ones still held.
type Loader struct {
	cfg Config
	log *slog.Logger

	mu   sync.Mutex
	seq  uint64
	live map[string]*Unit
}

func NewLoader(cfg Config) *Loader {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
	if cfg.FrameBudget <= 0 {
		cfg.FrameBudget = DefaultFrameBudget
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loader{
		cfg:  cfg,
		log:  cfg.Logger.With("component", "sandbox"),
		live: make(map[string]*Unit),
	}
}

// Load evaluates source as a new unit. Identical sources still produce
// distinct units. The top-level code runs exactly once; it is interrupted
// when ctx ends or the load timeout expires. On failure nothing is left in
// the live table and a *LoadError is returned.
func (l *Loader) Load(ctx context.Context, name, source string) (*Unit, error) {
	u := l.register(name)

	vm := goja.New()
	module := vm.NewObject()
	exports := vm.NewObject()
	_ = module.Set("exports", exports)
	_ = vm.Set("module", module)
	_ = vm.Set("exports", exports)
	_ = vm.Set("console", newConsole(vm, l.log.With("unit", u.id)))

	file := programName(name)
	code, err := toCommonJS(file, source)
	if err != nil {
		l.unregister(u)
		return nil, &LoadError{Name: name, Err: err}
	}
	prog, err := goja.Compile(file, code, true)
	if err != nil {
		l.unregister(u)
		return nil, &LoadError{Name: name, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.LoadTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic during evaluation: %v", r)
			}
		}()
		_, err := vm.RunProgram(prog)
		done <- err
	}()

	select {
	case <-ctx.Done():
		vm.Interrupt("load cancelled")
		l.unregister(u)
		return nil, &LoadError{Name: name, Err: fmt.Errorf("evaluation did not finish: %w", ctx.Err())}
	case err := <-done:
		if err != nil {
			l.unregister(u)
			return nil, &LoadError{Name: name, Err: err}
		}
	}

	u.vm = vm
	u.bridge = newBridge(vm)
	u.bindScript(module.Get("exports"))
	l.log.Debug("unit loaded", "unit", u.id, "bindings", strings.Join(u.names, ","))
	return u, nil
}

// NativeBinding is a Go function exposed by a native unit.
type NativeBinding struct {
	Name string
	Fn   CallableFunc
}

// Native creates a unit whose bindings are Go functions. It is tracked and
// released like a script unit.
func (l *Loader) Native(name string, bindings ...NativeBinding) *Unit {
	u := l.register(name)
	for _, b := range bindings {
		if b.Name == "default" {
			u.def = &nativeCallable{unit: u, name: name, fn: b.Fn}
			continue
		}
		u.expose(b.Name, &nativeCallable{unit: u, name: b.Name, fn: b.Fn})
	}
	return u
}

// Live returns the ids of units that have not been released, sorted.
func (l *Loader) Live() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.live))
	for id := range l.live {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReleaseAll releases every live unit. Used at host teardown.
func (l *Loader) ReleaseAll() {
	l.mu.Lock()
	units := make([]*Unit, 0, len(l.live))
	for _, u := range l.live {
		units = append(units, u)
	}
	l.mu.Unlock()
	for _, u := range units {
		u.Release()
	}
}

func (l *Loader) register(name string) *Unit {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	u := &Unit{
		id:       fmt.Sprintf("unit://%d/%s", l.seq, name),
		name:     name,
		loader:   l,
		budget:   l.cfg.FrameBudget,
		bindings: make(map[string]Callable),
	}
	l.live[u.id] = u
	return u
}

func (l *Loader) unregister(u *Unit) {
	l.mu.Lock()
	delete(l.live, u.id)
	l.mu.Unlock()
}

func newConsole(vm *goja.Runtime, log *slog.Logger) *goja.Object {
	console := vm.NewObject()
	emit := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = formatValue(arg)
			}
			log.Log(context.Background(), level, strings.Join(parts, " "), "source", "console")
			return goja.Undefined()
		}
	}
	_ = console.Set("log", emit(slog.LevelInfo))
	_ = console.Set("info", emit(slog.LevelInfo))
	_ = console.Set("debug", emit(slog.LevelDebug))
	_ = console.Set("warn", emit(slog.LevelWarn))
	_ = console.Set("error", emit(slog.LevelError))
	return console
}

// formatValue renders a script value for logs and failure reports. Error
// objects keep their "Name: message" form.
func formatValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if obj.ClassName() == "Error" {
		return obj.String()
	}
	if _, ok := goja.AssertFunction(obj); ok {
		return obj.String()
	}
	if exported := obj.Export(); exported != nil {
		return fmt.Sprint(exported)
	}
	return obj.String()
}
