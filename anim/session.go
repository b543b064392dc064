// Package anim drives a resolved entry point once per display refresh and
// contains its failures.
package anim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"duckstudio/canvas"
	"duckstudio/sandbox"
	"duckstudio/scene"
	"duckstudio/typedef"
)

type State int

const (
	Idle State = iota
	Compiling
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Compiling:
		return "compiling"
	case Running:
		return "running"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Surface is the drawing surface a session paints on.
type Surface interface {
	Context() canvas.Context
	// Adjust matches the backing resolution to the displayed size and
	// resets drawing state.
	Adjust()
	Clear()
	DisplaySize() (w, h float64)
}

// Reporter is told about every failure that ends or prevents a run.
type Reporter interface {
	Failure(err error)
}

type ReporterFunc func(err error)

func (f ReporterFunc) Failure(err error) { f(err) }

// FrameError is a failure of the entry point during a frame, either
// thrown synchronously or from a rejected promise.
type FrameError struct {
	Unit  string
	Frame int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s failed on frame %d: %v", e.Unit, e.Frame, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// MotionAt returns the animation phase signals for a frame. They depend on
// the counter alone.
func MotionAt(frame int) typedef.Motion {
	c := float64(frame)
	return typedef.Motion{
		Flap:        math.Sin(c*0.12) * 0.8,
		HeadTilt:    math.Sin(c*0.06) * 0.12,
		TailTilt:    math.Sin(c*0.04) * 0.06,
		FeatherVibe: math.Sin(c*0.09) * 0.08,
	}
}

type Config struct {
	Loader    *sandbox.Loader
	Surface   Surface
	Scheduler Scheduler
	// Scene returns the live scene handed to entry points each frame.
	Scene    func() *scene.Scene
	Reporter Reporter
	Logger   *slog.Logger
}

// Session owns the active unit, its entry point, the frame clock and the
// scheduled frame. At most one run is active. A Session is not safe for
// concurrent use; every method must be called from the goroutine that
// flushes the scheduler.
type Session struct {
	loader   *sandbox.Loader
	surface  Surface
	sched    Scheduler
	scene    func() *scene.Scene
	reporter Reporter
	log      *slog.Logger

	state     State
	unit      *sandbox.Unit
	entry     sandbox.Callable
	clock     int
	handle    FrameHandle
	scheduled bool
	// gen changes on every Stop; frames and rejections from an older run
	// compare it and bail out.
	gen     uint64
	lastErr error
}

func NewSession(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Scene == nil {
		cfg.Scene = func() *scene.Scene { return nil }
	}
	return &Session{
		loader:   cfg.Loader,
		surface:  cfg.Surface,
		sched:    cfg.Scheduler,
		scene:    cfg.Scene,
		reporter: cfg.Reporter,
		log:      cfg.Logger.With("component", "anim"),
	}
}

func (s *Session) State() State { return s.state }

// Frame is the frame clock; 0 while idle.
func (s *Session) Frame() int { return s.clock }

// UnitName returns the name of the running unit, or "".
func (s *Session) UnitName() string {
	if s.unit == nil {
		return ""
	}
	return s.unit.Name()
}

// LastError returns the failure that ended the most recent run, if any.
func (s *Session) LastError() error { return s.lastErr }

// Status is a snapshot of the session for display and the API.
type Status struct {
	State     string `json:"state"`
	Frame     int    `json:"frame"`
	Unit      string `json:"unit,omitempty"`
	LastError string `json:"lastError,omitempty"`
}

func (s *Session) Status() Status {
	st := Status{State: s.state.String(), Frame: s.clock, Unit: s.UnitName()}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Run stops the current run, loads source as a new unit and starts it.
// Load failures and units without an entry point leave the session idle,
// are reported and returned.
func (s *Session) Run(ctx context.Context, name, source string) error {
	s.Stop()
	s.state = Compiling
	s.log.Info("compiling", "name", name, "bytes", len(source))

	u, err := s.loader.Load(ctx, name, source)
	if err != nil {
		s.state = Idle
		s.report(err)
		return err
	}
	return s.RunUnit(u)
}

// RunUnit resolves u's entry point and starts it. The session takes
// ownership of u either way.
func (s *Session) RunUnit(u *sandbox.Unit) error {
	return s.Start(u, sandbox.Resolve(u))
}

// Start makes u and entry the active run, stopping any previous one first,
// and schedules the first frame. A nil entry releases u and reports
// sandbox.ErrNoEntryPoint.
func (s *Session) Start(u *sandbox.Unit, entry sandbox.Callable) error {
	if s.unit == u {
		// restarting the same unit must not release it
		s.unit = nil
	}
	s.Stop()

	if entry == nil {
		err := fmt.Errorf("%s: %w", u.Name(), sandbox.ErrNoEntryPoint)
		u.Release()
		s.report(err)
		return err
	}

	s.unit = u
	s.entry = entry
	s.clock = 0
	s.lastErr = nil
	s.state = Running
	s.log.Info("running", "unit", u.ID())
	s.schedule(s.gen)
	return nil
}

// Stop cancels the scheduled frame, releases the unit and resets the frame
// clock. It is safe to call in any state and any number of times.
func (s *Session) Stop() {
	s.gen++
	if s.scheduled {
		s.sched.CancelFrame(s.handle)
		s.scheduled = false
	}
	if s.state == Running {
		s.log.Info("stopped", "unit", s.UnitName(), "frame", s.clock)
	}
	s.state = Idle
	s.entry = nil
	s.clock = 0
	if s.unit != nil {
		s.unit.Release()
		s.unit = nil
	}
}

func (s *Session) schedule(gen uint64) {
	s.handle = s.sched.RequestFrame(func() { s.frame(gen) })
	s.scheduled = true
}

func (s *Session) frame(gen uint64) {
	if gen != s.gen || s.state != Running {
		return
	}
	s.scheduled = false
	s.clock++

	s.surface.Adjust()
	s.surface.Clear()
	w, h := s.surface.DisplaySize()
	subj := typedef.Subject{X: w / 2, Y: h / 2, Frame: s.clock, Parts: s.scene()}

	err := s.entry.Invoke(s.surface.Context(), subj, MotionAt(s.clock), func(err error) {
		s.fail(gen, err)
	})
	if err != nil {
		s.fail(gen, err)
		return
	}
	// a rejection delivered during Invoke has already stopped the run
	if gen != s.gen || s.state != Running {
		return
	}
	s.schedule(gen)
}

func (s *Session) fail(gen uint64, err error) {
	if gen != s.gen {
		s.log.Debug("ignoring failure from a finished run", "error", err)
		return
	}
	fe := &FrameError{Unit: s.UnitName(), Frame: s.clock, Err: err}
	s.Stop()
	s.report(fe)
}

func (s *Session) report(err error) {
	s.lastErr = err
	s.log.Error("run failed", "error", err)
	if s.reporter != nil {
		s.reporter.Failure(err)
	}
}
