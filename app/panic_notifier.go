package app

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// PanicInfo contains information about a recovered panic
type PanicInfo struct {
	Error      interface{}
	StackTrace []byte
	Time       time.Time
	GoVersion  string
	OS         string
	Arch       string
}

func (p *PanicInfo) String() string {
	return fmt.Sprintf("panic: %v\n%s %s/%s at %s\n\n%s",
		p.Error, p.GoVersion, p.OS, p.Arch, p.Time.Format(time.RFC3339), p.StackTrace)
}

// handlePanic recovers a panic in the game loop, logs it and shows a toast
// offering to copy the stack trace. The studio keeps running.
// It must be deferred directly.
func (g *Game) handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	info := &PanicInfo{
		Error:      r,
		StackTrace: debug.Stack(),
		Time:       time.Now(),
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
	g.lastPanic = info
	g.log.Error("recovered panic", "panic", r, "stack", string(info.StackTrace))

	g.toasts.New().
		Error().
		Text(fmt.Sprintf("Internal error: %v", r)).
		Button("Copy stack trace", func() {
			if err := g.clip.WriteText(info.String()); err != nil {
				g.notifyError("Copy failed", err)
				return
			}
			g.notify("Stack trace copied to clipboard")
		}).
		AutoClose(10 * time.Second).
		Show()
}
