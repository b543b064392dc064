// Package headless renders scripts to PNG files without a window.
package headless

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"duckstudio/anim"
	"duckstudio/canvas"
	"duckstudio/duck"
	"duckstudio/sandbox"
	"duckstudio/scene"
)

type Options struct {
	// Scripts are rendered in order; empty renders the built-in duck.
	Scripts []string
	// ScenePath is a JSON or .lz4 scene document; empty uses the default scene.
	ScenePath string
	Frames    int
	// Out is the PNG path. With several scripts each result gets the
	// script's base name appended.
	Out           string
	Width, Height int
	DPR           float64
	LoadTimeout   time.Duration
	FrameBudget   time.Duration
	Logger        *slog.Logger
}

// Result describes one rendered script.
type Result struct {
	Script string
	Frames int
	Out    string
	Err    error
}

// Run renders every script for opts.Frames frames and writes the last
// painted frame of each. A script that fails still gets its PNG; the
// failures are joined into the returned error.
func Run(ctx context.Context, opts Options) ([]Result, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Frames <= 0 {
		opts.Frames = 1
	}
	if opts.Out == "" {
		opts.Out = "duck.png"
	}
	log := opts.Logger.With("component", "headless")

	sc := scene.Default()
	if opts.ScenePath != "" {
		loaded, err := scene.LoadFile(opts.ScenePath)
		if err != nil {
			return nil, err
		}
		sc = loaded
	}

	surface := canvas.New(opts.Width, opts.Height)
	if opts.DPR > 0 {
		surface.SetDisplay(opts.Width, opts.Height, opts.DPR)
	}
	queue := anim.NewFrameQueue()
	loader := sandbox.NewLoader(sandbox.Config{
		LoadTimeout: opts.LoadTimeout,
		FrameBudget: opts.FrameBudget,
		Logger:      opts.Logger,
	})
	defer loader.ReleaseAll()

	var failure error
	session := anim.NewSession(anim.Config{
		Loader:    loader,
		Surface:   surface,
		Scheduler: queue,
		Scene:     func() *scene.Scene { return sc },
		Reporter:  anim.ReporterFunc(func(err error) { failure = err }),
		Logger:    opts.Logger,
	})

	scripts := opts.Scripts
	if len(scripts) == 0 {
		scripts = []string{duck.BuiltinName}
	}

	var results []Result
	var errs []error
	for _, script := range scripts {
		failure = nil
		res := Result{Script: script, Out: outPath(opts.Out, script, len(scripts))}

		if err := start(ctx, session, loader, script); err != nil {
			res.Err = err
		} else {
			for res.Frames < opts.Frames && session.State() == anim.Running {
				if err := ctx.Err(); err != nil {
					session.Stop()
					return results, err
				}
				queue.Flush()
				res.Frames++
			}
			res.Err = failure
		}
		session.Stop()

		if err := surface.SavePNG(res.Out); err != nil {
			res.Err = errors.Join(res.Err, err)
		}
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", script, res.Err))
		}
		log.Info("rendered", "script", script, "frames", res.Frames, "out", res.Out, "error", res.Err)
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func start(ctx context.Context, s *anim.Session, l *sandbox.Loader, script string) error {
	if script == duck.BuiltinName {
		return s.RunUnit(duck.Builtin(l))
	}
	src, err := os.ReadFile(script)
	if err != nil {
		return err
	}
	return s.Run(ctx, filepath.Base(script), string(src))
}

func outPath(out, script string, count int) string {
	if count == 1 {
		return out
	}
	ext := filepath.Ext(out)
	base := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script))
	base = strings.NewReplacer(":", "_", string(filepath.Separator), "_").Replace(base)
	return strings.TrimSuffix(out, ext) + "-" + base + ext
}
