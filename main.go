package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"duckstudio/api"
	"duckstudio/app"
	"duckstudio/headless"
	"duckstudio/logs"
	"duckstudio/storage"
	"duckstudio/typedef"

	// hideconsole
	_ "github.com/ebitengine/hideconsole"
	"github.com/hajimehoshi/ebiten/v2"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	// Parse command line flags
	var (
		headlessMode bool
		scripts      stringList
		scenePath    string
		frames       int
		out          string
		apiAddr      string
		logLevel     string
		dataDir      string
		width        int
		height       int
	)
	flag.BoolVar(&headlessMode, "headless", false, "Render without a window and exit")
	flag.Var(&scripts, "script", "Script to open (repeatable)")
	flag.StringVar(&scenePath, "scene", "", "Scene document (.json or .lz4) to load")
	flag.IntVar(&frames, "frames", 60, "Frames to render per script in headless mode")
	flag.StringVar(&out, "out", "duck.png", "PNG written in headless mode")
	flag.StringVar(&apiAddr, "api", "", `WebSocket API address; empty uses settings, "off" disables`)
	flag.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	flag.StringVar(&dataDir, "data-dir", "", "Data directory (default from DUCKSTUDIO_DATA_DIR or the platform)")
	flag.IntVar(&width, "width", 640, "Canvas width in headless mode")
	flag.IntVar(&height, "height", 360, "Canvas height in headless mode")
	flag.Parse()

	// Positional arguments are scripts, so dropping files on the binary opens them
	scripts = append(scripts, flag.Args()...)

	if dataDir != "" {
		storage.SetDataDir(dataDir)
	}
	if err := logs.SetLevel(logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, closeLog := logs.New(logs.Options{FilePath: storage.DataFile("duckstudio.log")})
	defer closeLog.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings := app.LoadSettings(logger)

	if headlessMode {
		_, err := headless.Run(ctx, headless.Options{
			Scripts:     scripts,
			ScenePath:   scenePath,
			Frames:      frames,
			Out:         out,
			Width:       width,
			Height:      height,
			LoadTimeout: settings.LoadTimeout(),
			FrameBudget: settings.FrameBudget(),
			Logger:      logger,
		})
		if err != nil {
			logger.Error("headless render failed", "error", err)
			closeLog.Close()
			os.Exit(1)
		}
		return
	}

	lockPath := storage.DataFile(".duckstudio.lock")
	lockOwned, cleanupLock, err := prepareLock(lockPath)
	if err != nil {
		logger.Error("lock file", "path", lockPath, "error", err)
		os.Exit(1)
	}
	defer cleanupLock()
	if !lockOwned {
		logger.Warn("another studio may be running; local storage is shared", "lock", lockPath)
	}

	if err := runWithGUI(ctx, logger, settings, scripts, scenePath, apiAddr); err != nil {
		logger.Error("studio exited", "error", err)
	}
}

// prepareLock creates the lock file exclusively. An existing lock is
// reported as not owned and left in place.
func prepareLock(lockPath string) (bool, func(), error) {
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, func() {}, nil
		}
		return false, nil, err
	}
	fmt.Fprintf(lockFile, "%d\n", os.Getpid())

	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(func() {
			_ = lockFile.Close()
			os.Remove(lockPath)
		})
	}
	return true, cleanup, nil
}

func runWithGUI(ctx context.Context, logger *slog.Logger, settings typedef.Settings, scripts []string, scenePath, apiAddr string) error {
	switch apiAddr {
	case "":
		apiAddr = settings.APIAddr
	case "off":
		apiAddr = ""
	}

	var hub *api.API
	if apiAddr != "" {
		hub = api.NewAPI(api.Options{Logger: logger, StatusInterval: time.Second})
		go func() {
			if err := hub.Serve(ctx, apiAddr); err != nil {
				logger.Error("api server stopped", "error", err)
			}
		}()
	}

	game := app.New(ctx, app.Config{
		Logger:    logger,
		Settings:  settings,
		Scripts:   scripts,
		ScenePath: scenePath,
		API:       hub,
		Clipboard: &app.Clipboard{},
	})
	defer game.Close()

	go func() {
		<-ctx.Done()
		logger.Info("received shutdown signal")
		game.RequestQuit()
	}()

	ebiten.SetWindowTitle("Duck Studio")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(960, 600)

	return ebiten.RunGameWithOptions(game, &ebiten.RunGameOptions{
		X11ClassName:    "Duck Studio",
		X11InstanceName: "duckstudio",
	})
}
