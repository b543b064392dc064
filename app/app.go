// Package app is the windowed studio: it pumps animation frames from the
// ebiten loop, maps keys to editor actions and serves API commands.
package app

import (
	"context"
	"image/color"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"duckstudio/anim"
	"duckstudio/api"
	"duckstudio/canvas"
	"duckstudio/sandbox"
	"duckstudio/storage"
	"duckstudio/typedef"
	"duckstudio/workspace"

	"github.com/hajimehoshi/ebiten/v2"
)

var sky = color.RGBA{0x87, 0xce, 0xeb, 0xff}

type Config struct {
	Logger   *slog.Logger
	Settings typedef.Settings
	// Scripts are opened into the workspace at startup.
	Scripts []string
	// ScenePath is a scene document loaded into the library and installed.
	ScenePath string
	// API, when set, has its commands executed between frames.
	API       *api.API
	Clipboard *Clipboard
	// Store backs local edits and the last scene; nil opens the data
	// directory's store.
	Store storage.Store
}

// Game implements ebiten.Game for the studio.
type Game struct {
	ctx      context.Context
	log      *slog.Logger
	settings typedef.Settings

	surface *canvas.Canvas
	queue   *anim.FrameQueue
	loader  *sandbox.Loader
	session *anim.Session

	store     *storage.Tolerant
	workspace *workspace.Workspace
	stage     *workspace.Stage
	library   workspace.Library
	sceneIdx  int
	pasted    int

	input   *InputManager
	keys    <-chan KeyEvent
	toasts  *ToastManager
	libview *LibraryPanel
	text   *TextRenderer
	clip   *Clipboard
	api    *api.API

	frame     *ebiten.Image
	showHelp  bool
	lastPanic *PanicInfo
	quit      atomic.Bool
}

// New builds the studio. Startup files that fail to open are reported as
// toasts, not errors.
func New(ctx context.Context, cfg Config) *Game {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clipboard == nil {
		cfg.Clipboard = &Clipboard{}
	}
	if cfg.Store == nil {
		cfg.Store = storage.OpenKV(storage.DataFile(storage.LocalStoreFile))
	}
	cfg.Settings.Normalize()

	g := &Game{
		ctx:      ctx,
		log:      cfg.Logger.With("component", "app"),
		settings: cfg.Settings,
		surface:  canvas.New(canvas.DefaultWidth, canvas.DefaultHeight),
		queue:    anim.NewFrameQueue(),
		input:    NewInputManager(),
		toasts:   NewToastManager(),
		libview:  NewLibraryPanel(cfg.Settings.ShowLibrary),
		text:     NewTextRenderer(nil),
		clip:     cfg.Clipboard,
		api:      cfg.API,
		showHelp: cfg.Settings.ShowHelp,
	}
	g.keys = g.input.Subscribe()
	g.store = storage.NewTolerant(cfg.Store, cfg.Logger)
	g.workspace = workspace.New(g.store, cfg.Settings.RestoreLocalEdits, cfg.Logger)
	g.stage = workspace.NewStage(g.store, cfg.Logger)
	g.loader = sandbox.NewLoader(sandbox.Config{
		LoadTimeout: cfg.Settings.LoadTimeout(),
		FrameBudget: cfg.Settings.FrameBudget(),
		Logger:      cfg.Logger,
	})
	g.session = anim.NewSession(anim.Config{
		Loader:    g.loader,
		Surface:   g.surface,
		Scheduler: g.queue,
		Scene:     g.stage.Scene,
		Reporter:  anim.ReporterFunc(g.reportFailure),
		Logger:    cfg.Logger,
	})

	for _, path := range cfg.Scripts {
		if _, err := g.workspace.OpenPath(path); err != nil {
			g.notifyError("Could not open script", err)
		}
	}
	if cfg.ScenePath != "" {
		if doc, err := g.library.LoadFile(cfg.ScenePath); err != nil {
			g.notifyError("Could not load scene", err)
		} else {
			g.stage.Install(doc.Scene)
		}
	}
	return g
}

func (g *Game) reportFailure(err error) {
	g.notifyError("Run failed", err)
}

// Update runs once per tick: input, API commands, dropped files, then one
// animation frame.
func (g *Game) Update() error {
	// Handle panic recovery for the Update loop
	defer g.handlePanic()

	g.input.Update()
	g.toasts.Update()
	if i := g.libview.Update(g.library.Len()); i >= 0 {
		g.selectScene(i)
	}
	g.handleDroppedFiles()
	g.handleKeys()
	g.drainCommands()
	if g.quit.Load() {
		return ebiten.Termination
	}
	g.queue.Flush()
	return nil
}

func (g *Game) handleKeys() {
	for {
		select {
		case ev := <-g.keys:
			if !ev.Pressed {
				continue
			}
			if a, ok := actionFor(g.settings.Keybinds, ev.Key); ok {
				a.run(g, ev)
			}
		default:
			return
		}
	}
}

// drainCommands executes every queued API command on this goroutine.
func (g *Game) drainCommands() {
	if g.api == nil {
		return
	}
	for {
		select {
		case cmd := <-g.api.Commands():
			cmd.Execute(g)
		default:
			return
		}
	}
}

func (g *Game) handleDroppedFiles() {
	dropped := ebiten.DroppedFiles()
	if dropped == nil {
		return
	}
	entries, err := fs.ReadDir(dropped, ".")
	if err != nil {
		g.notifyError("Could not read dropped files", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := fs.ReadFile(dropped, e.Name())
		if err != nil {
			g.notifyError("Could not read "+e.Name(), err)
			continue
		}
		g.openDropped(e.Name(), data)
	}
}

// openDropped routes a dropped file by extension: scripts go to the
// workspace, scene documents to the library and the stage.
func (g *Game) openDropped(name string, data []byte) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".js", ".mjs":
		g.workspace.Add(name, string(data))
		g.workspace.Select(len(g.workspace.Files()) - 1)
		g.notify("Opened " + name)
	case ".json", ".lz4":
		doc, err := g.library.LoadBytes(name, data)
		if err != nil {
			g.notifyError("Could not load scene", err)
			return
		}
		g.sceneIdx = 0
		g.libview.Reveal(0)
		g.stage.Install(doc.Scene)
		g.notify("Loaded scene " + name)
	default:
		g.notify("Ignored " + name + ": not a script or scene document")
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	// Handle panic recovery for the Draw loop
	defer g.handlePanic()

	screen.Fill(sky)
	g.drawFrame(screen)
	g.drawHUD(screen)
	if g.showHelp {
		g.drawHelp(screen)
	}
	g.libview.Draw(screen, g.text, &g.library, g.sceneIdx)
	g.toasts.Draw(screen, g.text)
}

// drawFrame uploads the canvas pixels and draws them 1:1.
func (g *Game) drawFrame(screen *ebiten.Image) {
	img := g.surface.Image()
	b := img.Bounds()
	if g.frame == nil || g.frame.Bounds().Dx() != b.Dx() || g.frame.Bounds().Dy() != b.Dy() {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(b.Dx(), b.Dy())
	}
	g.frame.WritePixels(img.Pix)
	screen.DrawImage(g.frame, nil)
}

// Layout sizes the screen in device pixels so the canvas backing store maps
// 1:1 onto it.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	dpr := ebiten.Monitor().DeviceScaleFactor()
	g.surface.SetDisplay(outsideWidth, outsideHeight, dpr)
	w, h := int(float64(outsideWidth)*dpr), int(float64(outsideHeight)*dpr)
	g.toasts.SetScreenWidth(w)
	g.libview.SetScreenSize(w, h)
	return w, h
}

// RequestQuit ends the game loop on the next tick. Safe from any goroutine.
func (g *Game) RequestQuit() { g.quit.Store(true) }

// Close stops the run, autosaves the active file and releases every unit.
func (g *Game) Close() {
	g.session.Stop()
	if g.workspace.Autosave() {
		g.log.Info("autosaved", "file", g.workspace.Active().Name)
	}
	g.loader.ReleaseAll()
}

func (g *Game) notify(msg string) {
	g.log.Info(msg)
	g.toasts.New().Text(msg).Show()
}

func (g *Game) notifyError(msg string, err error) {
	g.log.Warn(msg, "error", err)
	g.toasts.New().Error().Text(msg + ": " + err.Error()).AutoClose(6 * time.Second).Show()
}
