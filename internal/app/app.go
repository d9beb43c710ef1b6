package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AndrewNeo/nessharp/internal/cartridge"
	"github.com/AndrewNeo/nessharp/internal/debug"
	"github.com/AndrewNeo/nessharp/internal/graphics"
	"github.com/AndrewNeo/nessharp/internal/nes"
	"github.com/AndrewNeo/nessharp/internal/ppu"
)

// FrameRate is the NTSC frame rate the interactive backends are paced to.
const FrameRate = 60.0988

// frameInterval is one NTSC frame of wall-clock time, truncated to the
// nanosecond.
var frameInterval = func() time.Duration {
	rate := FrameRate
	return time.Duration(float64(time.Second) / rate)
}()

var (
	ErrNotInitialized = errors.New("application not initialized")
	ErrNoROM          = errors.New("no ROM loaded")
)

// Application owns a console and the backend presenting it.
type Application struct {
	config *Config
	log    *slog.Logger
	output io.Writer
	input  io.Reader

	backend graphics.Backend
	window  graphics.Window

	console   *nes.Console
	cartridge *cartridge.Cartridge
	romPath   string

	tracer    *debug.Tracer
	traceFile *os.File
	dumper    *debug.FrameDumper

	pads     pads
	requests requests
	status   debug.TestStatus

	mu     sync.Mutex
	cancel context.CancelFunc

	initialized bool
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// Option configures an Application.
type Option func(*Application)

// WithLogger sets the logger used by the application and the console.
func WithLogger(log *slog.Logger) Option {
	return func(app *Application) { app.log = log }
}

// WithTerminal sets the streams the terminal backend draws to and reads
// keys from, and where user messages are printed.
func WithTerminal(in io.Reader, out io.Writer) Option {
	return func(app *Application) { app.input, app.output = in, out }
}

// NewApplication creates an application for config. The graphics backend
// is initialized immediately; an Ebitengine backend that cannot start
// falls back to headless.
func NewApplication(config *Config, opts ...Option) (*Application, error) {
	if config == nil {
		config = NewConfig()
	}
	app := &Application{
		config: config,
		log:    slog.Default(),
		output: os.Stdout,
		input:  os.Stdin,
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.config.validate(); err != nil {
		return nil, &ApplicationError{Component: "config", Operation: "validate", Err: err}
	}
	if err := app.initializeGraphicsBackend(); err != nil {
		return nil, &ApplicationError{Component: "graphics", Operation: "initialize", Err: err}
	}
	if dir := app.config.Debug.FrameDumpDir; dir != "" {
		app.dumper = debug.NewFrameDumper(dir)
		app.dumper.SetDumpInterval(app.config.Debug.FrameDumpInterval)
		app.dumper.SetMaxDumps(app.config.Debug.FrameDumpLimit)
	}

	app.initialized = true
	return app, nil
}

// initializeGraphicsBackend creates the backend and its window.
func (app *Application) initializeGraphicsBackend() error {
	backendType, err := app.config.BackendType()
	if err != nil {
		return err
	}
	graphicsConfig, err := app.config.GraphicsConfig()
	if err != nil {
		return err
	}
	graphicsConfig.Logger = app.log
	if backendType == graphics.BackendTerminal {
		graphicsConfig.Input, graphicsConfig.Output = app.input, app.output
	}

	if app.backend, err = graphics.CreateBackend(backendType); err != nil {
		return err
	}
	if err := app.backend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return err
		}
		app.log.Warn("ebitengine backend unavailable, falling back to headless", "err", err)
		app.backend = graphics.NewHeadlessBackend()
		if err := app.backend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
		}
	}

	app.window, err = app.backend.CreateWindow(graphicsConfig.WindowTitle,
		graphicsConfig.WindowWidth, graphicsConfig.WindowHeight)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	app.log.Debug("graphics backend ready", "backend", app.backend.GetName())
	return nil
}

// LoadROM loads a ROM file and builds a console around it.
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return ErrNotInitialized
	}

	cart, err := cartridge.LoadFromFile(romPath, cartridge.WithLogger(app.log))
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	opts := []nes.Option{
		nes.WithLogger(app.log),
		nes.WithStrictOpcodes(app.config.Emulation.StrictOpcodes),
	}
	entry, ok, err := app.config.EntryPoint()
	if err != nil {
		return &ApplicationError{Component: "config", Operation: "entry point", Err: err}
	}
	if ok {
		opts = append(opts, nes.WithEntryPoint(entry))
	}
	if app.config.Debug.CPUTrace {
		if err := app.openTrace(); err != nil {
			return &ApplicationError{Component: "debug", Operation: "open trace", Err: err}
		}
		opts = append(opts, nes.WithTracer(app.tracer))
	}

	console, err := nes.New(cart, opts...)
	if err != nil {
		app.closeTrace()
		return &ApplicationError{Component: "console", Operation: "power on", Err: err}
	}
	if app.tracer != nil {
		app.tracer.SetPeeker(console)
	}

	app.cartridge = cart
	app.console = console
	app.romPath = romPath
	app.window.SetTitle(fmt.Sprintf("%s - %s", app.config.Window.Title, filepath.Base(romPath)))
	app.log.Info("ROM loaded", "path", romPath, "cartridge", cart)
	return nil
}

func (app *Application) openTrace() error {
	app.closeTrace()
	f, err := os.Create(app.config.Debug.TraceFile)
	if err != nil {
		return err
	}
	app.traceFile = f
	app.tracer = debug.NewTracer(f, nil)
	return nil
}

func (app *Application) closeTrace() error {
	if app.traceFile == nil {
		return nil
	}
	err := app.tracer.Flush()
	if cerr := app.traceFile.Close(); err == nil {
		err = cerr
	}
	app.log.Debug("trace closed", "path", app.traceFile.Name(), "lines", app.tracer.Lines())
	app.traceFile, app.tracer = nil, nil
	return err
}

// Run emulates until ctx is done, the window is closed, the frame limit
// is reached, a test ROM finishes or the CPU halts. Headless backends run
// as fast as possible and see every frame; the others are paced to
// FrameRate and present from their own loop on the calling goroutine.
func (app *Application) Run(ctx context.Context) error {
	if !app.initialized {
		return ErrNotInitialized
	}
	if app.console == nil {
		return ErrNoROM
	}
	if app.config.Debug.StatsView {
		if !debug.StatsViewAvailable() {
			app.log.Warn("statsview requested but not built in; rebuild with -tags statsview")
		}
		debug.LaunchStatsView(app.output)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.mu.Lock()
	app.cancel = cancel
	app.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.watchSignals(gctx, cancel) })

	start := time.Now()
	var presentErr error
	if app.backend.IsHeadless() {
		g.Go(func() error {
			defer cancel()
			return app.emulate(gctx, nil, app.presentDirect)
		})
	} else {
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()
		g.Go(func() error {
			defer cancel()
			return app.emulate(gctx, ticker.C, nil)
		})
		presentErr = graphics.Present(gctx, app.window, app.console.Frames(), graphics.PresentOptions{
			OnEvents: app.handleEvents,
			OnFrame:  app.onFrame,
		})
		cancel()
		if errors.Is(presentErr, graphics.ErrWindowClosed) {
			app.log.Info("window closed")
			presentErr = nil
		}
	}

	err := g.Wait()
	if err == nil {
		err = presentErr
	}
	if app.tracer != nil {
		if terr := app.tracer.Flush(); err == nil && terr != nil {
			err = &ApplicationError{Component: "debug", Operation: "write trace", Err: terr}
		}
	}

	frames := app.console.FrameCount()
	elapsed := time.Since(start)
	app.log.Info("emulation stopped", "frames", frames, "elapsed", elapsed.Round(time.Millisecond),
		"fps", float64(frames)/elapsed.Seconds())

	if err != nil {
		return err
	}
	if app.config.Debug.TestROM {
		app.log.Info("test ROM result", "status", app.status.String())
		return app.status.Err()
	}
	return nil
}

// emulate steps one frame per tick, or back to back when tick is nil, and
// hands every completed frame to present when it is set.
func (app *Application) emulate(ctx context.Context, tick <-chan time.Time, present func(*ppu.Frame) error) error {
	maxFrames := app.config.Emulation.MaxFrames
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		app.requests.apply(app.console, app.log)
		app.pads.apply(app.console.Input)
		if err := app.console.StepFrame(); err != nil {
			return &ApplicationError{Component: "console", Operation: "step frame", Err: err}
		}
		if present != nil {
			frame, _ := app.console.Frames().Latest()
			if err := present(frame); err != nil {
				return err
			}
		}

		if app.config.Debug.TestROM && app.checkTestStatus() {
			return nil
		}
		if maxFrames > 0 && app.console.FrameCount() >= maxFrames {
			app.log.Debug("frame limit reached", "frames", maxFrames)
			return nil
		}
	}
}

// presentDirect renders a frame on the headless window from the
// emulation goroutine.
func (app *Application) presentDirect(frame *ppu.Frame) error {
	if err := app.window.RenderFrame(frame); err != nil {
		return &ApplicationError{Component: "graphics", Operation: "render", Err: err}
	}
	return app.onFrame(frame)
}

// onFrame writes text dumps of presented frames when configured.
func (app *Application) onFrame(frame *ppu.Frame) error {
	if app.dumper == nil {
		return nil
	}
	path, err := app.dumper.Dump(frame)
	if err != nil {
		return &ApplicationError{Component: "debug", Operation: "dump frame", Err: err}
	}
	if path != "" {
		app.log.Debug("frame dumped", "frame", frame.Number, "path", path)
	}
	return nil
}

// checkTestStatus polls the test ROM result area and reports whether the
// test has finished. A reset request is served with a soft reset.
func (app *Application) checkTestStatus() bool {
	s := debug.ReadTestStatus(app.console)
	if s.Valid && s.Code != app.status.Code {
		app.log.Debug("test ROM status", "status", s.String())
	}
	app.status = s
	switch {
	case s.NeedsReset():
		app.requests.reset(false)
		return false
	case s.Running():
		return false
	}
	return true
}

func (app *Application) watchSignals(ctx context.Context, cancel context.CancelFunc) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case s := <-sig:
		app.log.Info("signal received, shutting down", "signal", s)
		cancel()
	case <-ctx.Done():
	}
	return nil
}

// handleEvents runs on the presentation goroutine. Button state goes
// through pads; F1 and F2 request soft and hard resets.
func (app *Application) handleEvents(events []graphics.InputEvent) {
	for _, e := range events {
		switch e.Type {
		case graphics.InputEventTypeButton:
			app.pads.set(e.Player, e.Button, e.Pressed)
		case graphics.InputEventTypeKey:
			if !e.Pressed {
				continue
			}
			switch e.Key {
			case graphics.KeyF1:
				app.requests.reset(false)
			case graphics.KeyF2:
				app.requests.reset(true)
			}
		}
	}
}

// Stop asks a running Run to return. It is safe to call from any goroutine.
func (app *Application) Stop() {
	app.mu.Lock()
	cancel := app.cancel
	app.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset queues a console reset for the emulation goroutine.
func (app *Application) Reset(hard bool) {
	app.requests.reset(hard)
}

// Console returns the console built by LoadROM.
func (app *Application) Console() *nes.Console {
	return app.console
}

// Config returns the application configuration.
func (app *Application) Config() *Config {
	return app.config
}

// Window returns the presentation window.
func (app *Application) Window() graphics.Window {
	return app.window
}

// TestStatus returns the last test ROM status read by Run.
func (app *Application) TestStatus() debug.TestStatus {
	return app.status
}

// ROMPath returns the path of the loaded ROM.
func (app *Application) ROMPath() string {
	return app.romPath
}

// Cleanup releases the window, the backend and any open trace file.
func (app *Application) Cleanup() error {
	var errs []error
	if err := app.closeTrace(); err != nil {
		errs = append(errs, err)
	}
	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			errs = append(errs, err)
		}
		app.window = nil
	}
	if app.backend != nil {
		if err := app.backend.Cleanup(); err != nil {
			errs = append(errs, err)
		}
		app.backend = nil
	}
	app.initialized = false
	return errors.Join(errs...)
}
