//go:build !headless

package graphics

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/AndrewNeo/nessharp/internal/ppu"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	title   string
	width   int
	height  int
	game    *EbitengineGame
	running bool
	events  []InputEvent
}

// EbitengineGame implements ebiten.Game for the NES emulator
type EbitengineGame struct {
	window     *EbitengineWindow
	frameImage *ebiten.Image
	filter     ebiten.Filter
	processor  *VideoProcessor
	keys       KeyMap
	log        *slog.Logger

	// Reusable image buffer, uploaded to frameImage when dirty
	imageBuffer *image.RGBA
	dirty       bool

	windowWidth  int
	windowHeight int

	// Set while Loop runs
	ctx  context.Context
	src  FrameSource
	opts PresentOptions
	last presenter
	err  error
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	keys := b.config.Keys
	if keys == nil {
		keys = DefaultKeyMap()
	}
	filter := ebiten.FilterNearest
	if b.config.Filter == "linear" {
		filter = ebiten.FilterLinear
	}

	game := &EbitengineGame{
		windowWidth:  width,
		windowHeight: height,
		filter:       filter,
		processor:    b.config.processor(),
		keys:         keys,
		log:          b.config.logger(),
		imageBuffer:  image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth, ppu.ScreenHeight)),
	}

	window := &EbitengineWindow{
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}
	game.window = window

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false; Ebitengine always opens a window
func (b *EbitengineBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns the events gathered by the game loop
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame converts a frame into the upload buffer. The texture itself
// is updated on the game loop.
func (w *EbitengineWindow) RenderFrame(frame *ppu.Frame) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	if frame == nil {
		return fmt.Errorf("no frame to render")
	}

	frame = w.game.processor.ProcessFrame(frame)
	img := w.game.imageBuffer
	for i, pixel := range frame.Pixels {
		o := i * 4
		img.Pix[o] = uint8(pixel >> 16)
		img.Pix[o+1] = uint8(pixel >> 8)
		img.Pix[o+2] = uint8(pixel)
		img.Pix[o+3] = 0xFF
	}
	w.game.dirty = true
	return nil
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Loop runs the Ebitengine game loop on the calling goroutine, which must
// be the main one.
func (w *EbitengineWindow) Loop(ctx context.Context, src FrameSource, opts PresentOptions) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	w.game.ctx, w.game.src, w.game.opts = ctx, src, opts

	if err := ebiten.RunGame(w.game); err != nil {
		return err
	}
	if w.game.err != nil {
		return w.game.err
	}
	if ctx.Err() == nil {
		return ErrWindowClosed
	}
	return nil
}

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	if g.ctx != nil && g.ctx.Err() != nil {
		return ebiten.Termination
	}

	g.window.events = append(g.window.events, g.processInput()...)
	if quit := dispatch(g.window.PollEvents(), g.opts); quit {
		g.window.running = false
		return ebiten.Termination
	}

	if g.src != nil {
		if err := g.last.show(g.window, g.src, g.opts); err != nil {
			g.log.Error("frame presentation failed", "err", err)
			g.err = err
			return ebiten.Termination
		}
	}
	return nil
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{A: 0xFF})
	if g.frameImage == nil {
		g.frameImage = ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight)
	}
	if g.dirty {
		g.frameImage.WritePixels(g.imageBuffer.Pix)
		g.dirty = false
	}

	scale, offsetX, offsetY := fit(g.windowWidth, g.windowHeight)
	op := &ebiten.DrawImageOptions{Filter: g.filter}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(g.frameImage, op)
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// ebitenKeys maps the keys the emulator understands.
var ebitenKeys = map[ebiten.Key]Key{
	ebiten.KeyEscape:     KeyEscape,
	ebiten.KeyEnter:      KeyEnter,
	ebiten.KeySpace:      KeySpace,
	ebiten.KeyArrowUp:    KeyUp,
	ebiten.KeyArrowDown:  KeyDown,
	ebiten.KeyArrowLeft:  KeyLeft,
	ebiten.KeyArrowRight: KeyRight,
	ebiten.KeyW:          KeyW,
	ebiten.KeyA:          KeyA,
	ebiten.KeyS:          KeyS,
	ebiten.KeyD:          KeyD,
	ebiten.KeyJ:          KeyJ,
	ebiten.KeyK:          KeyK,
	ebiten.KeyX:          KeyX,
	ebiten.KeyZ:          KeyZ,
	ebiten.Key1:          Key1,
	ebiten.Key2:          Key2,
	ebiten.Key3:          Key3,
	ebiten.Key4:          Key4,
	ebiten.Key5:          Key5,
	ebiten.Key6:          Key6,
	ebiten.Key7:          Key7,
	ebiten.Key8:          Key8,
	ebiten.KeyF1:         KeyF1,
	ebiten.KeyF2:         KeyF2,
	ebiten.KeyF3:         KeyF3,
	ebiten.KeyF4:         KeyF4,
	ebiten.KeyF5:         KeyF5,
	ebiten.KeyF6:         KeyF6,
	ebiten.KeyF7:         KeyF7,
	ebiten.KeyF8:         KeyF8,
	ebiten.KeyF9:         KeyF9,
	ebiten.KeyF10:        KeyF10,
	ebiten.KeyF11:        KeyF11,
	ebiten.KeyF12:        KeyF12,
}

// processInput turns this tick's key transitions into events. Escape
// quits; bound keys become button events.
func (g *EbitengineGame) processInput() []InputEvent {
	var events []InputEvent
	for ebitenKey, key := range ebitenKeys {
		switch {
		case inpututil.IsKeyJustPressed(ebitenKey):
			events = append(events, keyEvent(key, true))
		case inpututil.IsKeyJustReleased(ebitenKey):
			events = append(events, keyEvent(key, false))
		}
	}
	return g.keys.Translate(events)
}
