// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/AndrewNeo/nessharp/internal/input"
	"github.com/AndrewNeo/nessharp/internal/ppu"
)

// ErrWindowClosed is returned by a presentation loop when the user closed
// the window or asked to quit.
var ErrWindowClosed = errors.New("window closed")

// Backend represents a graphics rendering backend (Ebitengine, terminal, headless)
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if running in headless mode
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window
type Window interface {
	// SetTitle sets the window title
	SetTitle(title string)

	// GetSize returns window dimensions
	GetSize() (width, height int)

	// ShouldClose returns true if window should close
	ShouldClose() bool

	// PollEvents returns input events gathered since the last call
	PollEvents() []InputEvent

	// RenderFrame renders a published NES frame to the window
	RenderFrame(frame *ppu.Frame) error

	// Cleanup releases window resources
	Cleanup() error
}

// Config contains configuration for graphics backends
type Config struct {
	// Window configuration
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool

	// Rendering configuration
	Filter     string // "nearest", "linear"
	Scale      int
	Brightness float32
	Contrast   float32
	Saturation float32

	// Headless frame dumps
	DumpDir      string
	DumpInterval uint64

	// Terminal streams; nil means stdout and no keyboard
	Output io.Writer
	Input  io.Reader

	Keys   KeyMap
	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c Config) processor() *VideoProcessor {
	b, ct, s := c.Brightness, c.Contrast, c.Saturation
	if b == 0 {
		b = 1
	}
	if ct == 0 {
		ct = 1
	}
	if s == 0 {
		s = 1
	}
	return NewVideoProcessor(b, ct, s)
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Key     Key
	Player  int // 1 or 2 for button events
	Button  input.Button
	Pressed bool
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeButton
	InputEventTypeQuit
)

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// ParseBackendType validates a backend name.
func ParseBackendType(name string) (BackendType, error) {
	switch t := BackendType(name); t {
	case BackendEbitengine, BackendHeadless, BackendTerminal:
		return t, nil
	}
	return "", fmt.Errorf("unknown graphics backend %q", name)
}

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine:
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		return nil, fmt.Errorf("unknown graphics backend %q", backendType)
	}
}

// fit returns the scale and offsets that center the NES picture in a
// window while keeping its aspect ratio.
func fit(windowWidth, windowHeight int) (scale, offsetX, offsetY float64) {
	scaleX := float64(windowWidth) / ppu.ScreenWidth
	scaleY := float64(windowHeight) / ppu.ScreenHeight
	scale = scaleX
	if scaleY < scaleX {
		scale = scaleY
	}
	offsetX = (float64(windowWidth) - ppu.ScreenWidth*scale) / 2
	offsetY = (float64(windowHeight) - ppu.ScreenHeight*scale) / 2
	return scale, offsetX, offsetY
}
