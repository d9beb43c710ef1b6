package graphics

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/AndrewNeo/nessharp/internal/ppu"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow implements the Window interface for headless operation.
// Frames are counted and optionally written to disk as PNG images.
type HeadlessWindow struct {
	title   string
	width   int
	height  int
	running bool

	frameCount   int
	lastFrame    *ppu.Frame
	outputPath   string
	dumpInterval uint64
	scale        int
	processor    *VideoProcessor
	log          *slog.Logger
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	scale := b.config.Scale
	if scale < 1 {
		scale = 1
	}
	interval := b.config.DumpInterval
	if interval == 0 {
		interval = 1
	}
	return &HeadlessWindow{
		title:        title,
		width:        width,
		height:       height,
		running:      true,
		outputPath:   b.config.DumpDir,
		dumpInterval: interval,
		scale:        scale,
		processor:    b.config.processor(),
		log:          b.config.logger(),
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns empty events list (no input in headless mode)
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame records the frame and writes it to the output directory when
// it falls on the dump interval.
func (w *HeadlessWindow) RenderFrame(frame *ppu.Frame) error {
	if frame == nil {
		return fmt.Errorf("no frame to render")
	}
	w.frameCount++
	w.lastFrame = frame

	if w.outputPath == "" || frame.Number%w.dumpInterval != 0 {
		return nil
	}
	path := filepath.Join(w.outputPath, fmt.Sprintf("frame_%06d.png", frame.Number))
	if err := w.SavePNG(frame, path); err != nil {
		return err
	}
	w.log.Debug("frame written", "frame", frame.Number, "path", path)
	return nil
}

// SavePNG writes frame to path, scaled by the configured factor.
func (w *HeadlessWindow) SavePNG(frame *ppu.Frame, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	img := Scale(w.processor.ProcessFrame(frame).RGBA(), w.scale)
	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}

// Scale enlarges src by an integer factor with nearest-neighbour sampling,
// keeping pixels square and sharp.
func Scale(src *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// SetOutputPath sets the output path for frame dumps
func (w *HeadlessWindow) SetOutputPath(path string) {
	w.outputPath = path
}

// GetFrameCount returns the number of frames rendered
func (w *HeadlessWindow) GetFrameCount() int {
	return w.frameCount
}

// LastFrame returns the most recent frame rendered, or nil.
func (w *HeadlessWindow) LastFrame() *ppu.Frame {
	return w.lastFrame
}
