package graphics

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/AndrewNeo/nessharp/internal/ppu"
)

// holdPolls is how many polls a key stays pressed. Terminals report key
// presses but never releases.
const holdPolls = 6

// TerminalBackend implements the Backend interface for terminal-based rendering
type TerminalBackend struct {
	initialized bool
	config      Config
}

// TerminalWindow renders frames with 24-bit color half blocks: each
// character cell shows two vertically stacked pixels.
type TerminalWindow struct {
	title   string
	width   int // character columns
	height  int // character rows
	running bool

	out       io.Writer
	buf       bytes.Buffer
	processor *VideoProcessor
	keys      KeyMap
	log       *slog.Logger

	// Raw keyboard input
	fd       int
	rawState *term.State
	pressed  chan Key
	held     map[Key]int
	stopOnce sync.Once
}

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates a terminal "window". Its size follows the terminal
// when the output is one; width and height are the fallback in columns and
// rows.
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	out := b.config.Output
	if out == nil {
		out = os.Stdout
	}
	keys := b.config.Keys
	if keys == nil {
		keys = DefaultKeyMap()
	}
	w := &TerminalWindow{
		title:     title,
		width:     width,
		height:    height,
		running:   true,
		out:       out,
		processor: b.config.processor(),
		keys:      keys,
		log:       b.config.logger(),
		fd:        -1,
		held:      make(map[Key]int),
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, rows, err := term.GetSize(int(f.Fd())); err == nil {
			w.width, w.height = cols, rows
		}
	}
	if b.config.Input != nil {
		if err := w.startInput(b.config.Input); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// startInput puts a terminal input into raw mode and reads key presses
// from r in the background.
func (w *TerminalWindow) startInput(r io.Reader) error {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("failed to set raw mode: %w", err)
		}
		w.fd, w.rawState = int(f.Fd()), state
	}

	w.pressed = make(chan Key, 64)
	go func() {
		buf := make([]byte, 16)
		for {
			n, err := r.Read(buf)
			for _, k := range decodeKeys(buf[:n]) {
				select {
				case w.pressed <- k:
				default:
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

// decodeKeys maps raw terminal bytes to keys. Escape alone, q and Ctrl-C
// map to KeyEscape.
func decodeKeys(b []byte) []Key {
	var keys []Key
	for i := 0; i < len(b); i++ {
		switch c := b[i]; {
		case c == 0x1B && i+2 < len(b) && b[i+1] == '[':
			if k, ok := arrowKeys[b[i+2]]; ok {
				keys = append(keys, k)
			}
			i += 2
		case c == 0x1B, c == 0x03, c == 'q', c == 'Q':
			keys = append(keys, KeyEscape)
		case c == '\r', c == '\n':
			keys = append(keys, KeyEnter)
		case c == ' ':
			keys = append(keys, KeySpace)
		case c >= '1' && c <= '8':
			keys = append(keys, Key1+Key(c-'1'))
		default:
			if k, err := ParseKey(string(c)); err == nil {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

var arrowKeys = map[byte]Key{'A': KeyUp, 'B': KeyDown, 'C': KeyRight, 'D': KeyLeft}

// SetTitle sets the window title (for terminal title)
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
}

// GetSize returns the size in character cells
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// PollEvents returns key presses since the last poll, plus releases for
// keys whose hold time ran out.
func (w *TerminalWindow) PollEvents() []InputEvent {
	var events []InputEvent
	for k, left := range w.held {
		if left <= 1 {
			delete(w.held, k)
			events = append(events, keyEvent(k, false))
			continue
		}
		w.held[k] = left - 1
	}
	if w.pressed == nil {
		return w.keys.Translate(events)
	}
	for {
		select {
		case k := <-w.pressed:
			if _, down := w.held[k]; !down {
				events = append(events, keyEvent(k, true))
			}
			if k != KeyEscape {
				w.held[k] = holdPolls
			}
		default:
			return w.keys.Translate(events)
		}
	}
}

// RenderFrame draws the frame scaled down to the terminal size.
func (w *TerminalWindow) RenderFrame(frame *ppu.Frame) error {
	if frame == nil {
		return fmt.Errorf("no frame to render")
	}
	frame = w.processor.ProcessFrame(frame)

	cols, rows := w.width, w.height-1
	if cols < 1 || rows < 1 {
		return nil
	}
	// One pixel per column, two per row, same step both ways.
	step := max(float64(ppu.ScreenWidth)/float64(cols), float64(ppu.ScreenHeight)/float64(rows*2), 1)
	outW := int(float64(ppu.ScreenWidth) / step)
	outH := int(float64(ppu.ScreenHeight) / step / 2)

	w.buf.Reset()
	w.buf.WriteString("\033[H")
	for cy := 0; cy < outH; cy++ {
		top := int(float64(cy*2) * step)
		bottom := min(int(float64(cy*2+1)*step), ppu.ScreenHeight-1)
		for cx := 0; cx < outW; cx++ {
			x := int(float64(cx) * step)
			t, b := frame.At(x, top), frame.At(x, bottom)
			fmt.Fprintf(&w.buf, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm▀",
				uint8(t>>16), uint8(t>>8), uint8(t), uint8(b>>16), uint8(b>>8), uint8(b))
		}
		w.buf.WriteString("\033[0m\r\n")
	}
	_, err := w.out.Write(w.buf.Bytes())
	return err
}

// Cleanup restores the terminal
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	var err error
	w.stopOnce.Do(func() {
		if w.rawState != nil {
			err = term.Restore(w.fd, w.rawState)
		}
		fmt.Fprint(w.out, "\033[0m")
	})
	return err
}
