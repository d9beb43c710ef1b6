package graphics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AndrewNeo/nessharp/internal/ppu"
)

// recordingWindow is a Window that remembers what it was asked to show.
type recordingWindow struct {
	mu       sync.Mutex
	rendered []uint64
	events   [][]InputEvent
	fail     error
}

func (w *recordingWindow) SetTitle(string)     {}
func (w *recordingWindow) GetSize() (int, int) { return 0, 0 }
func (w *recordingWindow) ShouldClose() bool   { return false }
func (w *recordingWindow) Cleanup() error      { return nil }

func (w *recordingWindow) PollEvents() []InputEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.events) == 0 {
		return nil
	}
	e := w.events[0]
	w.events = w.events[1:]
	return e
}

func (w *recordingWindow) RenderFrame(f *ppu.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.rendered = append(w.rendered, f.Number)
	return nil
}

func (w *recordingWindow) frames() []uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]uint64(nil), w.rendered...)
}

func TestPresent_ShouldRenderEachPublishedFrameOnce(t *testing.T) {
	h := ppu.NewFrameHandle()
	w := &recordingWindow{}
	ctx, cancel := context.WithCancel(context.Background())

	var hooked []uint64
	done := make(chan error, 1)
	go func() {
		done <- Present(ctx, w, h, PresentOptions{
			Interval: time.Millisecond,
			OnFrame: func(f *ppu.Frame) error {
				hooked = append(hooked, f.Number)
				return nil
			},
		})
	}()

	h.Publish(&ppu.Frame{Number: 1})
	waitFor(t, func() bool { return len(w.frames()) == 1 })
	time.Sleep(5 * time.Millisecond)
	h.Publish(&ppu.Frame{Number: 2})
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Present returned %v", err)
	}
	got := w.frames()
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected frames [1 2], got %v", got)
	}
	if len(hooked) != 2 {
		t.Errorf("OnFrame saw %v", hooked)
	}
}

func TestPresent_QuitEvent_ShouldReturnWindowClosed(t *testing.T) {
	w := &recordingWindow{events: [][]InputEvent{
		{{Type: InputEventTypeButton, Player: 1, Pressed: true}},
		{{Type: InputEventTypeQuit, Pressed: true}},
	}}

	var seen int
	err := Present(context.Background(), w, ppu.NewFrameHandle(), PresentOptions{
		Interval: time.Millisecond,
		OnEvents: func(e []InputEvent) { seen += len(e) },
	})
	if !errors.Is(err, ErrWindowClosed) {
		t.Fatalf("Expected ErrWindowClosed, got %v", err)
	}
	if seen != 2 {
		t.Errorf("Expected both events forwarded, got %d", seen)
	}
}

func TestPresent_RenderError_ShouldStopLoop(t *testing.T) {
	boom := errors.New("boom")
	w := &recordingWindow{fail: boom}
	h := ppu.NewFrameHandle()
	h.Publish(&ppu.Frame{Number: 1})

	err := Present(context.Background(), w, h, PresentOptions{Interval: time.Millisecond})
	if !errors.Is(err, boom) {
		t.Errorf("Expected render error, got %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}
