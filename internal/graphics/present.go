package graphics

import (
	"context"
	"time"

	"github.com/AndrewNeo/nessharp/internal/ppu"
)

// DefaultPresentInterval polls for new frames at roughly the NTSC rate.
const DefaultPresentInterval = time.Second / 60

// FrameSource hands out the most recently published frame.
type FrameSource interface {
	Latest() (*ppu.Frame, uint64)
}

// PresentOptions configures a presentation loop.
type PresentOptions struct {
	Interval time.Duration
	// OnEvents receives translated input events, at most once per poll.
	OnEvents func([]InputEvent)
	// OnFrame is called with every newly presented frame.
	OnFrame func(*ppu.Frame) error
}

// Looper is implemented by windows that must own their event loop.
type Looper interface {
	Loop(ctx context.Context, src FrameSource, opts PresentOptions) error
}

// Present shows frames from src on w until ctx is done, the window closes
// or rendering fails. The last published frame is rendered before a
// canceled loop returns. A user quit returns ErrWindowClosed.
func Present(ctx context.Context, w Window, src FrameSource, opts PresentOptions) error {
	if l, ok := w.(Looper); ok {
		return l.Loop(ctx, src, opts)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPresentInterval
	}
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	var p presenter
	for {
		select {
		case <-ctx.Done():
			return p.show(w, src, opts)
		case <-ticker.C:
		}
		if err := p.show(w, src, opts); err != nil {
			return err
		}
		if quit := dispatch(w.PollEvents(), opts); quit || w.ShouldClose() {
			return ErrWindowClosed
		}
	}
}

// presenter remembers the last frame shown.
type presenter struct {
	seq uint64
}

func (p *presenter) show(w Window, src FrameSource, opts PresentOptions) error {
	frame, seq := src.Latest()
	if frame == nil || seq == p.seq {
		return nil
	}
	p.seq = seq
	if err := w.RenderFrame(frame); err != nil {
		return err
	}
	if opts.OnFrame != nil {
		return opts.OnFrame(frame)
	}
	return nil
}

// dispatch forwards events and reports whether a quit was requested.
func dispatch(events []InputEvent, opts PresentOptions) bool {
	if len(events) == 0 {
		return false
	}
	if opts.OnEvents != nil {
		opts.OnEvents(events)
	}
	for _, e := range events {
		if e.Type == InputEventTypeQuit {
			return true
		}
	}
	return false
}
