package ppu

import (
	"image"
	"image/color"
	"sync/atomic"
)

const (
	ScreenWidth  = 256
	ScreenHeight = 240
)

// Frame is one completed picture: packed 0x00RRGGBB pixels, row-major.
// A frame is never written after it has been published.
type Frame struct {
	Pixels [ScreenWidth * ScreenHeight]uint32
	Number uint64
}

// At returns the packed RGB value at (x, y).
func (f *Frame) At(x, y int) uint32 {
	return f.Pixels[y*ScreenWidth+x]
}

// RGBA converts the frame to an image for encoders and scalers.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	for i, px := range f.Pixels {
		o := i * 4
		img.Pix[o] = uint8(px >> 16)
		img.Pix[o+1] = uint8(px >> 8)
		img.Pix[o+2] = uint8(px)
		img.Pix[o+3] = 0xFF
	}
	return img
}

// Color returns the pixel at (x, y) as a color.RGBA.
func (f *Frame) Color(x, y int) color.RGBA {
	px := f.At(x, y)
	return color.RGBA{R: uint8(px >> 16), G: uint8(px >> 8), B: uint8(px), A: 0xFF}
}

type published struct {
	frame *Frame
	seq   uint64
}

// FrameHandle is a single-slot mailbox between the emulation goroutine and
// a presentation goroutine. Publishing replaces the slot; readers only ever
// see whole frames and may miss some.
type FrameHandle struct {
	slot atomic.Pointer[published]
	seq  atomic.Uint64
}

// NewFrameHandle creates an empty handle.
func NewFrameHandle() *FrameHandle {
	return &FrameHandle{}
}

// Publish makes f the latest frame. The caller must not touch f afterwards.
func (h *FrameHandle) Publish(f *Frame) uint64 {
	seq := h.seq.Add(1)
	h.slot.Store(&published{frame: f, seq: seq})
	return seq
}

// Latest returns the most recent frame and its sequence number, or nil and
// zero before the first publication.
func (h *FrameHandle) Latest() (*Frame, uint64) {
	p := h.slot.Load()
	if p == nil {
		return nil, 0
	}
	return p.frame, p.seq
}

// Seq returns the sequence number of the latest frame.
func (h *FrameHandle) Seq() uint64 {
	_, seq := h.Latest()
	return seq
}
