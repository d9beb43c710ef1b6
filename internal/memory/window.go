package memory

// Window is a borrowed view over a byte buffer. An absolute address is
// folded by Period (when non-zero) and then offset by Base to index Buffer.
// Windows must not be retained across mutations of the buffer they view.
type Window struct {
	Buffer   []uint8
	Base     uint16
	Writable bool
	Period   uint16
}

// NewWindow returns a window over buf starting at base.
func NewWindow(buf []uint8, base uint16, writable bool) Window {
	return Window{Buffer: buf, Base: base, Writable: writable}
}

// Repeat returns a copy of w that wraps addresses every period bytes.
func (w Window) Repeat(period uint16) Window {
	w.Period = period
	return w
}

// Offset resolves an absolute address to an index into the buffer.
func (w Window) Offset(address uint16) int {
	if w.Period > 0 {
		address %= w.Period
	}
	return int(address - w.Base)
}

// Read returns the byte the window maps at address.
func (w Window) Read(address uint16) uint8 {
	return w.Buffer[w.Offset(address)]
}

// ReadWord reads a little-endian word starting at address.
func (w Window) ReadWord(address uint16) uint16 {
	low := uint16(w.Read(address))
	high := uint16(w.Read(address + 1))
	return high<<8 | low
}

// Write stores value at address. Writes to read-only windows are dropped.
func (w Window) Write(address uint16, value uint8) {
	if !w.Writable {
		return
	}
	w.Buffer[w.Offset(address)] = value
}

// Len returns the size of the underlying buffer.
func (w Window) Len() int {
	return len(w.Buffer)
}
