package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowOffset(t *testing.T) {
	buf := make([]uint8, 0x800)

	tests := []struct {
		name    string
		window  Window
		address uint16
		want    int
	}{
		{"base offset", NewWindow(buf, 0x6000, true), 0x6010, 0x10},
		{"period folds before base", NewWindow(buf, 0, true).Repeat(0x800), 0x1801, 0x001},
		{"period wraps nametable mirror", NewWindow(buf, 0, true).Repeat(0x400), 0x2C05, 0x005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.window.Offset(tt.address))
		})
	}
}

func TestWindowReadOnlyDropsWrites(t *testing.T) {
	buf := []uint8{0x11, 0x22}
	w := NewWindow(buf, 0x8000, false)

	w.Write(0x8001, 0xFF)

	assert.Equal(t, uint8(0x22), w.Read(0x8001))
	assert.Equal(t, []uint8{0x11, 0x22}, buf)
}

func TestWindowWritable(t *testing.T) {
	buf := make([]uint8, 4)
	w := NewWindow(buf, 0, true).Repeat(4)

	w.Write(0x0006, 0xAB)

	assert.Equal(t, uint8(0xAB), buf[2])
	assert.Equal(t, uint8(0xAB), w.Read(0x0002))
}

func TestWindowReadWord(t *testing.T) {
	w := NewWindow([]uint8{0x34, 0x12}, 0xFFFC, false)
	assert.Equal(t, uint16(0x1234), w.ReadWord(0xFFFC))
}
