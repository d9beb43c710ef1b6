package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AndrewNeo/nessharp/internal/ppu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame(number uint64) *ppu.Frame {
	f := &ppu.Frame{Number: number}
	for i := range f.Pixels {
		f.Pixels[i] = 0x64B0FF
	}
	for x := 0; x < 16; x++ {
		f.Pixels[10*ppu.ScreenWidth+x] = 0xFFFEFF
	}
	return f
}

func TestFrameDumperWritesTextDump(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	fd := NewFrameDumper(dir)

	path, err := fd.Dump(testFrame(3))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "frame_000003.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Frame Number: 3")
	assert.Contains(t, text, "Line 010: FFFEFF FFFEFF")
	assert.Contains(t, text, "#64B0FF | 61424 |  99.97%")
	assert.Contains(t, text, "#FFFEFF |    16 |   0.03%")
	assert.Equal(t, 1, fd.Dumped())
}

func TestFrameDumperIntervalAndLimit(t *testing.T) {
	fd := NewFrameDumper(t.TempDir())
	fd.SetDumpInterval(2)
	fd.SetMaxDumps(2)

	var written []string
	for n := uint64(1); n <= 8; n++ {
		path, err := fd.Dump(testFrame(n))
		require.NoError(t, err)
		if path != "" {
			written = append(written, filepath.Base(path))
		}
	}
	assert.Equal(t, []string{"frame_000002.txt", "frame_000004.txt"}, written)

	path, err := fd.Dump(nil)
	assert.NoError(t, err)
	assert.Empty(t, path)
}

func TestFrameDumperFilter(t *testing.T) {
	fd := NewFrameDumper(t.TempDir())
	fd.SetPixelFilter(RegionFilter(0, 10, 1, 10))

	path, err := fd.Dump(testFrame(1))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case strings.HasPrefix(line, "Line 010:"):
			assert.Equal(t, "Line 010: FFFEFF FFFEFF", line)
		case strings.HasPrefix(line, "Line 000:"):
			assert.Equal(t, "Line 000:", line)
		}
	}
}

func TestColorHistogram(t *testing.T) {
	h := ColorHistogram(testFrame(1))
	require.Len(t, h, 2)
	assert.Equal(t, ColorCount{RGB: 0x64B0FF, Count: ppu.ScreenWidth*ppu.ScreenHeight - 16}, h[0])
	assert.Equal(t, ColorCount{RGB: 0xFFFEFF, Count: 16}, h[1])

	assert.True(t, ColorFilter(0x123456)(0, 0, 0x123456))
	assert.False(t, ColorFilter(0x123456)(0, 0, 0x654321))
}
