package debug

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AndrewNeo/nessharp/internal/ppu"
)

// PixelFilter selects which pixels a dump lists.
type PixelFilter func(x, y int, rgb uint32) bool

// FrameDumper writes published frames as text: a hex grid of the pixels
// followed by a color frequency table. Text dumps diff cleanly between runs.
type FrameDumper struct {
	outputDir    string
	maxDumps     int
	dumpInterval uint64 // dump every N frames
	pixelFilter  PixelFilter

	dumped int
}

// NewFrameDumper creates a dumper writing into outputDir. The directory is
// created on the first dump.
func NewFrameDumper(outputDir string) *FrameDumper {
	return &FrameDumper{
		outputDir:    outputDir,
		maxDumps:     10,
		dumpInterval: 1,
	}
}

// SetMaxDumps sets the maximum number of frames to dump. Zero means no limit.
func (fd *FrameDumper) SetMaxDumps(max int) {
	fd.maxDumps = max
}

// SetDumpInterval sets the interval between frame dumps
func (fd *FrameDumper) SetDumpInterval(interval uint64) {
	if interval == 0 {
		interval = 1
	}
	fd.dumpInterval = interval
}

// SetPixelFilter restricts the hex grid to pixels accepted by filter.
func (fd *FrameDumper) SetPixelFilter(filter PixelFilter) {
	fd.pixelFilter = filter
}

// Dumped returns how many frames have been written.
func (fd *FrameDumper) Dumped() int {
	return fd.dumped
}

// Dump writes f if it falls on the interval and the limit is not reached.
// It returns the file written, or "" when the frame was skipped.
func (fd *FrameDumper) Dump(f *ppu.Frame) (string, error) {
	if f == nil || f.Number%fd.dumpInterval != 0 {
		return "", nil
	}
	if fd.maxDumps > 0 && fd.dumped >= fd.maxDumps {
		return "", nil
	}
	if err := os.MkdirAll(fd.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create dump directory: %w", err)
	}

	path := filepath.Join(fd.outputDir, fmt.Sprintf("frame_%06d.txt", f.Number))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create frame dump file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fd.write(w, f)
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to write frame dump: %w", err)
	}
	fd.dumped++
	return path, nil
}

func (fd *FrameDumper) write(w *bufio.Writer, f *ppu.Frame) {
	fmt.Fprintf(w, "Frame Buffer Dump\n")
	fmt.Fprintf(w, "Frame Number: %d\n", f.Number)
	fmt.Fprintf(w, "Dimensions: %dx%d\n", ppu.ScreenWidth, ppu.ScreenHeight)
	fmt.Fprintf(w, "===================\n\n")

	for y := 0; y < ppu.ScreenHeight; y++ {
		fmt.Fprintf(w, "Line %03d:", y)
		listed := 0
		for x := 0; x < ppu.ScreenWidth; x++ {
			pixel := f.At(x, y)
			if fd.pixelFilter != nil && !fd.pixelFilter(x, y, pixel) {
				continue
			}
			if listed%16 == 0 && listed > 0 {
				fmt.Fprintf(w, "\n         ")
			}
			fmt.Fprintf(w, " %06X", pixel)
			listed++
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "\nColor Frequency Analysis:\n")
	fmt.Fprintf(w, "Color   | Count | Percentage\n")
	fmt.Fprintf(w, "--------|-------|----------\n")
	for _, c := range ColorHistogram(f) {
		fmt.Fprintf(w, "#%06X | %5d | %6.2f%%\n", c.RGB, c.Count,
			float64(c.Count)/float64(len(f.Pixels))*100)
	}
}

// ColorCount is one entry of a frame's color histogram.
type ColorCount struct {
	RGB   uint32
	Count int
}

// ColorHistogram counts the colors of f, most frequent first.
func ColorHistogram(f *ppu.Frame) []ColorCount {
	freq := make(map[uint32]int)
	for _, p := range f.Pixels {
		freq[p]++
	}
	out := make([]ColorCount, 0, len(freq))
	for rgb, n := range freq {
		out = append(out, ColorCount{RGB: rgb, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].RGB < out[j].RGB
	})
	return out
}

// RegionFilter accepts pixels inside the inclusive rectangle.
func RegionFilter(x1, y1, x2, y2 int) PixelFilter {
	return func(x, y int, rgb uint32) bool {
		return x >= x1 && x <= x2 && y >= y1 && y <= y2
	}
}

// ColorFilter accepts pixels of exactly one color.
func ColorFilter(want uint32) PixelFilter {
	return func(x, y int, rgb uint32) bool {
		return rgb == want
	}
}
