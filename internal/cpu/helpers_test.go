package cpu

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	programStart = 0x8000
	nmiHandler   = 0x9000
	irqHandler   = 0xA000
)

// MockMemory is a flat 64KB bus.
type MockMemory struct {
	data       [0x10000]uint8
	writeCount map[uint16]int
}

// NewMockMemory creates a new mock memory instance
func NewMockMemory() *MockMemory {
	return &MockMemory{writeCount: make(map[uint16]int)}
}

func (m *MockMemory) Read(address uint16) uint8 {
	return m.data[address]
}

func (m *MockMemory) ReadWord(address uint16) uint16 {
	return uint16(m.data[address+1])<<8 | uint16(m.data[address])
}

func (m *MockMemory) Write(address uint16, value uint8) {
	m.writeCount[address]++
	m.data[address] = value
}

// SetBytes sets multiple bytes starting at the given address
func (m *MockMemory) SetBytes(address uint16, values ...uint8) {
	for i, value := range values {
		m.data[address+uint16(i)] = value
	}
}

// SetWord stores a little-endian word.
func (m *MockMemory) SetWord(address uint16, value uint16) {
	m.SetBytes(address, uint8(value), uint8(value>>8))
}

// CPUTestHelper provides common test utilities
type CPUTestHelper struct {
	t      *testing.T
	CPU    *CPU
	Memory *MockMemory
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewCPUTestHelper loads program at $8000, points the vectors at it and the
// test handlers, and runs the reset sequence.
func NewCPUTestHelper(t *testing.T, program []uint8, opts ...Option) *CPUTestHelper {
	t.Helper()
	mem := NewMockMemory()
	mem.SetBytes(programStart, program...)
	mem.SetWord(nmiVector, nmiHandler)
	mem.SetWord(resetVector, programStart)
	mem.SetWord(irqVector, irqHandler)

	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	h := &CPUTestHelper{t: t, CPU: New(mem, opts...), Memory: mem}
	h.CPU.Reset(true)
	h.settle()
	return h
}

// settle steps through sleep cycles until the CPU is ready to fetch.
func (h *CPUTestHelper) settle() int {
	n := 0
	for !h.CPU.Ready() {
		require.True(h.t, h.CPU.Step())
		n++
		require.Less(h.t, n, 1000, "CPU never became ready")
	}
	return n
}

// Execute runs one instruction (or interrupt entry) to completion and
// returns the cycles it took.
func (h *CPUTestHelper) Execute() int {
	h.t.Helper()
	require.True(h.t, h.CPU.Ready())
	require.True(h.t, h.CPU.Step())
	return 1 + h.settle()
}

// Run executes n instructions.
func (h *CPUTestHelper) Run(n int) {
	h.t.Helper()
	for i := 0; i < n; i++ {
		h.Execute()
	}
}
