package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestADCFlags(t *testing.T) {
	tests := []struct {
		name    string
		a, m    uint8
		carry   bool
		want    uint8
		wantC   bool
		wantV   bool
		wantN   bool
		wantZ   bool
	}{
		{"simple", 0x10, 0x20, false, 0x30, false, false, false, false},
		{"carry in", 0x10, 0x20, true, 0x31, false, false, false, false},
		{"unsigned carry out", 0xFF, 0x01, false, 0x00, true, false, false, true},
		{"positive overflow", 0x7F, 0x01, false, 0x80, false, true, true, false},
		{"negative overflow", 0x80, 0xFF, false, 0x7F, true, true, false, false},
		{"no overflow mixed signs", 0x50, 0xD0, false, 0x20, true, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper(t, []uint8{0x69, tt.m}) // ADC #m
			h.CPU.A = tt.a
			h.CPU.P = h.CPU.P.With(FlagCarry, tt.carry)
			h.Execute()

			assert.Equal(t, tt.want, h.CPU.A)
			assert.Equal(t, tt.wantC, h.CPU.P.Has(FlagCarry), "C")
			assert.Equal(t, tt.wantV, h.CPU.P.Has(FlagOverflow), "V")
			assert.Equal(t, tt.wantN, h.CPU.P.Has(FlagNegative), "N")
			assert.Equal(t, tt.wantZ, h.CPU.P.Has(FlagZero), "Z")
		})
	}
}

func TestSBCFlags(t *testing.T) {
	tests := []struct {
		name  string
		a, m  uint8
		carry bool
		want  uint8
		wantC bool
		wantV bool
	}{
		{"no borrow", 0x50, 0x10, true, 0x40, true, false},
		{"borrow in", 0x50, 0x10, false, 0x3F, true, false},
		{"borrow out", 0x10, 0x20, true, 0xF0, false, false},
		{"equal", 0x42, 0x42, true, 0x00, true, false},
		{"overflow", 0x80, 0x01, true, 0x7F, true, true},
		{"overflow negative", 0x7F, 0xFF, true, 0x80, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper(t, []uint8{0xE9, tt.m}) // SBC #m
			h.CPU.A = tt.a
			h.CPU.P = h.CPU.P.With(FlagCarry, tt.carry)
			h.Execute()

			assert.Equal(t, tt.want, h.CPU.A)
			assert.Equal(t, tt.wantC, h.CPU.P.Has(FlagCarry), "C")
			assert.Equal(t, tt.wantV, h.CPU.P.Has(FlagOverflow), "V")
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		setup   func(c *CPU)
		wantC   bool
		wantZ   bool
		wantN   bool
	}{
		{"CMP greater", []uint8{0xC9, 0x10}, func(c *CPU) { c.A = 0x20 }, true, false, false},
		{"CMP equal", []uint8{0xC9, 0x20}, func(c *CPU) { c.A = 0x20 }, true, true, false},
		{"CMP less", []uint8{0xC9, 0x30}, func(c *CPU) { c.A = 0x20 }, false, false, true},
		{"CMP unsigned", []uint8{0xC9, 0x01}, func(c *CPU) { c.A = 0x80 }, true, false, false},
		{"CPX", []uint8{0xE0, 0x05}, func(c *CPU) { c.X = 0x05 }, true, true, false},
		{"CPY", []uint8{0xC0, 0x06}, func(c *CPU) { c.Y = 0x05 }, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper(t, tt.program)
			tt.setup(h.CPU)
			h.Execute()

			assert.Equal(t, tt.wantC, h.CPU.P.Has(FlagCarry), "C")
			assert.Equal(t, tt.wantZ, h.CPU.P.Has(FlagZero), "Z")
			assert.Equal(t, tt.wantN, h.CPU.P.Has(FlagNegative), "N")
		})
	}
}

func TestShiftsAccumulatorAndMemory(t *testing.T) {
	tests := []struct {
		name    string
		opcode  uint8
		value   uint8
		carryIn bool
		want    uint8
		wantC   bool
	}{
		{"ASL", 0x0A, 0x81, false, 0x02, true},
		{"LSR", 0x4A, 0x81, false, 0x40, true},
		{"ROL", 0x2A, 0x40, true, 0x81, false},
		{"ROR", 0x6A, 0x02, true, 0x81, false},
	}

	for _, tt := range tests {
		t.Run(tt.name+" A", func(t *testing.T) {
			h := NewCPUTestHelper(t, []uint8{tt.opcode})
			h.CPU.A = tt.value
			h.CPU.P = h.CPU.P.With(FlagCarry, tt.carryIn)
			assert.Equal(t, 2, h.Execute())

			assert.Equal(t, tt.want, h.CPU.A)
			assert.Equal(t, tt.wantC, h.CPU.P.Has(FlagCarry))
		})

		t.Run(tt.name+" zeropage", func(t *testing.T) {
			// Same operation, zero page form is opcode - 4
			h := NewCPUTestHelper(t, []uint8{tt.opcode - 4, 0x10})
			h.Memory.SetBytes(0x0010, tt.value)
			h.CPU.A = 0xEE
			h.CPU.P = h.CPU.P.With(FlagCarry, tt.carryIn)
			assert.Equal(t, 5, h.Execute())

			assert.Equal(t, tt.want, h.Memory.data[0x0010])
			assert.Equal(t, uint8(0xEE), h.CPU.A, "memory form leaves A alone")
			assert.Equal(t, tt.wantC, h.CPU.P.Has(FlagCarry))
		})
	}
}

func TestIncDec(t *testing.T) {
	h := NewCPUTestHelper(t, []uint8{
		0xE6, 0x20, // INC $20
		0xC6, 0x21, // DEC $21
		0xCA,       // DEX
		0xC8,       // INY
	})
	h.Memory.SetBytes(0x0020, 0xFF, 0x00)
	h.CPU.X = 0x00
	h.CPU.Y = 0x7F

	h.Execute()
	assert.Equal(t, uint8(0x00), h.Memory.data[0x20])
	assert.True(t, h.CPU.P.Has(FlagZero))

	h.Execute()
	assert.Equal(t, uint8(0xFF), h.Memory.data[0x21])
	assert.True(t, h.CPU.P.Has(FlagNegative))

	h.Execute()
	assert.Equal(t, uint8(0xFF), h.CPU.X)

	h.Execute()
	assert.Equal(t, uint8(0x80), h.CPU.Y)
	assert.True(t, h.CPU.P.Has(FlagNegative))
}

func TestBIT(t *testing.T) {
	h := NewCPUTestHelper(t, []uint8{0x24, 0x30})
	h.Memory.SetBytes(0x0030, 0xC0)
	h.CPU.A = 0x01
	h.Execute()

	assert.True(t, h.CPU.P.Has(FlagZero))
	assert.True(t, h.CPU.P.Has(FlagOverflow))
	assert.True(t, h.CPU.P.Has(FlagNegative))
	assert.Equal(t, uint8(0x01), h.CPU.A)
}

func TestTransfers(t *testing.T) {
	h := NewCPUTestHelper(t, []uint8{0xAA, 0xA8, 0xBA, 0xA2, 0x33, 0x9A})
	h.CPU.A = 0x80

	h.Run(2) // TAX, TAY
	assert.Equal(t, uint8(0x80), h.CPU.X)
	assert.Equal(t, uint8(0x80), h.CPU.Y)
	assert.True(t, h.CPU.P.Has(FlagNegative))

	h.Execute() // TSX
	assert.Equal(t, uint8(0xFD), h.CPU.X)

	h.Run(2) // LDX #$33; TXS
	assert.Equal(t, uint8(0x33), h.CPU.SP)
	assert.False(t, h.CPU.P.Has(FlagZero))
}

func TestPHPAndPLP(t *testing.T) {
	h := NewCPUTestHelper(t, []uint8{0x08, 0x68, 0x48, 0x28}) // PHP; PLA; PHA; PLP
	h.CPU.P = FlagUnused | FlagCarry

	h.Run(2)
	assert.Equal(t, uint8(0x31), h.CPU.A, "PHP pushes B and bit 5")

	h.Run(2)
	assert.Equal(t, FlagUnused|FlagCarry, h.CPU.P)
}

func TestFlagInstructions(t *testing.T) {
	h := NewCPUTestHelper(t, []uint8{0x38, 0xF8, 0x78, 0x18, 0xD8, 0x58, 0xB8})
	h.CPU.P = FlagUnused | FlagOverflow

	h.Run(3)
	assert.True(t, h.CPU.P.Has(FlagCarry|FlagDecimal|FlagInterrupt))
	h.Run(4)
	assert.Equal(t, FlagUnused, h.CPU.P)
}

func TestAddressingModes(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		setup   func(h *CPUTestHelper)
		want    uint8
	}{
		{
			name:    "zero page X wraps",
			program: []uint8{0xB5, 0xF0}, // LDA $F0,X
			setup: func(h *CPUTestHelper) {
				h.CPU.X = 0x20
				h.Memory.SetBytes(0x0010, 0x11)
			},
			want: 0x11,
		},
		{
			name:    "zero page Y wraps",
			program: []uint8{0xB6, 0xFF}, // LDX $FF,Y
			setup: func(h *CPUTestHelper) {
				h.CPU.Y = 0x02
				h.Memory.SetBytes(0x0001, 0x22)
			},
			want: 0x22,
		},
		{
			name:    "absolute Y",
			program: []uint8{0xB9, 0xF0, 0x12}, // LDA $12F0,Y
			setup: func(h *CPUTestHelper) {
				h.CPU.Y = 0x20
				h.Memory.SetBytes(0x1310, 0x33)
			},
			want: 0x33,
		},
		{
			name:    "indexed indirect wraps pointer",
			program: []uint8{0xA1, 0xFE}, // LDA ($FE,X)
			setup: func(h *CPUTestHelper) {
				h.CPU.X = 0x01
				h.Memory.SetBytes(0x00FF, 0x34)
				h.Memory.SetBytes(0x0000, 0x12)
				h.Memory.SetBytes(0x1234, 0x44)
			},
			want: 0x44,
		},
		{
			name:    "indirect indexed",
			program: []uint8{0xB1, 0x40}, // LDA ($40),Y
			setup: func(h *CPUTestHelper) {
				h.CPU.Y = 0x10
				h.Memory.SetBytes(0x0040, 0x00, 0x03)
				h.Memory.SetBytes(0x0310, 0x55)
			},
			want: 0x55,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCPUTestHelper(t, tt.program)
			tt.setup(h)
			h.Execute()

			got := h.CPU.A
			if tt.program[0] == 0xB6 {
				got = h.CPU.X
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJMPIndirectPageBug(t *testing.T) {
	h := NewCPUTestHelper(t, []uint8{0x6C, 0xFF, 0x02}) // JMP ($02FF)
	h.Memory.SetBytes(0x02FF, 0x00)
	h.Memory.SetBytes(0x0300, 0x90)
	h.Memory.SetBytes(0x0200, 0xC0)

	assert.Equal(t, 5, h.Execute())
	assert.Equal(t, uint16(0xC000), h.CPU.PC)
}

func TestStoreModes(t *testing.T) {
	h := NewCPUTestHelper(t, []uint8{
		0x85, 0x10, // STA $10
		0x96, 0x10, // STX $10,Y
		0x8C, 0x00, 0x03, // STY $0300
		0x91, 0x20, // STA ($20),Y
	})
	h.CPU.A, h.CPU.X, h.CPU.Y = 0xAA, 0xBB, 0x02
	h.Memory.SetBytes(0x0020, 0x00, 0x04)

	h.Run(4)
	assert.Equal(t, uint8(0xAA), h.Memory.data[0x0010])
	assert.Equal(t, uint8(0xBB), h.Memory.data[0x0012])
	assert.Equal(t, uint8(0x02), h.Memory.data[0x0300])
	assert.Equal(t, uint8(0xAA), h.Memory.data[0x0402])
}
