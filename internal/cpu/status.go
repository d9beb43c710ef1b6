package cpu

import "strings"

// Status is the processor status register (P).
type Status uint8

// Status register bit masks
const (
	FlagCarry     Status = 0x01
	FlagZero      Status = 0x02
	FlagInterrupt Status = 0x04
	FlagDecimal   Status = 0x08
	FlagBreak     Status = 0x10
	FlagUnused    Status = 0x20
	FlagOverflow  Status = 0x40
	FlagNegative  Status = 0x80
)

// Has reports whether every bit in flag is set.
func (p Status) Has(flag Status) bool {
	return p&flag == flag
}

// With returns p with flag set or cleared.
func (p Status) With(flag Status, on bool) Status {
	if on {
		return p | flag
	}
	return p &^ flag
}

// String renders the flags as "NV-BDIZC", lower case when clear.
func (p Status) String() string {
	const names = "NV-BDIZC"
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		if p&(0x80>>i) != 0 {
			sb.WriteByte(names[i])
		} else {
			sb.WriteByte(names[i] | 0x20)
		}
	}
	return sb.String()
}

// pushed returns the byte written to the stack. Bit 5 is always set and
// Break distinguishes BRK/PHP from hardware interrupts.
func (p Status) pushed(brk bool) uint8 {
	return uint8(p.With(FlagBreak, brk) | FlagUnused)
}

// pulled converts a byte read from the stack back into a register value.
// Break does not exist in the register and bit 5 reads as 1.
func pulled(value uint8) Status {
	return Status(value)&^FlagBreak | FlagUnused
}
