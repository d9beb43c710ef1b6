package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrRegisterWordRead is raised when a 16-bit read targets a register port.
	ErrRegisterWordRead = errors.New("16-bit read from register port")
	// ErrUnmapped is raised for an address outside every decoded range.
	ErrUnmapped = errors.New("address outside decoded ranges")
)

// BusName identifies which of the two decoders produced an error.
type BusName string

const (
	BusCPU BusName = "CPU"
	BusPPU BusName = "PPU"
)

// AccessError describes a bus access the decoder refuses to model.
type AccessError struct {
	Bus     BusName
	Address uint16
	Err     error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("illegal %s memory access at $%04X: %v", e.Bus, e.Address, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// fault escalates an access the decoder cannot model. The emulation loop
// recovers it at the step boundary.
func fault(bus BusName, address uint16, err error) {
	panic(&AccessError{Bus: bus, Address: address, Err: err})
}
