package debug

import "fmt"

// Test ROM status protocol: a running test writes $80 to $6000, the magic
// bytes DE B0 61 to $6001-$6003 and a NUL-terminated message from $6004.
// A status below $80 is the final result code, $81 asks for a reset.
const (
	statusAddress  = 0x6000
	magicAddress   = 0x6001
	messageAddress = 0x6004
	maxMessage     = 0x1FFC

	StatusRunning    = 0x80
	StatusNeedsReset = 0x81
)

var testMagic = [3]uint8{0xDE, 0xB0, 0x61}

// TestStatus is the result area of a test ROM.
type TestStatus struct {
	Valid   bool // magic bytes present
	Code    uint8
	Message string
}

// ReadTestStatus decodes the result area through mem.
func ReadTestStatus(mem Peeker) TestStatus {
	for i, b := range testMagic {
		if mem.Peek(magicAddress+uint16(i)) != b {
			return TestStatus{}
		}
	}

	s := TestStatus{Valid: true, Code: mem.Peek(statusAddress)}
	var msg []byte
	for i := uint16(0); i < maxMessage; i++ {
		b := mem.Peek(messageAddress + i)
		if b == 0 {
			break
		}
		msg = append(msg, b)
	}
	s.Message = string(msg)
	return s
}

// Running reports whether the test has not finished yet. A result area
// without the magic bytes counts as running: the test has not started it.
func (s TestStatus) Running() bool {
	return !s.Valid || s.Code == StatusRunning
}

// NeedsReset reports whether the test asked for the reset button.
func (s TestStatus) NeedsReset() bool {
	return s.Valid && s.Code == StatusNeedsReset
}

// Passed reports a finished test with result code zero.
func (s TestStatus) Passed() bool {
	return s.Valid && s.Code == 0
}

// Err returns nil for a pass and an error carrying the code and message
// for a failure. Unfinished tests are not errors.
func (s TestStatus) Err() error {
	if !s.Valid || s.Code >= StatusRunning || s.Code == 0 {
		return nil
	}
	return fmt.Errorf("test failed with code $%02X: %s", s.Code, s.Message)
}

func (s TestStatus) String() string {
	switch {
	case !s.Valid:
		return "no test status"
	case s.Code == StatusRunning:
		return "running"
	case s.Code == StatusNeedsReset:
		return "needs reset"
	case s.Code == 0:
		return "passed: " + s.Message
	default:
		return fmt.Sprintf("failed ($%02X): %s", s.Code, s.Message)
	}
}
