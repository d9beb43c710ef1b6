// Package input implements controller handling for the NES.
package input

import (
	"fmt"
	"log/slog"
	"strings"
)

// Button represents NES controller buttons
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

var buttonNames = [8]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}

func (b Button) String() string {
	var names []string
	for i, name := range buttonNames {
		if b&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// ParseButton maps a button name (case-insensitive) to its Button.
func ParseButton(name string) (Button, error) {
	for i, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return Button(1 << i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// Controller is a standard pad: eight buttons latched into a shift register
// while strobe is high and read out one bit per $4016/$4017 read.
type Controller struct {
	buttons Button

	shiftRegister uint8
	strobe        bool
	reads         uint8
}

// New creates a new Controller instance
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of a button
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= button
	} else {
		c.buttons &^= button
	}
}

// SetButtons replaces every button state; the order is A, B, Select,
// Start, Up, Down, Left, Right.
func (c *Controller) SetButtons(buttons [8]bool) {
	c.buttons = 0
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= Button(1 << i)
		}
	}
}

// Buttons returns the currently held buttons.
func (c *Controller) Buttons() Button {
	return c.buttons
}

// IsPressed returns true if the button is currently pressed
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&button != 0
}

// Write handles the strobe bit written to $4016. The shift register is
// reloaded continuously while strobe is high.
func (c *Controller) Write(value uint8) {
	c.strobe = value&1 != 0
	if c.strobe {
		c.latch()
	}
}

func (c *Controller) latch() {
	c.shiftRegister = uint8(c.buttons)
	c.reads = 0
}

// Read returns the next button bit in bit 0. After eight reads an official
// pad reports 1.
func (c *Controller) Read() uint8 {
	if c.strobe {
		c.latch()
		return c.shiftRegister & 1
	}
	if c.reads >= 8 {
		return 1
	}
	bit := c.shiftRegister & 1
	c.shiftRegister >>= 1
	c.reads++
	return bit
}

// Reset releases every button and clears the shift register.
func (c *Controller) Reset() {
	*c = Controller{}
}

// InputState represents the state of all input devices
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller

	log *slog.Logger
}

// NewInputState creates a new input state with two controllers
func NewInputState(log *slog.Logger) *InputState {
	if log == nil {
		log = slog.Default()
	}
	return &InputState{
		Controller1: New(),
		Controller2: New(),
		log:         log,
	}
}

// Reset resets all input devices
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// SetButtons1 sets all button states for controller 1
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 sets all button states for controller 2
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read reads from controller ports
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read()
	default:
		return 0
	}
}

// Write writes to controller ports. Both pads share the strobe line.
func (is *InputState) Write(address uint16, value uint8) {
	if address != 0x4016 {
		return
	}
	if is.Controller1.strobe != (value&1 != 0) {
		is.log.Debug("controller strobe", "high", value&1 != 0,
			"pad1", is.Controller1.buttons, "pad2", is.Controller2.buttons)
	}
	is.Controller1.Write(value)
	is.Controller2.Write(value)
}
