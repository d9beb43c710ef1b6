package graphics

import (
	"fmt"
	"strings"

	"github.com/AndrewNeo/nessharp/internal/input"
)

// Key represents keyboard keys
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeySpace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyW
	KeyA
	KeyS
	KeyD
	KeyJ
	KeyK
	KeyX
	KeyZ
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyNames = map[Key]string{
	KeyEscape: "Escape",
	KeyEnter:  "Enter",
	KeySpace:  "Space",
	KeyUp:     "Up",
	KeyDown:   "Down",
	KeyLeft:   "Left",
	KeyRight:  "Right",
	KeyW:      "W",
	KeyA:      "A",
	KeyS:      "S",
	KeyD:      "D",
	KeyJ:      "J",
	KeyK:      "K",
	KeyX:      "X",
	KeyZ:      "Z",
	Key1:      "1",
	Key2:      "2",
	Key3:      "3",
	Key4:      "4",
	Key5:      "5",
	Key6:      "6",
	Key7:      "7",
	Key8:      "8",
	KeyF1:     "F1",
	KeyF2:     "F2",
	KeyF3:     "F3",
	KeyF4:     "F4",
	KeyF5:     "F5",
	KeyF6:     "F6",
	KeyF7:     "F7",
	KeyF8:     "F8",
	KeyF9:     "F9",
	KeyF10:    "F10",
	KeyF11:    "F11",
	KeyF12:    "F12",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParseKey maps a key name (case-insensitive) to its Key.
func ParseKey(name string) (Key, error) {
	for k, n := range keyNames {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}
	return KeyUnknown, fmt.Errorf("unknown key %q", name)
}

// Binding is the controller button a key drives.
type Binding struct {
	Player int
	Button input.Button
}

// KeyMap maps keyboard keys to controller buttons.
type KeyMap map[Key]Binding

// DefaultKeyMap returns the built-in layout: arrows or WASD, J/K for A/B,
// Enter/Space for Start/Select on player 1, and 1-8 on player 2.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		KeyUp:    {1, input.ButtonUp},
		KeyDown:  {1, input.ButtonDown},
		KeyLeft:  {1, input.ButtonLeft},
		KeyRight: {1, input.ButtonRight},
		KeyW:     {1, input.ButtonUp},
		KeyS:     {1, input.ButtonDown},
		KeyA:     {1, input.ButtonLeft},
		KeyD:     {1, input.ButtonRight},
		KeyJ:     {1, input.ButtonA},
		KeyK:     {1, input.ButtonB},
		KeyEnter: {1, input.ButtonStart},
		KeySpace: {1, input.ButtonSelect},
		Key1:     {2, input.ButtonUp},
		Key2:     {2, input.ButtonDown},
		Key3:     {2, input.ButtonLeft},
		Key4:     {2, input.ButtonRight},
		Key5:     {2, input.ButtonA},
		Key6:     {2, input.ButtonB},
		Key7:     {2, input.ButtonStart},
		Key8:     {2, input.ButtonSelect},
	}
}

// NewKeyMap builds a key map from key name -> button name tables, one per
// player. Empty tables fall back to the default layout for that player.
func NewKeyMap(player1, player2 map[string]string) (KeyMap, error) {
	km := KeyMap{}
	defaults := DefaultKeyMap()
	for player, table := range []map[string]string{player1, player2} {
		if len(table) == 0 {
			for k, b := range defaults {
				if b.Player == player+1 {
					km[k] = b
				}
			}
			continue
		}
		for keyName, buttonName := range table {
			key, err := ParseKey(keyName)
			if err != nil {
				return nil, err
			}
			button, err := input.ParseButton(buttonName)
			if err != nil {
				return nil, err
			}
			if prev, ok := km[key]; ok {
				return nil, fmt.Errorf("key %s bound twice (player %d %s)", key, prev.Player, prev.Button)
			}
			km[key] = Binding{Player: player + 1, Button: button}
		}
	}
	return km, nil
}

// Translate turns key events into button events. Unbound keys and other
// events pass through unchanged.
func (km KeyMap) Translate(events []InputEvent) []InputEvent {
	out := make([]InputEvent, 0, len(events))
	for _, e := range events {
		if e.Type == InputEventTypeKey {
			if b, ok := km[e.Key]; ok {
				out = append(out, InputEvent{
					Type:    InputEventTypeButton,
					Key:     e.Key,
					Player:  b.Player,
					Button:  b.Button,
					Pressed: e.Pressed,
				})
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// keyEvent builds the event for a key transition. Escape is a quit request.
func keyEvent(key Key, pressed bool) InputEvent {
	if key == KeyEscape && pressed {
		return InputEvent{Type: InputEventTypeQuit, Key: key, Pressed: true}
	}
	return InputEvent{Type: InputEventTypeKey, Key: key, Pressed: pressed}
}
