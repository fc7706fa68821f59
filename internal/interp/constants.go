package interp

import (
	"github.com/arduino-ast/interpreter/internal/scope"
	"github.com/arduino-ast/interpreter/internal/value"
)

// seedConstants declares the Arduino pin/mode and keyboard constants
// the scope manager must have available from program start (spec.md
// §4.2: "Seeded at start with Arduino pin/mode constants and keyboard
// constants (immutable)").
func seedConstants(s *scope.Stack) {
	ints := map[string]int32{
		"HIGH": 1, "LOW": 0,
		"INPUT": 0, "OUTPUT": 1, "INPUT_PULLUP": 2,
		"LED_BUILTIN": 13,
		"A0": 14, "A1": 15, "A2": 16, "A3": 17, "A4": 18, "A5": 19,

		"KEY_LEFT_CTRL": 0x80, "KEY_LEFT_SHIFT": 0x81, "KEY_LEFT_ALT": 0x82,
		"KEY_LEFT_GUI": 0x83, "KEY_RIGHT_CTRL": 0x84, "KEY_RIGHT_SHIFT": 0x85,
		"KEY_RIGHT_ALT": 0x86, "KEY_RIGHT_GUI": 0x87,
		"KEY_UP_ARROW": 0xDA, "KEY_DOWN_ARROW": 0xD9,
		"KEY_LEFT_ARROW": 0xD8, "KEY_RIGHT_ARROW": 0xD7,
		"KEY_RETURN": 0xB0, "KEY_ESC": 0xB1, "KEY_TAB": 0xB3, "KEY_BACKSPACE": 0xB2,

		"LOW_BATTERY": 0,
	}
	for name, v := range ints {
		s.Declare(name, "int", value.I32Value(v), true)
	}
}
