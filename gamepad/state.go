// Package gamepad models the normalized virtual controller state that decoded
// flight-device samples are folded into before being handed to a downstream
// consumer (typically a game-streaming client driving a synthetic pad).
package gamepad

// MaxSlot is the highest virtual controller slot a state may target.
const MaxSlot = 3

// State mirrors XInput's view of a wired pad: a 16-bit button field carried
// in a uint32, analog triggers and signed 16-bit stick axes.
type State struct {
	// ControllerID selects the virtual pad slot (0-3) downstream.
	ControllerID int `json:"controllerId"`
	// Buttons is a bitfield of Button* masks (lower 16 bits used).
	Buttons uint32 `json:"buttons"`
	// Triggers: 0-255
	LeftTrigger  uint8 `json:"leftTrigger"`
	RightTrigger uint8 `json:"rightTrigger"`
	// Sticks: signed 16-bit, positive right/up
	LeftStickX  int16 `json:"leftStickX"`
	LeftStickY  int16 `json:"leftStickY"`
	RightStickX int16 `json:"rightStickX"`
	RightStickY int16 `json:"rightStickY"`
	// Connected reports whether a capture is feeding this slot.
	Connected bool `json:"connected"`
}

// ClampSlot forces a controller slot into the valid 0-3 range.
func ClampSlot(slot int) int {
	if slot < 0 {
		return 0
	}
	if slot > MaxSlot {
		return MaxSlot
	}
	return slot
}

// Neutral returns the all-released, disconnected state for a slot. It is
// emitted once when a capture stops so the consumer releases the pad.
func Neutral(slot int) State {
	return State{ControllerID: ClampSlot(slot)}
}

// Changed reports whether next differs from prev in any input field.
// ControllerID and Connected are not compared, so a reconnect to the same
// slot with identical inputs produces no update.
func Changed(prev *State, next State) bool {
	if prev == nil {
		return true
	}
	return prev.Buttons != next.Buttons ||
		prev.LeftTrigger != next.LeftTrigger ||
		prev.RightTrigger != next.RightTrigger ||
		prev.LeftStickX != next.LeftStickX ||
		prev.LeftStickY != next.LeftStickY ||
		prev.RightStickX != next.RightStickX ||
		prev.RightStickY != next.RightStickY
}
