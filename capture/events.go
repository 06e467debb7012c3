package capture

import (
	"sync"

	"github.com/flightbridge/flightbridge/gamepad"
)

// StateUpdate mirrors one decoded device sample for presentation layers:
// normalized axes, raw buttons, the hat position and the untouched report
// bytes. Raw pass-through captures carry only RawBytes.
type StateUpdate struct {
	Connected  bool      `json:"connected"`
	DeviceName string    `json:"deviceName"`
	Axes       []float64 `json:"axes"`
	Buttons    []bool    `json:"buttons"`
	HatSwitch  int       `json:"hatSwitch"`
	RawBytes   []byte    `json:"rawBytes,omitempty"`
}

// Subscription delivers capture events to one consumer over bounded channels.
// State updates arrive for every report; gamepad states only when the mapped
// state actually changed. Slow consumers lose events instead of stalling the
// capture.
type Subscription struct {
	states   chan StateUpdate
	gamepads chan gamepad.State

	m         *Manager
	closeOnce sync.Once

	// Drop counters, written under the manager lock.
	droppedStates   uint64
	droppedGamepads uint64
}

// States yields one update per device report plus the connect and disconnect
// markers. The channel closes when the subscription or the manager closes.
func (s *Subscription) States() <-chan StateUpdate { return s.states }

// Gamepads yields mapped controller states, change-suppressed.
func (s *Subscription) Gamepads() <-chan gamepad.State { return s.gamepads }

// Close detaches the subscription and closes both channels.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { s.m.unsubscribe(s) })
}
