// Package mapping folds decoded report samples through a device profile into
// virtual gamepad state.
package mapping

import (
	"math"

	"github.com/flightbridge/flightbridge/gamepad"
	"github.com/flightbridge/flightbridge/profile"
	"github.com/flightbridge/flightbridge/report"
)

// hatMasks translates hat clock positions (0=Up ... 7=UpLeft) to D-pad bits.
// Corner positions assert both neighbouring directions.
var hatMasks = [8]uint32{
	gamepad.ButtonDPadUp,
	gamepad.ButtonDPadUp | gamepad.ButtonDPadRight,
	gamepad.ButtonDPadRight,
	gamepad.ButtonDPadRight | gamepad.ButtonDPadDown,
	gamepad.ButtonDPadDown,
	gamepad.ButtonDPadDown | gamepad.ButtonDPadLeft,
	gamepad.ButtonDPadLeft,
	gamepad.ButtonDPadLeft | gamepad.ButtonDPadUp,
}

// Map applies a profile to one decoded sample. It is pure: mappings whose
// source index falls outside the sample are skipped, unmapped targets stay at
// their zero value, and the result always reports Connected on the clamped
// slot.
func Map(s report.Sample, p *profile.Profile, slot int) gamepad.State {
	st := gamepad.State{ControllerID: gamepad.ClampSlot(slot), Connected: true}

	for _, m := range p.Axes {
		if m.SourceIndex < 0 || m.SourceIndex >= len(s.Axes) {
			continue
		}
		raw := s.Axes[m.SourceIndex]
		if m.Target.IsTrigger() {
			writeTrigger(&st, m.Target, mapTrigger(raw, m))
		} else {
			writeStick(&st, m.Target, mapStick(raw, m))
		}
	}

	for _, b := range p.Buttons {
		if b.SourceIndex < 0 || b.SourceIndex >= len(s.Buttons) {
			continue
		}
		if s.Buttons[b.SourceIndex] {
			st.Buttons |= b.TargetButton
		}
	}

	st.Buttons |= HatButtons(s.Hat)
	return st
}

// HatButtons folds a hat clock position into D-pad bits. Neutral and
// positions outside the eight clock stops assert nothing.
func HatButtons(hat int) uint32 {
	if hat < 0 || hat >= len(hatMasks) {
		return 0
	}
	return hatMasks[hat]
}

// mapTrigger shapes a normalized [0,1] axis into the 0-255 trigger range.
func mapTrigger(raw float64, m profile.AxisMapping) uint8 {
	v := raw
	if m.Inverted {
		v = 1 - v
	}
	if v <= m.Deadzone {
		v = 0
	} else {
		v = (v - m.Deadzone) / (1 - m.Deadzone)
	}
	v = applyCurve(v, m.Curve) * m.Sensitivity
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

// mapStick recenters a normalized [0,1] axis to [-1,1] and shapes it into the
// signed 16-bit stick range.
func mapStick(raw float64, m profile.AxisMapping) int16 {
	v := raw*2 - 1
	if m.Inverted {
		v = -v
	}
	mag := math.Abs(v)
	if mag <= m.Deadzone {
		v = 0
	} else {
		v = math.Copysign((mag-m.Deadzone)/(1-m.Deadzone), v)
	}
	v = applyCurve(v, m.Curve) * m.Sensitivity
	scaled := math.Round(clamp(v, -1, 1) * 32767)
	return int16(clamp(scaled, math.MinInt16, math.MaxInt16))
}

// applyCurve keeps the sign so expo shaping never flips a deflection.
func applyCurve(v float64, c profile.Curve) float64 {
	if c == profile.CurveExpo {
		return math.Copysign(v*v, v)
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func writeTrigger(st *gamepad.State, t profile.AxisTarget, v uint8) {
	switch t {
	case profile.TargetLeftTrigger:
		st.LeftTrigger = v
	case profile.TargetRightTrigger:
		st.RightTrigger = v
	}
}

func writeStick(st *gamepad.State, t profile.AxisTarget, v int16) {
	switch t {
	case profile.TargetLeftStickX:
		st.LeftStickX = v
	case profile.TargetLeftStickY:
		st.LeftStickY = v
	case profile.TargetRightStickX:
		st.RightStickX = v
	case profile.TargetRightStickY:
		st.RightStickY = v
	}
}
