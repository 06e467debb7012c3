// Package profile stores per-device mapping profiles: how one flight device's
// decoded axes, buttons and hat fold into virtual gamepad state.
package profile

import (
	"fmt"

	"github.com/flightbridge/flightbridge/gamepad"
	"github.com/flightbridge/flightbridge/report"
)

// AxisTarget names the gamepad control an axis mapping writes to.
type AxisTarget string

const (
	TargetLeftStickX   AxisTarget = "leftStickX"
	TargetLeftStickY   AxisTarget = "leftStickY"
	TargetRightStickX  AxisTarget = "rightStickX"
	TargetRightStickY  AxisTarget = "rightStickY"
	TargetLeftTrigger  AxisTarget = "leftTrigger"
	TargetRightTrigger AxisTarget = "rightTrigger"
)

// IsTrigger reports whether the target is one of the analog triggers, which
// scale to 0-255 instead of the signed stick range.
func (t AxisTarget) IsTrigger() bool {
	return t == TargetLeftTrigger || t == TargetRightTrigger
}

// Valid reports whether t names a known gamepad control.
func (t AxisTarget) Valid() bool {
	switch t {
	case TargetLeftStickX, TargetLeftStickY, TargetRightStickX,
		TargetRightStickY, TargetLeftTrigger, TargetRightTrigger:
		return true
	}
	return false
}

// Curve names the response curve applied after the deadzone.
type Curve string

const (
	CurveLinear Curve = "linear"
	CurveExpo   Curve = "expo"
)

// Valid reports whether c names a known response curve.
func (c Curve) Valid() bool {
	return c == CurveLinear || c == CurveExpo
}

// Deadzone and sensitivity bounds enforced on every profile write.
const (
	DeadzoneMin    = 0.0
	DeadzoneMax    = 0.5
	SensitivityMin = 0.1
	SensitivityMax = 3.0
)

// AxisMapping routes one decoded report axis to a gamepad control.
type AxisMapping struct {
	// SourceIndex is the axis position in the decoded sample. Indices outside
	// the sample are inert at map time.
	SourceIndex int        `json:"sourceIndex" toml:"source_index"`
	Target      AxisTarget `json:"target" toml:"target"`
	Inverted    bool       `json:"inverted" toml:"inverted"`
	Deadzone    float64    `json:"deadzone" toml:"deadzone"`
	Sensitivity float64    `json:"sensitivity" toml:"sensitivity"`
	Curve       Curve      `json:"curve" toml:"curve"`
}

// Validate bounds-checks one axis mapping.
func (m AxisMapping) Validate() error {
	if m.SourceIndex < 0 {
		return fmt.Errorf("negative source index %d", m.SourceIndex)
	}
	if !m.Target.Valid() {
		return fmt.Errorf("unknown axis target %q", m.Target)
	}
	if m.Deadzone < DeadzoneMin || m.Deadzone > DeadzoneMax {
		return fmt.Errorf("deadzone %v outside [%v,%v]", m.Deadzone, DeadzoneMin, DeadzoneMax)
	}
	if m.Sensitivity < SensitivityMin || m.Sensitivity > SensitivityMax {
		return fmt.Errorf("sensitivity %v outside [%v,%v]", m.Sensitivity, SensitivityMin, SensitivityMax)
	}
	if !m.Curve.Valid() {
		return fmt.Errorf("unknown curve %q", m.Curve)
	}
	return nil
}

// ButtonMapping routes one decoded report button to a gamepad button mask.
// A single source may assert several buttons at once.
type ButtonMapping struct {
	SourceIndex  int    `json:"sourceIndex" toml:"source_index"`
	TargetButton uint32 `json:"targetButton" toml:"target_button"`
}

// Profile binds one device identity (VID:PID, optionally scoped to a game) to
// its report layout override and mapping set. Profiles are treated as
// immutable records: updates produce a modified copy which is then saved.
type Profile struct {
	VendorID   uint16 `json:"vendorId" toml:"vendor_id"`
	ProductID  uint16 `json:"productId" toml:"product_id"`
	DeviceName string `json:"deviceName" toml:"device_name"`
	// GameID scopes the profile to one game; empty means the device default.
	GameID string `json:"gameId,omitempty" toml:"game_id,omitempty"`
	// Layout overrides the built-in report layout when set.
	Layout  *report.Layout  `json:"layout,omitempty" toml:"layout,omitempty"`
	Axes    []AxisMapping   `json:"axes" toml:"axes"`
	Buttons []ButtonMapping `json:"buttons" toml:"buttons"`
}

// Key renders the device identity the way profiles are addressed everywhere:
// lowercase hex "vid:pid".
func (p *Profile) Key() string {
	return DeviceKey(p.VendorID, p.ProductID)
}

// DeviceKey renders a VID:PID pair as the canonical profile key.
func DeviceKey(vendorID, productID uint16) string {
	return fmt.Sprintf("%04x:%04x", vendorID, productID)
}

// Validate checks every mapping and the layout override.
func (p *Profile) Validate() error {
	for i, a := range p.Axes {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("axis mapping %d: %w", i, err)
		}
	}
	for i, b := range p.Buttons {
		if b.SourceIndex < 0 {
			return fmt.Errorf("button mapping %d: negative source index", i)
		}
	}
	if p.Layout != nil {
		if err := p.Layout.Validate(); err != nil {
			return fmt.Errorf("layout: %w", err)
		}
	}
	return nil
}

// Clone returns a deep copy so updates never mutate a profile another
// component still holds.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Axes = append([]AxisMapping(nil), p.Axes...)
	c.Buttons = append([]ButtonMapping(nil), p.Buttons...)
	if p.Layout != nil {
		l := *p.Layout
		l.Axes = append([]report.AxisField(nil), p.Layout.Axes...)
		l.Buttons = append([]report.ButtonField(nil), p.Layout.Buttons...)
		if p.Layout.Hat != nil {
			h := *p.Layout.Hat
			l.Hat = &h
		}
		c.Layout = &l
	}
	return &c
}

// defaultAxisTargets is the assignment order for fresh profiles: stick first,
// twist to the right stick, throttle to the right trigger.
var defaultAxisTargets = []AxisTarget{
	TargetLeftStickX,
	TargetLeftStickY,
	TargetRightStickX,
	TargetRightTrigger,
	TargetLeftTrigger,
	TargetRightStickY,
}

// defaultButtonTargets is the assignment order for fresh profiles; sources
// beyond it stay unmapped until the user assigns them.
var defaultButtonTargets = []uint32{
	gamepad.ButtonA,
	gamepad.ButtonB,
	gamepad.ButtonX,
	gamepad.ButtonY,
	gamepad.ButtonLShoulder,
	gamepad.ButtonRShoulder,
	gamepad.ButtonBack,
	gamepad.ButtonStart,
	gamepad.ButtonLThumb,
	gamepad.ButtonRThumb,
}

// Default builds the profile used when a device has none stored yet. Mapping
// counts follow the built-in layout when one exists; unknown devices get an
// empty profile and capture runs in raw pass-through mode.
func Default(vendorID, productID uint16, deviceName string) *Profile {
	p := &Profile{
		VendorID:   vendorID,
		ProductID:  productID,
		DeviceName: deviceName,
	}
	layout := report.Builtin(vendorID, productID)
	if layout == nil {
		return p
	}
	for i := range layout.Axes {
		if i >= len(defaultAxisTargets) {
			break
		}
		p.Axes = append(p.Axes, AxisMapping{
			SourceIndex: i,
			Target:      defaultAxisTargets[i],
			Deadzone:    0.05,
			Sensitivity: 1.0,
			Curve:       CurveLinear,
		})
	}
	for i := range layout.Buttons {
		if i >= len(defaultButtonTargets) {
			break
		}
		p.Buttons = append(p.Buttons, ButtonMapping{
			SourceIndex:  i,
			TargetButton: defaultButtonTargets[i],
		})
	}
	return p
}
