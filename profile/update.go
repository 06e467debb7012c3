package profile

import "fmt"

// AxisParam selects which field of an axis mapping an update touches.
type AxisParam string

const (
	ParamSourceIndex AxisParam = "sourceIndex"
	ParamTarget      AxisParam = "target"
	ParamInverted    AxisParam = "inverted"
	ParamDeadzone    AxisParam = "deadzone"
	ParamSensitivity AxisParam = "sensitivity"
	ParamCurve       AxisParam = "curve"
)

// AxisUpdate carries one typed change to an axis mapping. Param picks the
// field, the matching value field holds the new value and the rest are
// ignored. Editors send these instead of whole mappings so a stale client
// can never clobber fields it has not seen.
type AxisUpdate struct {
	Param       AxisParam  `json:"param"`
	SourceIndex int        `json:"sourceIndex,omitempty"`
	Target      AxisTarget `json:"target,omitempty"`
	Inverted    bool       `json:"inverted,omitempty"`
	Deadzone    float64    `json:"deadzone,omitempty"`
	Sensitivity float64    `json:"sensitivity,omitempty"`
	Curve       Curve      `json:"curve,omitempty"`
}

// Apply merges the update into a copy of m and bounds-checks the result.
func (m AxisMapping) Apply(u AxisUpdate) (AxisMapping, error) {
	switch u.Param {
	case ParamSourceIndex:
		m.SourceIndex = u.SourceIndex
	case ParamTarget:
		m.Target = u.Target
	case ParamInverted:
		m.Inverted = u.Inverted
	case ParamDeadzone:
		m.Deadzone = u.Deadzone
	case ParamSensitivity:
		m.Sensitivity = u.Sensitivity
	case ParamCurve:
		m.Curve = u.Curve
	default:
		return m, fmt.Errorf("unknown axis parameter %q", u.Param)
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

// WithAxisUpdate returns a copy of p with u applied to the axis mapping at
// index. p itself is never touched.
func (p *Profile) WithAxisUpdate(index int, u AxisUpdate) (*Profile, error) {
	if index < 0 || index >= len(p.Axes) {
		return nil, fmt.Errorf("axis mapping %d out of range (profile has %d)", index, len(p.Axes))
	}
	c := p.Clone()
	updated, err := c.Axes[index].Apply(u)
	if err != nil {
		return nil, fmt.Errorf("axis mapping %d: %w", index, err)
	}
	c.Axes[index] = updated
	return c, nil
}

// WithButtonTarget returns a copy of p with the button mapping at index
// retargeted to mask.
func (p *Profile) WithButtonTarget(index int, mask uint32) (*Profile, error) {
	if index < 0 || index >= len(p.Buttons) {
		return nil, fmt.Errorf("button mapping %d out of range (profile has %d)", index, len(p.Buttons))
	}
	c := p.Clone()
	c.Buttons[index].TargetButton = mask
	return c, nil
}
