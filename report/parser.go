package report

import "encoding/binary"

// Sample is the decoded view of one input report. Axes are normalized to
// [0,1], the hat is a clock position (0=Up, 2=Right, ... 7=UpLeft) or
// HatNeutral when centered.
type Sample struct {
	Axes    []float64 `json:"axes"`
	Buttons []bool    `json:"buttons"`
	Hat     int       `json:"hatSwitch"`
}

// Decode reads one raw input report against a layout. It is total: malformed
// or truncated buffers degrade to per-field defaults (axis raw 0, button
// released, hat centered) and identical inputs always produce identical
// samples. The caller keeps ownership of buf.
func Decode(l *Layout, buf []byte) Sample {
	base := 0
	if l.SkipReportID {
		base = 1
	}
	s := Sample{
		Axes:    make([]float64, len(l.Axes)),
		Buttons: make([]bool, len(l.Buttons)),
		Hat:     HatNeutral,
	}
	for i, f := range l.Axes {
		s.Axes[i] = decodeAxis(f, buf, base)
	}
	for i, f := range l.Buttons {
		s.Buttons[i] = decodeButton(f, buf, base)
	}
	if l.Hat != nil {
		s.Hat = decodeHat(*l.Hat, buf, base)
	}
	return s
}

func decodeAxis(f AxisField, buf []byte, base int) float64 {
	start := base + f.ByteOffset
	var raw int
	switch f.ByteCount {
	case 1:
		if start >= 0 && start < len(buf) {
			if f.Unsigned {
				raw = int(buf[start])
			} else {
				raw = int(int8(buf[start]))
			}
		}
	case 2:
		if start >= 0 && start+1 < len(buf) {
			var v uint16
			if f.LittleEndian {
				v = binary.LittleEndian.Uint16(buf[start : start+2])
			} else {
				v = binary.BigEndian.Uint16(buf[start : start+2])
			}
			if f.Unsigned {
				raw = int(v)
			} else {
				raw = int(int16(v))
			}
		}
	}
	span := f.RangeMax - f.RangeMin
	if span <= 0 {
		return 0
	}
	v := float64(raw-f.RangeMin) / float64(span)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func decodeButton(f ButtonField, buf []byte, base int) bool {
	idx := base + f.ByteOffset
	if idx < 0 || idx >= len(buf) || f.BitIndex < 0 || f.BitIndex > 7 {
		return false
	}
	return buf[idx]&(1<<uint(f.BitIndex)) != 0
}

func decodeHat(f HatField, buf []byte, base int) int {
	idx := base + f.ByteOffset
	if idx < 0 || idx >= len(buf) {
		return HatNeutral
	}
	mask := 1<<uint(f.BitCount) - 1
	v := int(buf[idx]>>uint(f.BitOffset)) & mask
	if v == f.CenterValue {
		return HatNeutral
	}
	return v
}
