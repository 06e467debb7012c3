// Package report models HID input report layouts for flight-control devices
// and decodes raw report bytes into normalized samples.
package report

import "fmt"

// HatNeutral is the decoded hat value when the switch rests in its center.
const HatNeutral = -1

// AxisField locates one analog axis inside an input report.
type AxisField struct {
	// ByteOffset is relative to the payload start (after the report ID byte
	// when the layout skips one).
	ByteOffset int `json:"byteOffset" toml:"byte_offset"`
	// ByteCount is 1 or 2.
	ByteCount    int  `json:"byteCount" toml:"byte_count"`
	LittleEndian bool `json:"littleEndian" toml:"little_endian"`
	Unsigned     bool `json:"unsigned" toml:"unsigned"`
	// RangeMin/RangeMax bound the raw values the device emits; the decoded
	// axis is normalized against this span.
	RangeMin int `json:"rangeMin" toml:"range_min"`
	RangeMax int `json:"rangeMax" toml:"range_max"`
}

// ButtonField locates one button bit inside an input report.
type ButtonField struct {
	ByteOffset int `json:"byteOffset" toml:"byte_offset"`
	BitIndex   int `json:"bitIndex" toml:"bit_index"`
}

// HatField locates a hat switch packed into a single report byte.
type HatField struct {
	ByteOffset int `json:"byteOffset" toml:"byte_offset"`
	BitOffset  int `json:"bitOffset" toml:"bit_offset"`
	BitCount   int `json:"bitCount" toml:"bit_count"`
	// CenterValue is the raw value the device emits when the hat is released
	// (8 on most sticks, 15 on 4-bit all-ones encodings).
	CenterValue int `json:"centerValue" toml:"center_value"`
}

// Layout describes how to pull axes, buttons and the hat switch out of one
// device's input reports. A layout is immutable once a capture is running
// against it.
type Layout struct {
	// SkipReportID shifts all offsets by one byte for devices that prefix
	// reports with a numbered report ID.
	SkipReportID bool          `json:"skipReportId" toml:"skip_report_id"`
	Axes         []AxisField   `json:"axes" toml:"axes"`
	Buttons      []ButtonField `json:"buttons" toml:"buttons"`
	Hat          *HatField     `json:"hat,omitempty" toml:"hat,omitempty"`
}

// Validate rejects layouts the decoder cannot address. Decoding itself stays
// total; validation runs when a layout enters the profile store.
func (l *Layout) Validate() error {
	for i, a := range l.Axes {
		if a.ByteOffset < 0 {
			return fmt.Errorf("axis %d: negative byte offset", i)
		}
		if a.ByteCount != 1 && a.ByteCount != 2 {
			return fmt.Errorf("axis %d: byte count must be 1 or 2, got %d", i, a.ByteCount)
		}
		if a.RangeMax <= a.RangeMin {
			return fmt.Errorf("axis %d: empty raw range [%d,%d]", i, a.RangeMin, a.RangeMax)
		}
	}
	for i, b := range l.Buttons {
		if b.ByteOffset < 0 {
			return fmt.Errorf("button %d: negative byte offset", i)
		}
		if b.BitIndex < 0 || b.BitIndex > 7 {
			return fmt.Errorf("button %d: bit index must be 0-7, got %d", i, b.BitIndex)
		}
	}
	if h := l.Hat; h != nil {
		if h.ByteOffset < 0 {
			return fmt.Errorf("hat: negative byte offset")
		}
		if h.BitCount < 1 || h.BitCount > 8 {
			return fmt.Errorf("hat: bit count must be 1-8, got %d", h.BitCount)
		}
		if h.BitOffset < 0 || h.BitOffset+h.BitCount > 8 {
			return fmt.Errorf("hat: bits [%d,%d) exceed one byte", h.BitOffset, h.BitOffset+h.BitCount)
		}
	}
	return nil
}
