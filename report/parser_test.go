package report_test

import (
	"testing"

	"github.com/flightbridge/flightbridge/report"
	"github.com/stretchr/testify/assert"
)

func TestDecodeAxis(t *testing.T) {
	type testCase struct {
		name   string
		layout report.Layout
		buf    []byte
		want   float64
	}

	oneAxis := func(f report.AxisField, skipID bool) report.Layout {
		return report.Layout{SkipReportID: skipID, Axes: []report.AxisField{f}}
	}

	testCases := []testCase{
		{
			name:   "16-bit little endian full scale",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 2, LittleEndian: true, Unsigned: true, RangeMin: 0, RangeMax: 1023}, false),
			buf:    []byte{0xFF, 0x03},
			want:   1.0,
		},
		{
			name:   "16-bit big endian full scale",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 2, Unsigned: true, RangeMin: 0, RangeMax: 1023}, false),
			buf:    []byte{0x03, 0xFF},
			want:   1.0,
		},
		{
			name:   "16-bit little endian midpoint",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 2, LittleEndian: true, Unsigned: true, RangeMin: 0, RangeMax: 1024}, false),
			buf:    []byte{0x00, 0x02},
			want:   0.5,
		},
		{
			name:   "unsigned byte low end",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255}, false),
			buf:    []byte{0x00},
			want:   0.0,
		},
		{
			name:   "signed byte negative end",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 1, RangeMin: -127, RangeMax: 127}, false),
			buf:    []byte{0x81},
			want:   0.0,
		},
		{
			name:   "signed byte center",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 1, RangeMin: -127, RangeMax: 127}, false),
			buf:    []byte{0x00},
			want:   0.5,
		},
		{
			name:   "signed 16-bit positive end",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 2, LittleEndian: true, RangeMin: -32768, RangeMax: 32767}, false),
			buf:    []byte{0xFF, 0x7F},
			want:   1.0,
		},
		{
			name:   "report id byte skipped",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255}, true),
			buf:    []byte{0x01, 0x80},
			want:   128.0 / 255.0,
		},
		{
			name:   "raw value above range clamps to one",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 100}, false),
			buf:    []byte{0xC8},
			want:   1.0,
		},
		{
			name:   "raw value below range clamps to zero",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 1, Unsigned: true, RangeMin: 50, RangeMax: 100}, false),
			buf:    []byte{0x0A},
			want:   0.0,
		},
		{
			name:   "short buffer decodes as raw zero",
			layout: oneAxis(report.AxisField{ByteOffset: 4, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255}, false),
			buf:    []byte{0xFF, 0xFF},
			want:   0.0,
		},
		{
			name:   "two byte field cut off mid-field decodes as raw zero",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 2, LittleEndian: true, RangeMin: -512, RangeMax: 511}, false),
			buf:    []byte{0xFF},
			want:   0.5004887585532747,
		},
		{
			name:   "empty buffer decodes as raw zero",
			layout: oneAxis(report.AxisField{ByteOffset: 0, ByteCount: 2, LittleEndian: true, Unsigned: true, RangeMin: 0, RangeMax: 1023}, false),
			buf:    nil,
			want:   0.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := report.Decode(&tc.layout, tc.buf)
			if !assert.Len(t, s.Axes, 1) {
				return
			}
			assert.InDelta(t, tc.want, s.Axes[0], 1e-9)
		})
	}
}

func TestDecodeButtons(t *testing.T) {
	layout := report.Layout{
		Buttons: []report.ButtonField{
			{ByteOffset: 0, BitIndex: 0},
			{ByteOffset: 0, BitIndex: 7},
			{ByteOffset: 1, BitIndex: 3},
			{ByteOffset: 9, BitIndex: 0}, // beyond the buffer
		},
	}
	s := report.Decode(&layout, []byte{0x81, 0x08})
	assert.Equal(t, []bool{true, true, true, false}, s.Buttons)

	s = report.Decode(&layout, []byte{0x00, 0x00})
	assert.Equal(t, []bool{false, false, false, false}, s.Buttons)
}

func TestDecodeHat(t *testing.T) {
	type testCase struct {
		name string
		hat  report.HatField
		buf  []byte
		want int
	}

	testCases := []testCase{
		{
			name: "center value reads neutral",
			hat:  report.HatField{ByteOffset: 0, BitOffset: 0, BitCount: 4, CenterValue: 8},
			buf:  []byte{0x08},
			want: report.HatNeutral,
		},
		{
			name: "clock position passes through",
			hat:  report.HatField{ByteOffset: 0, BitOffset: 0, BitCount: 4, CenterValue: 8},
			buf:  []byte{0x01},
			want: 1,
		},
		{
			name: "high nibble extraction",
			hat:  report.HatField{ByteOffset: 0, BitOffset: 4, BitCount: 4, CenterValue: 15},
			buf:  []byte{0x6F},
			want: 6,
		},
		{
			name: "all-ones center encoding",
			hat:  report.HatField{ByteOffset: 0, BitOffset: 4, BitCount: 4, CenterValue: 15},
			buf:  []byte{0xF0},
			want: report.HatNeutral,
		},
		{
			name: "short buffer reads neutral",
			hat:  report.HatField{ByteOffset: 5, BitOffset: 0, BitCount: 4, CenterValue: 8},
			buf:  []byte{0x01},
			want: report.HatNeutral,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			layout := report.Layout{Hat: &tc.hat}
			assert.Equal(t, tc.want, report.Decode(&layout, tc.buf).Hat)
		})
	}
}

func TestDecodeNoHatField(t *testing.T) {
	layout := report.Layout{}
	assert.Equal(t, report.HatNeutral, report.Decode(&layout, []byte{0xFF}).Hat)
}

func TestDecodeDeterminism(t *testing.T) {
	layout := report.Builtin(0x044F, 0xB10A)
	if !assert.NotNil(t, layout) {
		return
	}
	buf := []byte{0xA5, 0x01, 0x0F, 0xFF, 0x3F, 0x00, 0x20, 0x80, 0x40}
	first := report.Decode(layout, buf)
	second := report.Decode(layout, buf)
	assert.Equal(t, first, second)
}

func TestLayoutValidate(t *testing.T) {
	type testCase struct {
		name    string
		layout  report.Layout
		wantErr string
	}

	testCases := []testCase{
		{
			name:   "empty layout is valid",
			layout: report.Layout{},
		},
		{
			name: "bad byte count",
			layout: report.Layout{
				Axes: []report.AxisField{{ByteCount: 3, RangeMax: 1}},
			},
			wantErr: "byte count",
		},
		{
			name: "empty raw range",
			layout: report.Layout{
				Axes: []report.AxisField{{ByteCount: 1, RangeMin: 10, RangeMax: 10}},
			},
			wantErr: "empty raw range",
		},
		{
			name: "bit index out of byte",
			layout: report.Layout{
				Buttons: []report.ButtonField{{BitIndex: 8}},
			},
			wantErr: "bit index",
		},
		{
			name: "hat bits spill over the byte",
			layout: report.Layout{
				Hat: &report.HatField{BitOffset: 6, BitCount: 4, CenterValue: 8},
			},
			wantErr: "exceed one byte",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.layout.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestBuiltinLayouts(t *testing.T) {
	known := [][2]uint16{
		{0x044F, 0xB10A},
		{0x044F, 0xB108},
		{0x068E, 0x00FF},
		{0x231D, 0x0200},
	}
	for _, key := range known {
		l := report.Builtin(key[0], key[1])
		if assert.NotNil(t, l, "%04x:%04x", key[0], key[1]) {
			assert.NoError(t, l.Validate(), "%04x:%04x", key[0], key[1])
		}
	}
	assert.Nil(t, report.Builtin(0xDEAD, 0xBEEF))
}
