package report

import "sync"

type deviceKey struct {
	vendorID  uint16
	productID uint16
}

var (
	defaultLayouts   = make(map[deviceKey]*Layout)
	defaultLayoutsMu sync.RWMutex
)

// RegisterDefault installs a built-in layout for a VID:PID pair. Later
// registrations replace earlier ones; profiles always take precedence over
// anything registered here.
func RegisterDefault(vendorID, productID uint16, l *Layout) {
	defaultLayoutsMu.Lock()
	defer defaultLayoutsMu.Unlock()
	defaultLayouts[deviceKey{vendorID, productID}] = l
}

// Builtin returns the built-in layout for a device, or nil when the device is
// unknown and capture should fall back to raw pass-through.
func Builtin(vendorID, productID uint16) *Layout {
	defaultLayoutsMu.RLock()
	defer defaultLayoutsMu.RUnlock()
	return defaultLayouts[deviceKey{vendorID, productID}]
}

// Built-in layouts for common flight sticks, throttles and yokes. These seed
// fresh profiles and describe the stock firmware report shapes; per-user
// profiles override them field by field.
func init() {
	// Thrustmaster T.16000M
	RegisterDefault(0x044F, 0xB10A, &Layout{
		Buttons: buttonRow(0, 0, 8, buttonRow(1, 0, 8, nil)),
		Hat:     &HatField{ByteOffset: 2, BitOffset: 0, BitCount: 4, CenterValue: 15},
		Axes: []AxisField{
			{ByteOffset: 3, ByteCount: 2, LittleEndian: true, Unsigned: true, RangeMin: 0, RangeMax: 16383},
			{ByteOffset: 5, ByteCount: 2, LittleEndian: true, Unsigned: true, RangeMin: 0, RangeMax: 16383},
			{ByteOffset: 7, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255},
			{ByteOffset: 8, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255},
		},
	})

	// Thrustmaster T.Flight HOTAS X
	RegisterDefault(0x044F, 0xB108, &Layout{
		Axes: []AxisField{
			{ByteOffset: 0, ByteCount: 2, LittleEndian: true, Unsigned: true, RangeMin: 0, RangeMax: 1023},
			{ByteOffset: 2, ByteCount: 2, LittleEndian: true, Unsigned: true, RangeMin: 0, RangeMax: 1023},
			{ByteOffset: 4, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255},
			{ByteOffset: 5, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255},
		},
		Hat:     &HatField{ByteOffset: 6, BitOffset: 0, BitCount: 4, CenterValue: 8},
		Buttons: buttonRow(6, 4, 4, buttonRow(7, 0, 8, nil)),
	})

	// CH Products Flight Sim Yoke
	RegisterDefault(0x068E, 0x00FF, &Layout{
		Axes: []AxisField{
			{ByteOffset: 0, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255},
			{ByteOffset: 1, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255},
			{ByteOffset: 2, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255},
			{ByteOffset: 3, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255},
			{ByteOffset: 4, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255},
		},
		Hat:     &HatField{ByteOffset: 5, BitOffset: 4, BitCount: 4, CenterValue: 15},
		Buttons: buttonRow(6, 0, 8, buttonRow(7, 0, 4, nil)),
	})

	// VKB Gladiator NXT
	RegisterDefault(0x231D, 0x0200, &Layout{
		SkipReportID: true,
		Axes: []AxisField{
			{ByteOffset: 0, ByteCount: 2, LittleEndian: true, Unsigned: true, RangeMin: 0, RangeMax: 4095},
			{ByteOffset: 2, ByteCount: 2, LittleEndian: true, Unsigned: true, RangeMin: 0, RangeMax: 4095},
			{ByteOffset: 4, ByteCount: 2, LittleEndian: true, Unsigned: true, RangeMin: 0, RangeMax: 4095},
			{ByteOffset: 6, ByteCount: 1, Unsigned: true, RangeMin: 0, RangeMax: 255},
		},
		Hat:     &HatField{ByteOffset: 7, BitOffset: 0, BitCount: 4, CenterValue: 8},
		Buttons: buttonRow(8, 0, 8, buttonRow(9, 0, 8, buttonRow(10, 0, 8, nil))),
	})
}

// buttonRow prepends count button bits starting at firstBit of one report
// byte to tail.
func buttonRow(byteOffset, firstBit, count int, tail []ButtonField) []ButtonField {
	row := make([]ButtonField, 0, count+len(tail))
	for bit := firstBit; bit < firstBit+count; bit++ {
		row = append(row, ButtonField{ByteOffset: byteOffset, BitIndex: bit})
	}
	return append(row, tail...)
}
