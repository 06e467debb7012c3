package gamepad

import "strings"

// Button bitmasks, XInput compatible. Profiles store these masks directly so
// a single source button can assert several targets at once.
const (
	ButtonDPadUp    uint32 = 0x0001
	ButtonDPadDown  uint32 = 0x0002
	ButtonDPadLeft  uint32 = 0x0004
	ButtonDPadRight uint32 = 0x0008
	ButtonStart     uint32 = 0x0010
	ButtonBack      uint32 = 0x0020
	ButtonLThumb    uint32 = 0x0040 // Left stick click
	ButtonRThumb    uint32 = 0x0080 // Right stick click
	ButtonLShoulder uint32 = 0x0100 // Left bumper (LB)
	ButtonRShoulder uint32 = 0x0200 // Right bumper (RB)
	ButtonGuide     uint32 = 0x0400
	ButtonA         uint32 = 0x1000
	ButtonB         uint32 = 0x2000
	ButtonX         uint32 = 0x4000
	ButtonY         uint32 = 0x8000
)

var buttonNames = []struct {
	mask uint32
	name string
}{
	{ButtonDPadUp, "DPadUp"},
	{ButtonDPadDown, "DPadDown"},
	{ButtonDPadLeft, "DPadLeft"},
	{ButtonDPadRight, "DPadRight"},
	{ButtonStart, "Start"},
	{ButtonBack, "Back"},
	{ButtonLThumb, "LThumb"},
	{ButtonRThumb, "RThumb"},
	{ButtonLShoulder, "LB"},
	{ButtonRShoulder, "RB"},
	{ButtonGuide, "Guide"},
	{ButtonA, "A"},
	{ButtonB, "B"},
	{ButtonX, "X"},
	{ButtonY, "Y"},
}

// ButtonNames expands a button bitfield into the names of the set bits,
// in mask order. Used for logging and the live monitor view.
func ButtonNames(buttons uint32) []string {
	var names []string
	for _, b := range buttonNames {
		if buttons&b.mask != 0 {
			names = append(names, b.name)
		}
	}
	return names
}

// ButtonMask resolves a single button name back to its mask. The lookup is
// case-insensitive; unknown names return false.
func ButtonMask(name string) (uint32, bool) {
	for _, b := range buttonNames {
		if strings.EqualFold(b.name, name) {
			return b.mask, true
		}
	}
	return 0, false
}
