// Package hid defines the host HID access layer capture sessions consume:
// enumeration of attached flight-control devices and exclusive read access to
// one device's raw input reports.
package hid

import "fmt"

// DeviceInfo identifies one attached HID device. It is a snapshot taken at
// enumeration time; only Path is guaranteed stable for reopening.
type DeviceInfo struct {
	// Path is the opaque identifier a capture is started against.
	Path         string `json:"path"`
	VendorID     uint16 `json:"vendorId"`
	ProductID    uint16 `json:"productId"`
	Product      string `json:"product"`
	Manufacturer string `json:"manufacturer,omitempty"`
	// SerialNumber is the per-unit id, when the device reports one. It is
	// what tells two identical sticks apart.
	SerialNumber string `json:"serialNumber,omitempty"`
	// Interface is the USB interface number the HID node hangs off, or -1
	// on transports without interfaces (bluetooth, i2c).
	Interface int `json:"interface"`
	// UsagePage and Usage carry the device's top-level HID usage pair
	// (0x01/0x04 is a generic-desktop joystick); zero when undetermined.
	UsagePage uint16 `json:"usagePage,omitempty"`
	Usage     uint16 `json:"usage,omitempty"`
}

func (i DeviceInfo) String() string {
	return fmt.Sprintf("%04x:%04x %s (%s)", i.VendorID, i.ProductID, i.Product, i.Path)
}

// Event is one read outcome from an open device: an input report, or the
// terminal error that ends the stream.
type Event struct {
	Data []byte
	Err  error
}

// Device is an open, exclusively-claimed HID device.
type Device interface {
	// Events yields input reports in arrival order over a bounded channel.
	// The channel closes after a terminal error event or after Close; reports
	// that arrive faster than the consumer drains are dropped, never queued
	// unboundedly.
	Events() <-chan Event
	// Close releases the device. Safe to call more than once; pending events
	// may still be delivered before the channel closes.
	Close() error
}

// Backend enumerates and opens HID devices on the host.
type Backend interface {
	Enumerate() ([]DeviceInfo, error)
	Open(path string) (Device, error)
}
