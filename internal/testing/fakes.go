// Package testing provides shared helpers for capture and API tests: an
// in-memory HID backend the test scripts, and a preconfigured in-process
// API server.
package testing

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/flightbridge/flightbridge/capture"
	"github.com/flightbridge/flightbridge/hid"
	"github.com/flightbridge/flightbridge/profile"
)

// FakeDevice is an hid.Device fed by the test. Reports queued after the
// device closes are dropped.
type FakeDevice struct {
	// CloseErr is returned from Close, emulating broken handles.
	CloseErr error

	mu     sync.Mutex
	closed bool
	events chan hid.Event
}

func NewFakeDevice() *FakeDevice {
	return &FakeDevice{events: make(chan hid.Event, 64)}
}

// Emit queues one input report.
func (d *FakeDevice) Emit(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.events <- hid.Event{Data: data}
}

// Fail queues a terminal read error and ends the stream.
func (d *FakeDevice) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.events <- hid.Event{Err: err}
	close(d.events)
}

func (d *FakeDevice) Events() <-chan hid.Event { return d.events }

// Closed reports whether Close or a terminal error ended the device.
func (d *FakeDevice) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *FakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	return d.CloseErr
}

// FakeBackend is an hid.Backend whose device list and open behavior the test
// controls.
type FakeBackend struct {
	// EnumerateErr, when set, fails every enumeration.
	EnumerateErr error
	// OpenErr, when set, fails every open.
	OpenErr error

	mu      sync.Mutex
	devices []hid.DeviceInfo
	handles map[string]*FakeDevice
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{handles: make(map[string]*FakeDevice)}
}

// SetDevices replaces the enumeration snapshot.
func (b *FakeBackend) SetDevices(infos ...hid.DeviceInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices = append([]hid.DeviceInfo(nil), infos...)
}

func (b *FakeBackend) Enumerate() ([]hid.DeviceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.EnumerateErr != nil {
		return nil, b.EnumerateErr
	}
	return append([]hid.DeviceInfo(nil), b.devices...), nil
}

func (b *FakeBackend) Open(path string) (hid.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	dev := NewFakeDevice()
	b.handles[path] = dev
	return dev, nil
}

// Handle returns the device handed out by the last Open for path, or nil.
func (b *FakeBackend) Handle(path string) *FakeDevice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handles[path]
}

// Env bundles the backend, store and manager most tests need.
type Env struct {
	Backend *FakeBackend
	Store   profile.Store
	Manager *capture.Manager
}

// NewEnv builds a manager over a fake backend and a temp-dir file store. The
// hotplug scan is disabled so the test controls enumeration timing.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	backend := NewFakeBackend()
	store, err := profile.NewFileStore(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("create store failed: %v", err)
	}
	m := capture.New(backend, store, capture.Config{HotplugInterval: -1}, slog.Default())
	t.Cleanup(m.Close)
	return &Env{Backend: backend, Store: store, Manager: m}
}
