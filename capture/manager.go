// Package capture owns the flight-device capture lifecycle: claiming one HID
// device, decoding and mapping its reports, and pushing state to subscribers.
// A manager is either idle or capturing exactly one device; a periodic
// hotplug scan announces attached devices while idle but never opens one on
// its own.
package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flightbridge/flightbridge/gamepad"
	"github.com/flightbridge/flightbridge/hid"
	"github.com/flightbridge/flightbridge/mapping"
	"github.com/flightbridge/flightbridge/profile"
	"github.com/flightbridge/flightbridge/report"
)

var (
	// ErrDisabled rejects Start while the subsystem is switched off.
	ErrDisabled = errors.New("capture is disabled")
	// ErrNotFound rejects Start for paths absent from the enumeration.
	ErrNotFound = errors.New("device not found")
	// ErrDisposed rejects everything after Close.
	ErrDisposed = errors.New("capture manager disposed")
)

const (
	defaultHotplugInterval = 2 * time.Second
	subscriptionBufLen     = 64
)

// RawLogger receives every raw input report for traffic dumps.
type RawLogger interface {
	Log(data []byte)
}

// Config tunes a capture manager.
type Config struct {
	// Slot is the virtual controller slot mapped states target.
	Slot int
	// HotplugInterval paces the idle device scan; zero picks the default,
	// negative disables scanning.
	HotplugInterval time.Duration
	// Disabled starts the manager switched off; Start fails until enabled.
	Disabled bool
	// Raw, when set, gets a copy of every report read from the device.
	Raw RawLogger
}

type session struct {
	dev    hid.Device
	info   hid.DeviceInfo
	prof   *profile.Profile
	layout *report.Layout // nil runs the session in raw pass-through mode
	last   *gamepad.State
}

// Manager is the capture lifecycle. All mutation is serialized behind one
// mutex; device reads arrive over the device's bounded event channel and are
// folded in under the same lock, tagged with their session so a stale device
// can never touch a newer capture.
type Manager struct {
	backend hid.Backend
	store   profile.Store
	logger  *slog.Logger
	raw     RawLogger
	slot    int

	interval time.Duration
	quit     chan struct{}
	scanDone chan struct{}

	mu       sync.Mutex
	enabled  bool
	disposed bool
	session  *session
	lastSeen map[string]hid.DeviceInfo
	subs     map[*Subscription]struct{}
	lastRaw  []byte
}

// New builds a manager and starts its hotplug scan.
func New(backend hid.Backend, store profile.Store, cfg Config, logger *slog.Logger) *Manager {
	interval := cfg.HotplugInterval
	if interval == 0 {
		interval = defaultHotplugInterval
	}
	m := &Manager{
		backend:  backend,
		store:    store,
		logger:   logger,
		raw:      cfg.Raw,
		slot:     gamepad.ClampSlot(cfg.Slot),
		interval: interval,
		quit:     make(chan struct{}),
		scanDone: make(chan struct{}),
		enabled:  !cfg.Disabled,
		lastSeen: make(map[string]hid.DeviceInfo),
		subs:     make(map[*Subscription]struct{}),
	}
	if interval > 0 {
		go m.hotplugLoop()
	} else {
		close(m.scanDone)
	}
	return m
}

// Devices returns a fresh enumeration snapshot.
func (m *Manager) Devices() ([]hid.DeviceInfo, error) {
	return m.backend.Enumerate()
}

// Status describes the manager for the control API and the CLI.
type Status struct {
	Enabled        bool            `json:"enabled"`
	Capturing      bool            `json:"capturing"`
	Device         *hid.DeviceInfo `json:"device,omitempty"`
	ProfileKey     string          `json:"profileKey,omitempty"`
	RawPassthrough bool            `json:"rawPassthrough,omitempty"`
	ControllerSlot int             `json:"controllerSlot"`
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{Enabled: m.enabled && !m.disposed, ControllerSlot: m.slot}
	if sess := m.session; sess != nil {
		info := sess.info
		st.Capturing = true
		st.Device = &info
		st.ProfileKey = sess.prof.Key()
		st.RawPassthrough = sess.layout == nil
	}
	return st
}

// LastRaw returns a copy of the most recent raw report, kept for diagnostics.
func (m *Manager) LastRaw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastRaw == nil {
		return nil
	}
	return append([]byte(nil), m.lastRaw...)
}

// SetEnabled switches the subsystem on or off. Disabling stops any running
// capture; the hotplug scan pauses on its own while disabled.
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.enabled == enabled {
		return
	}
	m.enabled = enabled
	if !enabled {
		m.stopLocked()
	}
	m.logger.Info("capture subsystem toggled", "enabled", enabled)
}

// Start claims the device at path and begins capturing. A running capture is
// stopped first, so the manager ends up on the new device or, when the new
// device cannot be captured, idle with the returned error saying why.
func (m *Manager) Start(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.disposed:
		return ErrDisposed
	case !m.enabled:
		return ErrDisabled
	}

	// A new start displaces whatever capture is running.
	m.stopLocked()

	devices, err := m.backend.Enumerate()
	if err != nil {
		return fmt.Errorf("enumerate devices: %w", err)
	}
	var info hid.DeviceInfo
	found := false
	for _, d := range devices {
		if d.Path == path {
			info, found = d, true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	prof, err := m.store.GetOrCreate(info.VendorID, info.ProductID, info.Product)
	if err != nil {
		return fmt.Errorf("load profile for %s: %w", info.String(), err)
	}
	layout := prof.Layout
	if layout == nil {
		layout = report.Builtin(info.VendorID, info.ProductID)
	}

	dev, err := m.backend.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	sess := &session{dev: dev, info: info, prof: prof, layout: layout}
	m.session = sess
	go m.readLoop(sess)

	if layout == nil {
		m.logger.Warn("no report layout known, capturing raw pass-through", "device", info.String())
	}
	m.logger.Info("capture started", "device", info.String(), "profile", prof.Key(), "slot", m.slot)
	m.broadcastState(StateUpdate{
		Connected:  true,
		DeviceName: info.Product,
		Axes:       []float64{},
		Buttons:    []bool{},
		HatSwitch:  report.HatNeutral,
	})
	return nil
}

// Stop ends the running capture. Calling it while idle does nothing; the
// disconnect events are emitted exactly once per capture.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	sess := m.session
	if sess == nil {
		return
	}
	m.session = nil
	if err := sess.dev.Close(); err != nil {
		// Broken handles are expected here, e.g. after an unplug.
		m.logger.Debug("device close failed", "device", sess.info.String(), "error", err)
	}
	m.broadcastState(StateUpdate{
		Connected:  false,
		DeviceName: sess.info.Product,
		Axes:       []float64{},
		Buttons:    []bool{},
		HatSwitch:  report.HatNeutral,
	})
	m.broadcastGamepad(gamepad.Neutral(m.slot))
	m.logger.Info("capture stopped", "device", sess.info.String())
}

// Close disposes the manager: the hotplug scan terminates, any capture stops
// and all subscriptions close. The manager cannot be reused afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.stopLocked()
	for s := range m.subs {
		delete(m.subs, s)
		close(s.states)
		close(s.gamepads)
	}
	m.mu.Unlock()

	close(m.quit)
	<-m.scanDone
}

// Subscribe attaches a consumer. Subscriptions on a disposed manager are
// born closed.
func (m *Manager) Subscribe() *Subscription {
	s := &Subscription{
		states:   make(chan StateUpdate, subscriptionBufLen),
		gamepads: make(chan gamepad.State, subscriptionBufLen),
		m:        m,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		close(s.states)
		close(s.gamepads)
		return s
	}
	m.subs[s] = struct{}{}
	return s
}

func (m *Manager) unsubscribe(s *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[s]; !ok {
		return
	}
	delete(m.subs, s)
	close(s.states)
	close(s.gamepads)
}

// readLoop drains one device's event channel. It runs until the device
// closes; stale sessions fall out of the per-event checks.
func (m *Manager) readLoop(sess *session) {
	for ev := range sess.dev.Events() {
		if ev.Err != nil {
			m.handleError(sess, ev.Err)
			return
		}
		m.handleReport(sess, ev.Data)
	}
}

func (m *Manager) handleReport(sess *session, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != sess {
		return
	}

	m.lastRaw = append(m.lastRaw[:0], data...)
	if m.raw != nil {
		m.raw.Log(data)
	}

	upd := StateUpdate{
		Connected:  true,
		DeviceName: sess.info.Product,
		Axes:       []float64{},
		Buttons:    []bool{},
		HatSwitch:  report.HatNeutral,
		RawBytes:   append([]byte(nil), data...),
	}
	var sample report.Sample
	if sess.layout != nil {
		sample = report.Decode(sess.layout, data)
		upd.Axes = sample.Axes
		upd.Buttons = sample.Buttons
		upd.HatSwitch = sample.Hat
	}
	m.broadcastState(upd)

	if sess.layout == nil {
		return
	}
	st := mapping.Map(sample, sess.prof, m.slot)
	if gamepad.Changed(sess.last, st) {
		sess.last = &st
		m.broadcastGamepad(st)
	}
}

func (m *Manager) handleError(sess *session, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != sess {
		return
	}
	m.logger.Error("device error, stopping capture", "device", sess.info.String(), "error", err)
	m.stopLocked()
}

func (m *Manager) broadcastState(u StateUpdate) {
	for s := range m.subs {
		select {
		case s.states <- u:
		default:
			s.droppedStates++
			if s.droppedStates%subscriptionBufLen == 1 {
				m.logger.Debug("state updates dropped for slow subscriber", "dropped", s.droppedStates)
			}
		}
	}
}

func (m *Manager) broadcastGamepad(st gamepad.State) {
	for s := range m.subs {
		select {
		case s.gamepads <- st:
		default:
			s.droppedGamepads++
			if s.droppedGamepads%subscriptionBufLen == 1 {
				m.logger.Debug("gamepad updates dropped for slow subscriber", "dropped", s.droppedGamepads)
			}
		}
	}
}

// hotplugLoop announces device arrivals and removals while the manager sits
// idle. It never opens devices.
func (m *Manager) hotplugLoop() {
	defer close(m.scanDone)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
			m.scanOnce()
		}
	}
}

func (m *Manager) scanOnce() {
	m.mu.Lock()
	skip := m.disposed || !m.enabled || m.session != nil
	m.mu.Unlock()
	if skip {
		return
	}

	devices, err := m.backend.Enumerate()
	if err != nil {
		m.logger.Debug("hotplug scan failed", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]hid.DeviceInfo, len(devices))
	for _, d := range devices {
		seen[d.Path] = d
		if _, known := m.lastSeen[d.Path]; !known {
			m.logger.Info("flight device detected", "device", d.String())
		}
	}
	for path, d := range m.lastSeen {
		if _, still := seen[path]; !still {
			m.logger.Info("flight device removed", "device", d.String())
		}
	}
	m.lastSeen = seen
}
