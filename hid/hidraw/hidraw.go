//go:build linux

package hidraw

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/flightbridge/flightbridge/hid"
)

const (
	defaultSysfsRoot = "/sys/class/hidraw"
	defaultDevRoot   = "/dev"

	// reportBufSize covers the largest input reports flight devices send.
	reportBufSize = 256
	// eventBufLen bounds the queue between the read pump and the capture
	// loop; overruns drop reports instead of growing.
	eventBufLen = 64
	// pollTimeoutMs is how long a Close may go unnoticed while no reports
	// arrive.
	pollTimeoutMs = 250
)

// Backend enumerates and opens /dev/hidraw* nodes.
type Backend struct {
	logger    *slog.Logger
	sysfsRoot string
	devRoot   string
}

// New builds the hidraw backend against the live sysfs tree.
func New(logger *slog.Logger) *Backend {
	return &Backend{logger: logger, sysfsRoot: defaultSysfsRoot, devRoot: defaultDevRoot}
}

func (b *Backend) Enumerate() ([]hid.DeviceInfo, error) {
	return scan(b.sysfsRoot, b.devRoot)
}

func (b *Backend) Open(path string) (hid.Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	d := &device{
		fd:     fd,
		path:   path,
		logger: b.logger,
		events: make(chan hid.Event, eventBufLen),
		stop:   make(chan struct{}),
	}
	go d.pump()
	return d, nil
}

type device struct {
	fd        int
	path      string
	logger    *slog.Logger
	events    chan hid.Event
	stop      chan struct{}
	closeOnce sync.Once
}

func (d *device) Events() <-chan hid.Event { return d.events }

// Close signals the pump to stop. The pump owns the fd and closes it on the
// way out, so a blocked read can never race a closed descriptor.
func (d *device) Close() error {
	d.closeOnce.Do(func() { close(d.stop) })
	return nil
}

func (d *device) pump() {
	defer close(d.events)
	defer unix.Close(d.fd)

	buf := make([]byte, reportBufSize)
	var dropped uint64
	for {
		select {
		case <-d.stop:
			return
		default:
		}

		fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, pollTimeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			d.emitErr(fmt.Errorf("poll %s: %w", d.path, err))
			return
		}
		if n == 0 {
			continue
		}

		nr, err := unix.Read(d.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			d.emitErr(fmt.Errorf("read %s: %w", d.path, err))
			return
		}
		if nr <= 0 {
			continue
		}

		data := make([]byte, nr)
		copy(data, buf[:nr])
		select {
		case d.events <- hid.Event{Data: data}:
		default:
			dropped++
			if dropped == 1 || dropped%512 == 0 {
				d.logger.Debug("input reports dropped, consumer too slow",
					"path", d.path, "dropped", dropped)
			}
		}
	}
}

// emitErr delivers the terminal error unless the device is already closing.
func (d *device) emitErr(err error) {
	select {
	case d.events <- hid.Event{Err: err}:
	case <-d.stop:
	}
}
