//go:build !linux

package hidraw

import (
	"errors"
	"log/slog"

	"github.com/flightbridge/flightbridge/hid"
)

// ErrUnsupported is returned on platforms without a hidraw interface.
var ErrUnsupported = errors.New("hidraw backend requires linux")

// Backend is a stub off Linux so the daemon still builds there.
type Backend struct{}

func New(logger *slog.Logger) *Backend { return &Backend{} }

func (b *Backend) Enumerate() ([]hid.DeviceInfo, error) { return nil, ErrUnsupported }

func (b *Backend) Open(path string) (hid.Device, error) { return nil, ErrUnsupported }
