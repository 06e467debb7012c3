package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/capture"
	"github.com/flightbridge/flightbridge/internal/server/api"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
	"github.com/flightbridge/flightbridge/profile"
)

// CaptureStart returns a handler that opens a device and begins translating
// its reports, displacing any capture already running. The payload selects
// the device by path or by vid/pid.
func CaptureStart(m *capture.Manager) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		if req.Payload == "" {
			return apierror.ErrBadRequest("missing capture target")
		}
		var in apitypes.CaptureStartRequest
		if err := json.Unmarshal([]byte(req.Payload), &in); err != nil {
			return apierror.ErrBadRequest(fmt.Sprintf("invalid payload: %v", err))
		}
		path, err := resolveTarget(m, in)
		if err != nil {
			return err
		}
		if err := m.Start(path); err != nil {
			return startError(path, err)
		}
		out, err := json.Marshal(statusResponse(m.Status()))
		if err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(out)
		return nil
	}
}

// resolveTarget turns the start request into a device path. A vid/pid pair is
// resolved against the current enumeration.
func resolveTarget(m *capture.Manager, in apitypes.CaptureStartRequest) (string, error) {
	if in.Path != nil && *in.Path != "" {
		return *in.Path, nil
	}
	if in.Vid == nil || in.Pid == nil {
		return "", apierror.ErrBadRequest("capture target requires path or vid and pid")
	}
	infos, err := m.Devices()
	if err != nil {
		return "", apierror.ErrInternal(fmt.Sprintf("failed to enumerate devices: %v", err))
	}
	for _, info := range infos {
		if info.VendorID == *in.Vid && info.ProductID == *in.Pid {
			return info.Path, nil
		}
	}
	return "", apierror.ErrNotFound(fmt.Sprintf("no device with id %s", profile.DeviceKey(*in.Vid, *in.Pid)))
}

func startError(path string, err error) error {
	switch {
	case errors.Is(err, capture.ErrNotFound):
		return apierror.ErrNotFound(fmt.Sprintf("device %s not found", path))
	case errors.Is(err, capture.ErrDisabled):
		return apierror.ErrConflict("capture is disabled")
	case errors.Is(err, capture.ErrDisposed):
		return apierror.ErrConflict("capture manager is closed")
	default:
		return apierror.ErrInternal(fmt.Sprintf("failed to start capture: %v", err))
	}
}
