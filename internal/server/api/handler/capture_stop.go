package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/capture"
	"github.com/flightbridge/flightbridge/internal/server/api"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
)

// CaptureStop returns a handler that stops any running capture. Stopping an
// idle manager succeeds and reports stopped=false.
func CaptureStop(m *capture.Manager) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		wasCapturing := m.Status().Capturing
		m.Stop()
		out, err := json.Marshal(apitypes.CaptureStopResponse{Stopped: wasCapturing})
		if err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(out)
		return nil
	}
}
