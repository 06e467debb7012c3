package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flightbridge/flightbridge/capture"
	"github.com/flightbridge/flightbridge/internal/server/api"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
)

// CaptureStatus returns a handler that reports the current capture state.
func CaptureStatus(m *capture.Manager) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		out, err := json.Marshal(statusResponse(m.Status()))
		if err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(out)
		return nil
	}
}
