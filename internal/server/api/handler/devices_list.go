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

// DevicesList returns a handler that lists the flight devices visible to the
// capture backend.
func DevicesList(m *capture.Manager) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		infos, err := m.Devices()
		if err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to enumerate devices: %v", err))
		}
		out := make([]apitypes.Device, 0, len(infos))
		for _, info := range infos {
			out = append(out, deviceResponse(info))
		}
		payload, err := json.Marshal(apitypes.DevicesListResponse{Devices: out})
		if err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(payload)
		return nil
	}
}
