package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/internal/meta"
	"github.com/flightbridge/flightbridge/internal/server/api"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
)

// Ping returns a handler that reports the server identity and version.
func Ping() api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		out, err := json.Marshal(apitypes.PingResponse{
			Server:  meta.ServerName,
			Version: meta.ResolveVersion(),
		})
		if err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(out)
		return nil
	}
}
