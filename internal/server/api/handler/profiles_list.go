package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/internal/server/api"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
	"github.com/flightbridge/flightbridge/profile"
)

// ProfilesList returns a handler that summarizes every stored profile.
func ProfilesList(store profile.Store) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		all, err := store.All()
		if err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to list profiles: %v", err))
		}
		out := make([]apitypes.ProfileSummary, 0, len(all))
		for _, p := range all {
			out = append(out, apitypes.ProfileSummary{
				Key:        p.Key(),
				GameID:     p.GameID,
				DeviceName: p.DeviceName,
				Axes:       len(p.Axes),
				Buttons:    len(p.Buttons),
			})
		}
		payload, err := json.Marshal(apitypes.ProfilesListResponse{Profiles: out})
		if err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(payload)
		return nil
	}
}
