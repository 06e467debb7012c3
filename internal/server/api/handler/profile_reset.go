package handler

import (
	"fmt"
	"log/slog"

	"github.com/flightbridge/flightbridge/internal/server/api"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
	"github.com/flightbridge/flightbridge/profile"
)

// ProfileReset returns a handler that replaces the device-scope profile with
// a fresh default. Game-scope profiles are left untouched.
func ProfileReset(store profile.Store) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		vid, pid, err := deviceIDs(req)
		if err != nil {
			return err
		}
		p, err := store.Reset(vid, pid)
		if err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to reset profile: %v", err))
		}
		return profileJSON(p, res)
	}
}
