package handler

import (
	"log/slog"

	"github.com/flightbridge/flightbridge/internal/server/api"
	"github.com/flightbridge/flightbridge/profile"
)

// ProfileGet returns a handler that loads one stored profile. An optional
// payload selects a game scope; without it the device default is returned.
func ProfileGet(store profile.Store) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		vid, pid, err := deviceIDs(req)
		if err != nil {
			return err
		}
		gameID, err := scopeFromPayload(req.Payload)
		if err != nil {
			return err
		}
		p, err := store.Get(vid, pid, gameID)
		if err != nil {
			return storeError(vid, pid, gameID, err)
		}
		return profileJSON(p, res)
	}
}
