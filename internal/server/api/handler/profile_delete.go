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

// ProfileDelete returns a handler that removes one stored profile. An
// optional payload selects a game scope; without it the device default is
// deleted.
func ProfileDelete(store profile.Store) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		vid, pid, err := deviceIDs(req)
		if err != nil {
			return err
		}
		gameID, err := scopeFromPayload(req.Payload)
		if err != nil {
			return err
		}
		if err := store.Delete(vid, pid, gameID); err != nil {
			return storeError(vid, pid, gameID, err)
		}
		out, err := json.Marshal(apitypes.ProfileDeleteResponse{
			Key:    profile.DeviceKey(vid, pid),
			GameID: gameID,
		})
		if err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(out)
		return nil
	}
}
