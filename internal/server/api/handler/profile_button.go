package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/gamepad"
	"github.com/flightbridge/flightbridge/internal/server/api"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
	"github.com/flightbridge/flightbridge/profile"
)

// ProfileButtonUpdate returns a handler that rebinds one button mapping to a
// named gamepad button.
func ProfileButtonUpdate(store profile.Store) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		vid, pid, err := deviceIDs(req)
		if err != nil {
			return err
		}
		idx, err := mappingIndex(req)
		if err != nil {
			return err
		}
		if req.Payload == "" {
			return apierror.ErrBadRequest("missing button update payload")
		}
		var in apitypes.ProfileButtonUpdateRequest
		if err := json.Unmarshal([]byte(req.Payload), &in); err != nil {
			return apierror.ErrBadRequest(fmt.Sprintf("invalid payload: %v", err))
		}
		mask, ok := gamepad.ButtonMask(in.Button)
		if !ok {
			return apierror.ErrBadRequest(fmt.Sprintf("unknown button %q", in.Button))
		}
		p, err := store.Get(vid, pid, in.GameID)
		if err != nil {
			return storeError(vid, pid, in.GameID, err)
		}
		updated, err := p.WithButtonTarget(idx, mask)
		if err != nil {
			return apierror.ErrNotFound(fmt.Sprintf("profile %s has no button %d", p.Key(), idx))
		}
		if err := store.Save(updated); err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to save profile: %v", err))
		}
		return profileJSON(updated, res)
	}
}
