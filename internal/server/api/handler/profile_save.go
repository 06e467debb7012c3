package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flightbridge/flightbridge/internal/server/api"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
	"github.com/flightbridge/flightbridge/profile"
)

// ProfileSave returns a handler that validates and persists a full profile.
// The device identity comes from the path; a payload naming a different
// vid/pid is rejected.
func ProfileSave(store profile.Store) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		vid, pid, err := deviceIDs(req)
		if err != nil {
			return err
		}
		if req.Payload == "" {
			return apierror.ErrBadRequest("missing profile payload")
		}
		var p profile.Profile
		if err := json.Unmarshal([]byte(req.Payload), &p); err != nil {
			return apierror.ErrBadRequest(fmt.Sprintf("invalid profile: %v", err))
		}
		if p.VendorID == 0 && p.ProductID == 0 {
			p.VendorID, p.ProductID = vid, pid
		}
		if p.VendorID != vid || p.ProductID != pid {
			return apierror.ErrBadRequest(fmt.Sprintf(
				"profile identity %s does not match path %s", p.Key(), profile.DeviceKey(vid, pid)))
		}
		if err := p.Validate(); err != nil {
			return apierror.ErrBadRequest(fmt.Sprintf("invalid profile: %v", err))
		}
		if err := store.Save(&p); err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to save profile: %v", err))
		}
		return profileJSON(&p, res)
	}
}
