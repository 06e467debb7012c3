package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/internal/server/api"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
	"github.com/flightbridge/flightbridge/profile"
)

// ProfileAxisUpdate returns a handler that patches one field of one axis
// mapping. The payload names the field and carries its new value; the axis
// index and device identity come from the path.
func ProfileAxisUpdate(store profile.Store) api.HandlerFunc {
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
			return apierror.ErrBadRequest("missing axis update payload")
		}
		var in apitypes.ProfileAxisUpdateRequest
		if err := json.Unmarshal([]byte(req.Payload), &in); err != nil {
			return apierror.ErrBadRequest(fmt.Sprintf("invalid payload: %v", err))
		}
		u, err := axisUpdateFromWire(in.Param, in.Value)
		if err != nil {
			return err
		}
		p, err := store.Get(vid, pid, in.GameID)
		if err != nil {
			return storeError(vid, pid, in.GameID, err)
		}
		if idx >= len(p.Axes) {
			return apierror.ErrNotFound(fmt.Sprintf("profile %s has no axis %d", p.Key(), idx))
		}
		updated, err := p.WithAxisUpdate(idx, u)
		if err != nil {
			return apierror.ErrBadRequest(fmt.Sprintf("invalid axis mapping: %v", err))
		}
		if err := store.Save(updated); err != nil {
			return apierror.ErrInternal(fmt.Sprintf("failed to save profile: %v", err))
		}
		return profileJSON(updated, res)
	}
}

// axisUpdateFromWire type-checks the loosely typed JSON value pair into a
// profile.AxisUpdate. JSON numbers arrive as float64; bounds are checked when
// the update is applied.
func axisUpdateFromWire(param string, value any) (profile.AxisUpdate, error) {
	u := profile.AxisUpdate{Param: profile.AxisParam(param)}
	switch u.Param {
	case profile.ParamTarget:
		s, ok := value.(string)
		if !ok {
			return u, apierror.ErrBadRequest("target must be a string")
		}
		u.Target = profile.AxisTarget(s)
	case profile.ParamInverted:
		b, ok := value.(bool)
		if !ok {
			return u, apierror.ErrBadRequest("inverted must be a boolean")
		}
		u.Inverted = b
	case profile.ParamDeadzone:
		f, ok := value.(float64)
		if !ok {
			return u, apierror.ErrBadRequest("deadzone must be a number")
		}
		u.Deadzone = f
	case profile.ParamSensitivity:
		f, ok := value.(float64)
		if !ok {
			return u, apierror.ErrBadRequest("sensitivity must be a number")
		}
		u.Sensitivity = f
	case profile.ParamCurve:
		s, ok := value.(string)
		if !ok {
			return u, apierror.ErrBadRequest("curve must be a string")
		}
		u.Curve = profile.Curve(s)
	case profile.ParamSourceIndex:
		f, ok := value.(float64)
		if !ok || f != math.Trunc(f) {
			return u, apierror.ErrBadRequest("sourceIndex must be an integer")
		}
		u.SourceIndex = int(f)
	default:
		return u, apierror.ErrBadRequest(fmt.Sprintf("unknown axis parameter %q", param))
	}
	return u, nil
}
