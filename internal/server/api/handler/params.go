// Package handler contains the control API request handlers. Each constructor
// binds its dependencies and returns an api.HandlerFunc.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/capture"
	"github.com/flightbridge/flightbridge/hid"
	"github.com/flightbridge/flightbridge/internal/server/api"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
	"github.com/flightbridge/flightbridge/profile"
)

// deviceIDs extracts the vid/pid path parameters. Both accept bare hex
// ("044f") or 0x-prefixed hex ("0x044f").
func deviceIDs(req *api.Request) (uint16, uint16, error) {
	vid, err := parseHexID(req.Params["vid"], "vid")
	if err != nil {
		return 0, 0, err
	}
	pid, err := parseHexID(req.Params["pid"], "pid")
	if err != nil {
		return 0, 0, err
	}
	return vid, pid, nil
}

func parseHexID(s, name string) (uint16, error) {
	if s == "" {
		return 0, apierror.ErrBadRequest(fmt.Sprintf("missing %s parameter", name))
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(trimmed, 16, 16)
	if err != nil {
		return 0, apierror.ErrBadRequest(fmt.Sprintf("invalid %s: %v", name, err))
	}
	return uint16(v), nil
}

// mappingIndex extracts the axis or button index path parameter.
func mappingIndex(req *api.Request) (int, error) {
	s, ok := req.Params["i"]
	if !ok {
		return 0, apierror.ErrBadRequest("missing index parameter")
	}
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, apierror.ErrBadRequest(fmt.Sprintf("invalid mapping index %q", s))
	}
	return idx, nil
}

// scopeFromPayload reads the optional gameId selector carried by profile
// reads and deletes. An empty payload addresses the device default.
func scopeFromPayload(payload string) (string, error) {
	if payload == "" {
		return "", nil
	}
	var in apitypes.ProfileScopeRequest
	if err := json.Unmarshal([]byte(payload), &in); err != nil {
		return "", apierror.ErrBadRequest(fmt.Sprintf("invalid payload: %v", err))
	}
	return in.GameID, nil
}

func deviceResponse(info hid.DeviceInfo) apitypes.Device {
	return apitypes.Device{
		Path:         info.Path,
		Vid:          fmt.Sprintf("0x%04x", info.VendorID),
		Pid:          fmt.Sprintf("0x%04x", info.ProductID),
		Product:      info.Product,
		SerialNumber: info.SerialNumber,
		Interface:    info.Interface,
		UsagePage:    info.UsagePage,
		Usage:        info.Usage,
	}
}

func statusResponse(st capture.Status) apitypes.CaptureStatusResponse {
	out := apitypes.CaptureStatusResponse{
		Enabled:        st.Enabled,
		Capturing:      st.Capturing,
		ProfileKey:     st.ProfileKey,
		RawPassthrough: st.RawPassthrough,
		ControllerSlot: st.ControllerSlot,
	}
	if st.Device != nil {
		d := deviceResponse(*st.Device)
		out.Device = &d
	}
	return out
}

func profileJSON(p *profile.Profile, res *api.Response) error {
	out, err := json.Marshal(p)
	if err != nil {
		return apierror.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
	}
	res.JSON = string(out)
	return nil
}

// storeError maps profile store failures onto API errors.
func storeError(vendorID, productID uint16, gameID string, err error) error {
	if errors.Is(err, profile.ErrNotFound) {
		key := profile.DeviceKey(vendorID, productID)
		if gameID != "" {
			return apierror.ErrNotFound(fmt.Sprintf("no profile for %s game %s", key, gameID))
		}
		return apierror.ErrNotFound(fmt.Sprintf("no profile for %s", key))
	}
	return apierror.ErrInternal(fmt.Sprintf("profile store: %v", err))
}
