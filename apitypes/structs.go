package apitypes

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	// Status is the HTTP-style status code (e.g., 400, 404, 500)
	Status int `json:"status"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// --

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

type Device struct {
	Path         string `json:"path"`
	Vid          string `json:"vid"`
	Pid          string `json:"pid"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	// Interface is -1 on transports without USB interfaces; 0 is omitted.
	Interface int    `json:"interface,omitempty"`
	UsagePage uint16 `json:"usagePage,omitempty"`
	Usage     uint16 `json:"usage,omitempty"`
}

type DevicesListResponse struct {
	Devices []Device `json:"devices"`
}

type CaptureStatusResponse struct {
	Enabled        bool    `json:"enabled"`
	Capturing      bool    `json:"capturing"`
	Device         *Device `json:"device,omitempty"`
	ProfileKey     string  `json:"profileKey,omitempty"`
	RawPassthrough bool    `json:"rawPassthrough,omitempty"`
	ControllerSlot int     `json:"controllerSlot"`
}

type CaptureStopResponse struct {
	Stopped bool `json:"stopped"`
}

type CaptureStartRequest struct {
	Path *string `json:"path,omitempty"`
	Vid  *uint16 `json:"vid,omitempty"`
	Pid  *uint16 `json:"pid,omitempty"`
}

// UnmarshalJSON implements custom unmarshaling to accept both uint16 and hex string formats
// for vid and pid (e.g., "0x044f" or 1103).
func (r *CaptureStartRequest) UnmarshalJSON(data []byte) error {
	// Parse into a temporary structure with flexible types
	var raw struct {
		Path *string `json:"path,omitempty"`
		Vid  any     `json:"vid,omitempty"`
		Pid  any     `json:"pid,omitempty"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Path = raw.Path

	if raw.Vid != nil {
		val, err := parseUint16OrHex(raw.Vid)
		if err != nil {
			return fmt.Errorf("vid: %w", err)
		}
		r.Vid = &val
	}

	if raw.Pid != nil {
		val, err := parseUint16OrHex(raw.Pid)
		if err != nil {
			return fmt.Errorf("pid: %w", err)
		}
		r.Pid = &val
	}

	return nil
}

// ProfileScopeRequest selects the game scope for profile reads and deletes.
// An empty or absent gameId addresses the device default.
type ProfileScopeRequest struct {
	GameID string `json:"gameId,omitempty"`
}

type ProfileSummary struct {
	Key        string `json:"key"`
	GameID     string `json:"gameId,omitempty"`
	DeviceName string `json:"deviceName,omitempty"`
	Axes       int    `json:"axes"`
	Buttons    int    `json:"buttons"`
}

type ProfilesListResponse struct {
	Profiles []ProfileSummary `json:"profiles"`
}

// ProfileAxisUpdateRequest is the tagged-union payload for axis mapping
// edits: Param selects the field, Value carries its new value. The axis
// index and device identity come from the request path.
type ProfileAxisUpdateRequest struct {
	GameID string `json:"gameId,omitempty"`
	Param  string `json:"param"`
	Value  any    `json:"value"`
}

type ProfileButtonUpdateRequest struct {
	GameID string `json:"gameId,omitempty"`
	Button string `json:"button"`
}

type ProfileDeleteResponse struct {
	Key    string `json:"key"`
	GameID string `json:"gameId,omitempty"`
}

// StreamEvent is the envelope for pushed capture events. Data holds a
// type-specific JSON payload keyed by Type.
type StreamEvent struct {
	Type      string          `json:"type"`
	Seq       int64           `json:"seq"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

const (
	EventTypeState   = "state"
	EventTypeGamepad = "gamepad"
)

// parseUint16OrHex accepts either a JSON number or a hex string like "0x044f"
func parseUint16OrHex(v any) (uint16, error) {
	switch val := v.(type) {
	case float64:
		if val < 0 || val > 65535 {
			return 0, fmt.Errorf("value %v out of uint16 range", val)
		}
		return uint16(val), nil
	case string:
		s := strings.TrimSpace(val)
		base := 10
		if strings.HasPrefix(strings.ToLower(s), "0x") {
			s = s[2:]
			base = 16
		} else if len(s) > 0 {
			if strings.ContainsAny(s, "abcdefABCDEF") {
				base = 16
			}
		}
		parsed, err := strconv.ParseUint(s, base, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid hex/numeric string %q: %w", val, err)
		}
		return uint16(parsed), nil
	default:
		return 0, fmt.Errorf("expected number or hex string, got %T", v)
	}
}
