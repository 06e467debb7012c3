package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	apitypes "github.com/flightbridge/flightbridge/apitypes"
	"github.com/flightbridge/flightbridge/profile"
)

// Client provides a high-level interface to the flightbridge API, handling
// request formatting, response parsing, and error handling.
type Client struct{ transport *Transport }

// New constructs a high-level API client using the internal low-level Transport.
// The addr parameter specifies the TCP address (host:port) of the flightbridge server.
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithPassword constructs a client that authenticates with the given password.
func NewWithPassword(addr, password string) *Client {
	return &Client{transport: NewTransportWithPassword(addr, password)}
}

// NewWithConfig constructs a client with custom transport timeouts.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client using a custom Transport implementation.
// This is primarily useful for testing or when advanced transport configuration is needed.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// Ping returns the version and identity of the flightbridge server.
func (c *Client) Ping() (*apitypes.PingResponse, error) {
	return c.PingCtx(context.Background())
}

// PingCtx is the context-aware version of Ping.
func (c *Client) PingCtx(ctx context.Context) (*apitypes.PingResponse, error) {
	const path = "ping"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.PingResponse](raw)
}

// Devices lists the flight devices currently visible to the server.
func (c *Client) Devices() (*apitypes.DevicesListResponse, error) {
	return c.DevicesCtx(context.Background())
}

func (c *Client) DevicesCtx(ctx context.Context) (*apitypes.DevicesListResponse, error) {
	const path = "devices/list"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.DevicesListResponse](raw)
}

// CaptureStart opens the device selected by req and begins translating its
// reports. Returns the resulting capture status.
func (c *Client) CaptureStart(req apitypes.CaptureStartRequest) (*apitypes.CaptureStatusResponse, error) {
	return c.CaptureStartCtx(context.Background(), req)
}

func (c *Client) CaptureStartCtx(ctx context.Context, req apitypes.CaptureStartRequest) (*apitypes.CaptureStatusResponse, error) {
	const path = "capture/start"
	raw, err := c.transport.DoCtx(ctx, path, req, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.CaptureStatusResponse](raw)
}

// CaptureStartPath starts capturing the device at the given path.
func (c *Client) CaptureStartPath(path string) (*apitypes.CaptureStatusResponse, error) {
	return c.CaptureStart(apitypes.CaptureStartRequest{Path: &path})
}

// CaptureStop stops any running capture. Stopping an idle server succeeds
// and reports stopped=false.
func (c *Client) CaptureStop() (*apitypes.CaptureStopResponse, error) {
	return c.CaptureStopCtx(context.Background())
}

func (c *Client) CaptureStopCtx(ctx context.Context) (*apitypes.CaptureStopResponse, error) {
	const path = "capture/stop"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.CaptureStopResponse](raw)
}

// CaptureStatus reports the current capture state.
func (c *Client) CaptureStatus() (*apitypes.CaptureStatusResponse, error) {
	return c.CaptureStatusCtx(context.Background())
}

func (c *Client) CaptureStatusCtx(ctx context.Context) (*apitypes.CaptureStatusResponse, error) {
	const path = "capture/status"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.CaptureStatusResponse](raw)
}

// Profiles summarizes every profile stored on the server.
func (c *Client) Profiles() (*apitypes.ProfilesListResponse, error) {
	return c.ProfilesCtx(context.Background())
}

func (c *Client) ProfilesCtx(ctx context.Context) (*apitypes.ProfilesListResponse, error) {
	const path = "profiles/list"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.ProfilesListResponse](raw)
}

// Profile loads one stored profile. An empty gameID addresses the device
// default.
func (c *Client) Profile(vendorID, productID uint16, gameID string) (*profile.Profile, error) {
	return c.ProfileCtx(context.Background(), vendorID, productID, gameID)
}

func (c *Client) ProfileCtx(ctx context.Context, vendorID, productID uint16, gameID string) (*profile.Profile, error) {
	const path = "profiles/{vid}/{pid}/get"
	raw, err := c.transport.DoCtx(ctx, path, scopePayload(gameID), deviceParams(vendorID, productID))
	if err != nil {
		return nil, err
	}
	return parse[profile.Profile](raw)
}

// ProfileSave validates and persists a full profile, scoped by its GameID.
// Returns the profile as stored.
func (c *Client) ProfileSave(p *profile.Profile) (*profile.Profile, error) {
	return c.ProfileSaveCtx(context.Background(), p)
}

func (c *Client) ProfileSaveCtx(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	const path = "profiles/{vid}/{pid}/save"
	raw, err := c.transport.DoCtx(ctx, path, p, deviceParams(p.VendorID, p.ProductID))
	if err != nil {
		return nil, err
	}
	return parse[profile.Profile](raw)
}

// ProfileReset replaces the device-scope profile with a fresh default and
// returns it. Game-scope profiles are left untouched.
func (c *Client) ProfileReset(vendorID, productID uint16) (*profile.Profile, error) {
	return c.ProfileResetCtx(context.Background(), vendorID, productID)
}

func (c *Client) ProfileResetCtx(ctx context.Context, vendorID, productID uint16) (*profile.Profile, error) {
	const path = "profiles/{vid}/{pid}/reset"
	raw, err := c.transport.DoCtx(ctx, path, nil, deviceParams(vendorID, productID))
	if err != nil {
		return nil, err
	}
	return parse[profile.Profile](raw)
}

// ProfileDelete removes one stored profile. An empty gameID addresses the
// device default.
func (c *Client) ProfileDelete(vendorID, productID uint16, gameID string) (*apitypes.ProfileDeleteResponse, error) {
	return c.ProfileDeleteCtx(context.Background(), vendorID, productID, gameID)
}

func (c *Client) ProfileDeleteCtx(ctx context.Context, vendorID, productID uint16, gameID string) (*apitypes.ProfileDeleteResponse, error) {
	const path = "profiles/{vid}/{pid}/delete"
	raw, err := c.transport.DoCtx(ctx, path, scopePayload(gameID), deviceParams(vendorID, productID))
	if err != nil {
		return nil, err
	}
	return parse[apitypes.ProfileDeleteResponse](raw)
}

// ProfileSetAxis patches one field of one axis mapping and returns the
// updated profile.
func (c *Client) ProfileSetAxis(vendorID, productID uint16, axis int, req apitypes.ProfileAxisUpdateRequest) (*profile.Profile, error) {
	return c.ProfileSetAxisCtx(context.Background(), vendorID, productID, axis, req)
}

func (c *Client) ProfileSetAxisCtx(ctx context.Context, vendorID, productID uint16, axis int, req apitypes.ProfileAxisUpdateRequest) (*profile.Profile, error) {
	const path = "profiles/{vid}/{pid}/axis/{i}"
	params := deviceParams(vendorID, productID)
	params["i"] = strconv.Itoa(axis)
	raw, err := c.transport.DoCtx(ctx, path, req, params)
	if err != nil {
		return nil, err
	}
	return parse[profile.Profile](raw)
}

// ProfileSetButton rebinds one button mapping to a named gamepad button and
// returns the updated profile.
func (c *Client) ProfileSetButton(vendorID, productID uint16, button int, req apitypes.ProfileButtonUpdateRequest) (*profile.Profile, error) {
	return c.ProfileSetButtonCtx(context.Background(), vendorID, productID, button, req)
}

func (c *Client) ProfileSetButtonCtx(ctx context.Context, vendorID, productID uint16, button int, req apitypes.ProfileButtonUpdateRequest) (*profile.Profile, error) {
	const path = "profiles/{vid}/{pid}/button/{i}"
	params := deviceParams(vendorID, productID)
	params["i"] = strconv.Itoa(button)
	raw, err := c.transport.DoCtx(ctx, path, req, params)
	if err != nil {
		return nil, err
	}
	return parse[profile.Profile](raw)
}

func deviceParams(vendorID, productID uint16) map[string]string {
	return map[string]string{
		"vid": fmt.Sprintf("%04x", vendorID),
		"pid": fmt.Sprintf("%04x", productID),
	}
}

func scopePayload(gameID string) any {
	if gameID == "" {
		return nil
	}
	return apitypes.ProfileScopeRequest{GameID: gameID}
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
