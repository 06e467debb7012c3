package handler_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightbridge/flightbridge/apiclient"
	"github.com/flightbridge/flightbridge/hid"
	"github.com/flightbridge/flightbridge/internal/server/api"
	"github.com/flightbridge/flightbridge/internal/server/api/handler"
	handlerTest "github.com/flightbridge/flightbridge/internal/testing"
)

func startCaptureAPI(t *testing.T) (addr string, env *handlerTest.Env, done func()) {
	t.Helper()
	return handlerTest.StartAPIServer(t, func(r *api.Router, env *handlerTest.Env, apiSrv *api.Server) {
		r.Register("capture/start", handler.CaptureStart(env.Manager))
		r.Register("capture/stop", handler.CaptureStop(env.Manager))
		r.Register("capture/status", handler.CaptureStatus(env.Manager))
	})
}

var stickInfo = hid.DeviceInfo{Path: "fake0", VendorID: 0x044f, ProductID: 0xb10a, Product: "T.16000M"}

func TestCaptureStart(t *testing.T) {
	tests := []struct {
		name             string
		setup            func(t *testing.T, env *handlerTest.Env)
		payload          string
		expectedResponse string
	}{
		{
			name: "start by path",
			setup: func(t *testing.T, env *handlerTest.Env) {
				env.Backend.SetDevices(stickInfo)
			},
			payload: `{"path":"fake0"}`,
			expectedResponse: `{"enabled":true,"capturing":true,` +
				`"device":{"path":"fake0","vid":"0x044f","pid":"0xb10a","product":"T.16000M"},` +
				`"profileKey":"044f:b10a","controllerSlot":0}`,
		},
		{
			name: "start by vid and pid",
			setup: func(t *testing.T, env *handlerTest.Env) {
				env.Backend.SetDevices(stickInfo)
			},
			payload: `{"vid":"0x044f","pid":"0xb10a"}`,
			expectedResponse: `{"enabled":true,"capturing":true,` +
				`"device":{"path":"fake0","vid":"0x044f","pid":"0xb10a","product":"T.16000M"},` +
				`"profileKey":"044f:b10a","controllerSlot":0}`,
		},
		{
			name:             "unknown path",
			setup:            func(t *testing.T, env *handlerTest.Env) { env.Backend.SetDevices(stickInfo) },
			payload:          `{"path":"gone"}`,
			expectedResponse: `{"status":404,"title":"Not Found","detail":"device gone not found"}`,
		},
		{
			name:             "unknown vid pid",
			setup:            func(t *testing.T, env *handlerTest.Env) { env.Backend.SetDevices(stickInfo) },
			payload:          `{"vid":"0xdead","pid":"0xbeef"}`,
			expectedResponse: `{"status":404,"title":"Not Found","detail":"no device with id dead:beef"}`,
		},
		{
			name:             "missing payload",
			setup:            nil,
			payload:          "",
			expectedResponse: `{"status":400,"title":"Bad Request","detail":"missing capture target"}`,
		},
		{
			name:             "payload without target",
			setup:            nil,
			payload:          `{}`,
			expectedResponse: `{"status":400,"title":"Bad Request","detail":"capture target requires path or vid and pid"}`,
		},
		{
			name: "open failure",
			setup: func(t *testing.T, env *handlerTest.Env) {
				env.Backend.SetDevices(stickInfo)
				env.Backend.OpenErr = errors.New("claimed by another process")
			},
			payload:          `{"path":"fake0"}`,
			expectedResponse: `{"status":500,"title":"Internal Server Error","detail":"failed to start capture: open fake0: claimed by another process"}`,
		},
		{
			name: "second start switches device",
			setup: func(t *testing.T, env *handlerTest.Env) {
				env.Backend.SetDevices(stickInfo,
					hid.DeviceInfo{Path: "fake1", VendorID: 0x231d, ProductID: 0x0200, Product: "Gladiator NXT"})
				require.NoError(t, env.Manager.Start("fake0"))
			},
			payload: `{"path":"fake1"}`,
			expectedResponse: `{"enabled":true,"capturing":true,` +
				`"device":{"path":"fake1","vid":"0x231d","pid":"0x0200","product":"Gladiator NXT"},` +
				`"profileKey":"231d:0200","controllerSlot":0}`,
		},
		{
			name: "disabled manager conflicts",
			setup: func(t *testing.T, env *handlerTest.Env) {
				env.Backend.SetDevices(stickInfo)
				env.Manager.SetEnabled(false)
			},
			payload:          `{"path":"fake0"}`,
			expectedResponse: `{"status":409,"title":"Conflict","detail":"capture is disabled"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, env, done := startCaptureAPI(t)
			defer done()
			if tt.setup != nil {
				tt.setup(t, env)
			}

			c := apiclient.NewTransport(addr)
			line, err := c.Do("capture/start", tt.payload, nil)
			assert.NoError(t, err)
			assert.JSONEq(t, tt.expectedResponse, line)
		})
	}
}

func TestCaptureStopAndStatus(t *testing.T) {
	addr, env, done := startCaptureAPI(t)
	defer done()
	env.Backend.SetDevices(stickInfo)

	c := apiclient.New(addr)

	st, err := c.CaptureStatus()
	require.NoError(t, err)
	assert.True(t, st.Enabled)
	assert.False(t, st.Capturing)
	assert.Nil(t, st.Device)

	_, err = c.CaptureStartPath("fake0")
	require.NoError(t, err)

	st, err = c.CaptureStatus()
	require.NoError(t, err)
	assert.True(t, st.Capturing)
	if assert.NotNil(t, st.Device) {
		assert.Equal(t, "fake0", st.Device.Path)
	}
	assert.Equal(t, "044f:b10a", st.ProfileKey)

	stop, err := c.CaptureStop()
	require.NoError(t, err)
	assert.True(t, stop.Stopped)

	// A second stop is a no-op, not an error.
	stop, err = c.CaptureStop()
	require.NoError(t, err)
	assert.False(t, stop.Stopped)

	st, err = c.CaptureStatus()
	require.NoError(t, err)
	assert.False(t, st.Capturing)
	assert.Nil(t, st.Device)
}
