package handler_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flightbridge/flightbridge/hid"
	"github.com/flightbridge/flightbridge/internal/server/api"
	"github.com/flightbridge/flightbridge/internal/server/api/handler"
	handlerTest "github.com/flightbridge/flightbridge/internal/testing"
)

func TestDevicesList(t *testing.T) {
	tests := []struct {
		name             string
		setup            func(t *testing.T, env *handlerTest.Env)
		expectedResponse string
	}{
		{
			name:             "no devices",
			setup:            nil,
			expectedResponse: `{"devices":[]}`,
		},
		{
			name: "two devices",
			setup: func(t *testing.T, env *handlerTest.Env) {
				env.Backend.SetDevices(
					hid.DeviceInfo{Path: "fake0", VendorID: 0x044f, ProductID: 0xb10a, Product: "T.16000M"},
					hid.DeviceInfo{Path: "fake1", VendorID: 0x231d, ProductID: 0x0200, Product: "Gladiator",
						SerialNumber: "128E5A21", Interface: 2, UsagePage: 0x01, Usage: 0x04},
				)
			},
			expectedResponse: `{"devices":[` +
				`{"path":"fake0","vid":"0x044f","pid":"0xb10a","product":"T.16000M"},` +
				`{"path":"fake1","vid":"0x231d","pid":"0x0200","product":"Gladiator",` +
				`"serialNumber":"128E5A21","interface":2,"usagePage":1,"usage":4}]}`,
		},
		{
			name: "enumeration failure",
			setup: func(t *testing.T, env *handlerTest.Env) {
				env.Backend.EnumerateErr = errors.New("hid subsystem gone")
			},
			expectedResponse: `{"status":500,"title":"Internal Server Error","detail":"failed to enumerate devices: hid subsystem gone"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, env, done := handlerTest.StartAPIServer(t, func(r *api.Router, env *handlerTest.Env, apiSrv *api.Server) {
				r.Register("devices/list", handler.DevicesList(env.Manager))
			})
			defer done()

			if tt.setup != nil {
				tt.setup(t, env)
			}
			line := handlerTest.ExecCmd(t, addr, "devices/list")
			assert.JSONEq(t, tt.expectedResponse, line)
		})
	}
}
