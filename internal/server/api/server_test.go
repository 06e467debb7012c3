package api_test

import (
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightbridge/flightbridge/apiclient"
	"github.com/flightbridge/flightbridge/internal/server/api"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
	th "github.com/flightbridge/flightbridge/internal/testing"
)

func TestAPIServer_RequestHandling(t *testing.T) {
	tests := []struct {
		name     string
		cmd      string
		expected string
	}{
		{
			name:     "registered handler",
			cmd:      "ping",
			expected: `{"server":"flightbridge"`,
		},
		{
			name:     "path is case insensitive",
			cmd:      "PING",
			expected: `{"server":"flightbridge"`,
		},
		{
			name:     "unknown path",
			cmd:      "nope",
			expected: `{"status":404,"title":"Not Found","detail":"unknown path: nope"}`,
		},
		{
			name:     "handler error is written as problem json",
			cmd:      "boom",
			expected: `{"status":409,"title":"Conflict","detail":"always fails"}`,
		},
		{
			name:     "empty request",
			cmd:      "",
			expected: `{"status":400,"title":"Bad Request","detail":"empty request"}`,
		},
	}

	addr, _, done := th.StartAPIServer(t, func(r *api.Router, env *th.Env, _ *api.Server) {
		r.Register("ping", func(req *api.Request, res *api.Response, logger *slog.Logger) error {
			res.JSON = `{"server":"flightbridge","version":"test"}`
			return nil
		})
		r.Register("boom", func(req *api.Request, res *api.Response, logger *slog.Logger) error {
			return apierror.ErrConflict("always fails")
		})
	})
	defer done()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := th.ExecCmd(t, addr, tt.cmd)
			if tt.expected != "" && tt.expected[0] == '{' && tt.expected[len(tt.expected)-1] == '}' {
				assert.JSONEq(t, tt.expected, line)
				return
			}
			assert.Contains(t, line, tt.expected)
		})
	}
}

func TestAPIServer_PathParams(t *testing.T) {
	addr, _, done := th.StartAPIServer(t, func(r *api.Router, env *th.Env, _ *api.Server) {
		r.Register("profiles/{vid}/{pid}/get", func(req *api.Request, res *api.Response, logger *slog.Logger) error {
			res.JSON = `{"vid":"` + req.Params["vid"] + `","pid":"` + req.Params["pid"] + `"}`
			return nil
		})
	})
	defer done()

	line := th.ExecCmd(t, addr, "profiles/044f/b10a/get")
	assert.JSONEq(t, `{"vid":"044f","pid":"b10a"}`, line)
}

func startAuthedServer(t *testing.T, password string) (addr string) {
	t.Helper()
	env := th.NewEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr = ln.Addr().String()
	_ = ln.Close()

	apiSrv := api.New(env.Manager, addr, api.ServerConfig{Addr: addr, Password: password}, slog.Default())
	apiSrv.Router().Register("ping", func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		res.JSON = `{"server":"flightbridge","version":"test"}`
		return nil
	})
	require.NoError(t, apiSrv.Start())
	t.Cleanup(apiSrv.Close)
	return addr
}

func TestAPIServer_Auth(t *testing.T) {
	addr := startAuthedServer(t, "s3cret")

	t.Run("plain request is rejected", func(t *testing.T) {
		line := th.ExecCmd(t, addr, "ping")
		assert.JSONEq(t, `{"status":401,"title":"Unauthorized","detail":"authentication required"}`, line)
	})

	t.Run("correct password", func(t *testing.T) {
		c := apiclient.NewWithPassword(addr, "s3cret")
		resp, err := c.Ping()
		require.NoError(t, err)
		assert.Equal(t, "flightbridge", resp.Server)
	})

	t.Run("wrong password", func(t *testing.T) {
		c := apiclient.NewWithPassword(addr, "nope")
		_, err := c.Ping()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401 Unauthorized")
	})
}
