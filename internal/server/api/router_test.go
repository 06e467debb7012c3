package api_test

import (
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flightbridge/flightbridge/internal/server/api"
)

func noopHandler(req *api.Request, res *api.Response, logger *slog.Logger) error { return nil }

func TestRouterMatch(t *testing.T) {
	type testCase struct {
		name       string
		pattern    string
		path       string
		wantHit    bool
		wantParams map[string]string
	}

	testCases := []testCase{
		{
			name:       "exact path",
			pattern:    "capture/status",
			path:       "capture/status",
			wantHit:    true,
			wantParams: map[string]string{},
		},
		{
			name:       "literals fold case",
			pattern:    "Capture/Status",
			path:       "CAPTURE/status",
			wantHit:    true,
			wantParams: map[string]string{},
		},
		{
			name:       "placeholders bind path parts",
			pattern:    "profiles/{vid}/{pid}/get",
			path:       "profiles/044f/b10a/get",
			wantHit:    true,
			wantParams: map[string]string{"vid": "044f", "pid": "b10a"},
		},
		{
			name:    "segment count differs",
			pattern: "profiles/{vid}/{pid}/get",
			path:    "profiles/044f/get",
			wantHit: false,
		},
		{
			name:    "literal mismatch",
			pattern: "capture/start",
			path:    "capture/stop",
			wantHit: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := api.NewRouter()
			r.Register(tc.pattern, noopHandler)

			h, params := r.Match(tc.path)
			if !tc.wantHit {
				assert.Nil(t, h)
				return
			}
			if assert.NotNil(t, h) {
				assert.Equal(t, tc.wantParams, params)
			}
		})
	}
}

func TestRouterFirstRegisteredWins(t *testing.T) {
	r := api.NewRouter()
	var hit string
	r.Register("profiles/{vid}/{pid}/get", func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		hit = "placeholder"
		return nil
	})
	r.Register("profiles/one/two/get", func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		hit = "literal"
		return nil
	})

	h, _ := r.Match("profiles/one/two/get")
	if assert.NotNil(t, h) {
		assert.NoError(t, h(&api.Request{}, &api.Response{}, slog.Default()))
	}
	assert.Equal(t, "placeholder", hit)
}

func TestRouterStreamTableIsSeparate(t *testing.T) {
	r := api.NewRouter()
	r.RegisterStream("events", func(conn net.Conn, req *api.Request, logger *slog.Logger) error {
		return nil
	})

	h, _ := r.Match("events")
	assert.Nil(t, h)

	sh, params := r.MatchStream("events")
	assert.NotNil(t, sh)
	assert.Equal(t, map[string]string{}, params)
}
