package apierror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flightbridge/flightbridge/apitypes"
	apierror "github.com/flightbridge/flightbridge/internal/server/api/error"
)

func TestConstructors(t *testing.T) {
	type testCase struct {
		name       string
		err        apitypes.ApiError
		wantStatus int
		wantTitle  string
	}

	testCases := []testCase{
		{name: "bad request", err: apierror.ErrBadRequest("x"), wantStatus: 400, wantTitle: "Bad Request"},
		{name: "unauthorized", err: apierror.ErrUnauthorized("x"), wantStatus: 401, wantTitle: "Unauthorized"},
		{name: "not found", err: apierror.ErrNotFound("x"), wantStatus: 404, wantTitle: "Not Found"},
		{name: "conflict", err: apierror.ErrConflict("x"), wantStatus: 409, wantTitle: "Conflict"},
		{name: "internal", err: apierror.ErrInternal("x"), wantStatus: 500, wantTitle: "Internal Server Error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantStatus, tc.err.Status)
			assert.Equal(t, tc.wantTitle, tc.err.Title)
			assert.Equal(t, "x", tc.err.Detail)
			assert.Equal(t, fmt.Sprintf("%d %s: x", tc.wantStatus, tc.wantTitle), tc.err.Error())
		})
	}
}

// Handlers return ApiError both by value and by pointer; either form must
// keep its status instead of collapsing to 500.
func TestWrapError(t *testing.T) {
	type testCase struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}

	notFound := apierror.ErrNotFound("no profile for 044f:b10a")
	testCases := []testCase{
		{
			name:       "value passes through",
			err:        notFound,
			wantStatus: 404,
			wantDetail: "no profile for 044f:b10a",
		},
		{
			name:       "pointer passes through",
			err:        &notFound,
			wantStatus: 404,
			wantDetail: "no profile for 044f:b10a",
		},
		{
			name:       "plain error becomes internal",
			err:        errors.New("hid subsystem gone"),
			wantStatus: 500,
			wantDetail: "hid subsystem gone",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := apierror.WrapError(tc.err)
			assert.Equal(t, tc.wantStatus, got.Status)
			assert.Equal(t, tc.wantDetail, got.Detail)
		})
	}
}
