// Package apierror builds the RFC 7807 problem responses the control API
// returns for failures.
package apierror

import "github.com/flightbridge/flightbridge/apitypes"

func problem(status int, title, detail string) apitypes.ApiError {
	return apitypes.ApiError{Status: status, Title: title, Detail: detail}
}

// ErrBadRequest rejects malformed paths, parameters, or payloads.
func ErrBadRequest(detail string) apitypes.ApiError { return problem(400, "Bad Request", detail) }

// ErrUnauthorized rejects connections that fail or skip the auth handshake.
func ErrUnauthorized(detail string) apitypes.ApiError { return problem(401, "Unauthorized", detail) }

// ErrNotFound covers unknown routes, devices, and profiles.
func ErrNotFound(detail string) apitypes.ApiError { return problem(404, "Not Found", detail) }

// ErrConflict reports an operation the current lifecycle state forbids.
func ErrConflict(detail string) apitypes.ApiError { return problem(409, "Conflict", detail) }

// ErrInternal is the fallback for unexpected failures.
func ErrInternal(detail string) apitypes.ApiError {
	return problem(500, "Internal Server Error", detail)
}

// WrapError normalizes any error into the problem shape. ApiError values and
// pointers pass through with their status; everything else becomes a 500
// carrying the error text.
func WrapError(err error) apitypes.ApiError {
	switch e := err.(type) {
	case apitypes.ApiError:
		return e
	case *apitypes.ApiError:
		return *e
	default:
		return ErrInternal(err.Error())
	}
}
