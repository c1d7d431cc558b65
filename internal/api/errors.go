package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the cross-cutting authorization rules. Both are
// handled uniformly by the base client, never per call site.
var (
	// ErrNoToken indicates an authenticated call was attempted with no
	// session token; no network request was issued.
	ErrNoToken = errors.New("api: no session token")
	// ErrAuthExpired indicates the backend rejected the token (HTTP 401).
	ErrAuthExpired = errors.New("api: session expired")
)

// ValidationError carries field-level messages, either produced locally
// before any network call or decoded from a 400 response body.
type ValidationError struct {
	Msg    string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "api: validation failed: " + e.Msg
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return "api: validation failed: " + strings.Join(parts, "; ")
}

// ConflictError indicates a precondition no longer holds on the server,
// most commonly an artwork that was sold between page load and purchase.
// The affected entity must be re-synced, never retried blindly.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return "api: conflict: " + e.Msg
}

// NotFoundError indicates the requested entity does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return "api: " + e.Resource + " not found"
}

// ParseError indicates the backend answered with a payload the client
// could not map into its typed records.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("api: unexpected response shape: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NetworkError indicates the request never completed or the backend
// failed outright. It is surfaced to the user as a transient notice and
// is never retried automatically.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
