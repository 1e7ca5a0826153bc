package mattermost

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by the Mattermost client.
var (
	// ErrNotFound indicates the resource does not exist on the server.
	ErrNotFound = errors.New("not found on Mattermost")

	// ErrAuthFailed indicates login failed or the token was rejected.
	ErrAuthFailed = errors.New("Mattermost authentication failed")

	// ErrRateLimited indicates the server rate limit was exceeded.
	ErrRateLimited = errors.New("Mattermost rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with Mattermost")

	// ErrInvalidResponse indicates an unexpected API response shape.
	ErrInvalidResponse = errors.New("invalid response from Mattermost")
)

// APIError represents an error envelope from the Mattermost API.
// The server reports errors as {"id": ..., "message": ..., "status_code": ...}
// with the id identifying the failure (e.g. "store.sql_channel.get_by_name.missing.app_error").
type APIError struct {
	StatusCode int
	ID         string // Server error id
	Message    string
}

func (e *APIError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("Mattermost API error (status %d, id %s): %s", e.StatusCode, e.ID, e.Message)
	}
	return fmt.Sprintf("Mattermost API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404 || strings.Contains(apiErr.ID, "missing")
	}
	return false
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthFailed) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsAlreadyExists returns true if the error indicates the resource or
// membership already exists. Mattermost signals duplicate membership with
// error ids like "api.channel.add_member.exists.app_error".
func IsAlreadyExists(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.ID, "exists")
	}
	return false
}
