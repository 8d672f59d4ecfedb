package wiki

import (
	"errors"
	"fmt"
)

// SearchError is returned when the nearby search itself fails. Status is the
// HTTP status of the response, or 200 when the API reported an error body.
type SearchError struct {
	Status  int
	Message string
}

func (e *SearchError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("nearby search failed (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("nearby search failed with status %d", e.Status)
}

// DetailFetchError records a failed summary fetch for a single search hit.
// It never reaches callers of SearchNearby; the hit is kept without details.
type DetailFetchError struct {
	Title string
	Err   error
}

func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("fetching details for %q: %v", e.Title, e.Err)
}

func (e *DetailFetchError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response from a wiki endpoint.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("wiki returned status %d", e.Status)
	}
	return fmt.Sprintf("wiki returned status %d: %s", e.Status, e.Body)
}

// AuthError is a login rejected by the wiki.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "login rejected: " + e.Reason }

// NotAuthenticatedError is returned when an operation needs a logged-in session.
type NotAuthenticatedError struct{}

func (NotAuthenticatedError) Error() string { return "login required" }

// ValidationError rejects input locally, before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// EditError is an edit rejected by the wiki.
type EditError struct {
	Code   string
	Reason string
}

func (e *EditError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("edit rejected (%s): %s", e.Code, e.Reason)
	}
	return "edit rejected: " + e.Reason
}

// IsNotAuthenticated reports whether err is, or wraps, a NotAuthenticatedError.
func IsNotAuthenticated(err error) bool {
	var na NotAuthenticatedError
	return errors.As(err, &na)
}
