// Package api provides the Box Content API client used by the browsing layers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
)

// ErrThumbnailNotAvailable indicates Box has no thumbnail for the file yet,
// or only a placeholder.
var ErrThumbnailNotAvailable = errors.New("thumbnail not available")

// APIError is a non-2xx answer from the Box API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("box api: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("box api: status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("box api: status %d", e.StatusCode)
	}
}

// boxErrorBody is the JSON error payload, e.g.
// {"type":"error","status":404,"code":"not_found","message":"...","request_id":"..."}
type boxErrorBody struct {
	Type      string `json:"type"`
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// newAPIError builds an APIError from a response status and body. A body
// that is not a Box error payload becomes the message verbatim.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload boxErrorBody
	if err := json.Unmarshal(body, &payload); err == nil && payload.Type == "error" {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
		apiErr.RequestID = payload.RequestID
		return apiErr
	}

	if len(body) > 0 {
		apiErr.Message = string(body)
	} else {
		apiErr.Message = nethttp.StatusText(status)
	}
	return apiErr
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == nethttp.StatusNotFound
}

// IsConflict reports whether err is a 409 from the API, which Box returns
// when an item with the same name already exists.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == nethttp.StatusConflict
}

// IsRateLimited reports whether err is a 429 that survived all retries.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == nethttp.StatusTooManyRequests
}
