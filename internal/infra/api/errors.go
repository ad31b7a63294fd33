package api

import (
	"errors"
	"fmt"
)

// ErrTextDecode is returned when a text body is asked to decode into a type
// other than string or []byte.
var ErrTextDecode = errors.New("text body can only decode into string or []byte")

// APIError describes a response whose status fell outside 200-299.
type APIError struct {
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
	URL        string `json:"url"`
	// Data is the decoded error body: a map or slice for JSON, a string
	// for text bodies or when the request forced text parsing.
	Data any `json:"data,omitempty"`
}

func (e *APIError) Error() string {
	if msg := e.message(); msg != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.URL, e.Status, e.StatusText, msg)
	}
	return fmt.Sprintf("%s: %d %s", e.URL, e.Status, e.StatusText)
}

// message pulls the service's "msg" field out of a JSON error payload.
func (e *APIError) message() string {
	if m, ok := e.Data.(map[string]any); ok {
		msg, _ := m["msg"].(string)
		return msg
	}
	return ""
}

// IsStatus reports whether err is an *APIError carrying the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
