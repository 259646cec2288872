package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNetwork wraps transport failures (refused connections, timeouts) so
// callers can tell them apart from a server rejection.
var ErrNetwork = errors.New("network error")

// HTTPError represents a non-2xx HTTP response from the API, or a 2xx
// response whose body reports {"status": "error"}.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// Message returns the server's explanation for err, falling back to err's text.
func Message(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	if errors.Is(err, ErrNetwork) {
		return "could not reach the server"
	}
	return err.Error()
}

// errorMessage extracts a readable message from an error body. The API
// answers {"detail": "..."} or, for validation failures,
// {"detail": [{"msg": "..."}]}; older routes use {"message": "..."}.
func errorMessage(body []byte) string {
	var apiErr struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) != nil {
		return strings.TrimSpace(string(body))
	}
	if len(apiErr.Detail) > 0 {
		var s string
		if json.Unmarshal(apiErr.Detail, &s) == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(apiErr.Detail, &items) == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	if apiErr.Error != "" {
		return apiErr.Error
	}
	return strings.TrimSpace(string(body))
}
