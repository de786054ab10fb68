package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrLoginRequired is wrapped by the error returned when the session could
// not be refreshed and the user has to log in again
var ErrLoginRequired = errors.New("login required")

// Kind classifies a failed call
type Kind int

const (
	KindUnknown    Kind = iota
	KindNetwork         // No response received
	KindAuth            // 401
	KindForbidden       // 403
	KindValidation      // Other 4xx
	KindServer          // 5xx
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the normalized failure of an API call
type Error struct {
	Kind      Kind
	Status    int    // HTTP status, 0 for network failures
	Message   string // Server-provided message or a status-derived fallback
	RequestID string
	Err       error // Underlying cause, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text to show inline to the user
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindServer:
		return "Something went wrong on our side. Please try again later."
	case KindNetwork:
		return "Network error. Check your connection and try again."
	default:
		return e.Message
	}
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindValidation
	default:
		return KindUnknown
	}
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: "Network error", Err: err}
}

// errorFromResponse builds an Error from a non-2xx response body
func errorFromResponse(status int, body []byte) *Error {
	msg := extractMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}
	return &Error{
		Kind:    kindForStatus(status),
		Status:  status,
		Message: msg,
	}
}

// extractMessage pulls a message out of a JSON error body: detail, message
// or error fields, with list values (including whole-array bodies) joined.
// Returns "" for non-JSON bodies.
func extractMessage(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}

	switch body := v.(type) {
	case []any:
		return joinMessages(body)
	case map[string]any:
		for _, key := range []string{"detail", "message", "error"} {
			if msg := messageOf(body[key]); msg != "" {
				return msg
			}
		}
	case string:
		return body
	}
	return ""
}

func messageOf(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		return joinMessages(val)
	case map[string]any:
		for _, key := range []string{"msg", "message", "detail", "error"} {
			if s, ok := val[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func joinMessages(items []any) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case string:
			parts = append(parts, val)
		case map[string]any:
			if msg := messageOf(val); msg != "" {
				parts = append(parts, msg)
			}
		default:
			parts = append(parts, fmt.Sprint(val))
		}
	}
	return strings.Join(parts, ", ")
}
