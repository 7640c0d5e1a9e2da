package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// GenericMessage is shown when nothing more specific can be said.
const GenericMessage = "An unexpected error occurred. Please try again."

// ErrSessionExpired is returned once a token refresh has failed and the
// stored credentials were cleared.
var ErrSessionExpired = errors.New("your session has expired, please sign in again")

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Payload any    // decoded JSON body, or the raw body text
	Message string // normalized display text, may be empty
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// NotFound reports whether the backend answered 404.
func (e *Error) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.NotFound()
}

// TransportError wraps failures that never produced an HTTP response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message turns any error returned by this package into a display string.
// Server errors and transport failures collapse to a generic text so that
// internals are not shown to the user; fallback is used when the backend
// said nothing usable.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if fallback == "" {
		fallback = GenericMessage
	}
	if errors.Is(err, ErrSessionExpired) {
		return ErrSessionExpired.Error()
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 500 {
			return GenericMessage
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}

	var te *TransportError
	if errors.As(err, &te) {
		return GenericMessage
	}
	return fallback
}

// FormatPayload normalizes a backend error body into one line.
//
// Accepted shapes, in order: a plain string; an object carrying "message",
// "error" or "detail"; an object whose values are message lists or single
// messages ({"field": ["m1", "m2"]} -> "field: m1, m2", fields joined by
// "; "). Returns "" when the payload has none of these shapes.
func FormatPayload(payload any) string {
	switch p := payload.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(p)
		if strings.HasPrefix(s, "<") {
			// HTML error pages are not user facing.
			return ""
		}
		return s
	case []any:
		return joinMessages(p)
	case map[string]any:
		for _, key := range []string{"message", "error", "detail"} {
			if v, ok := p[key]; ok {
				if s := FormatPayload(v); s != "" {
					return s
				}
			}
		}
		if isFieldErrors(p) {
			return formatFieldErrors(p)
		}
		return ""
	default:
		return ""
	}
}

func isFieldErrors(p map[string]any) bool {
	if len(p) == 0 {
		return false
	}
	for _, v := range p {
		switch v.(type) {
		case []any, string:
		default:
			return false
		}
	}
	return true
}

func formatFieldErrors(p map[string]any) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var msgs string
		switch v := p[k].(type) {
		case string:
			msgs = strings.TrimSpace(v)
		case []any:
			msgs = joinMessages(v)
		}
		if msgs == "" {
			continue
		}
		if k == "non_field_errors" {
			parts = append(parts, msgs)
			continue
		}
		parts = append(parts, k+": "+msgs)
	}
	return strings.Join(parts, "; ")
}

func joinMessages(list []any) string {
	var out []string
	for _, item := range list {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			if s := FormatPayload(v); s != "" {
				out = append(out, s)
			}
		default:
			if v != nil {
				out = append(out, fmt.Sprint(v))
			}
		}
	}
	return strings.Join(out, ", ")
}
