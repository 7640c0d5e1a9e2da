package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"nil", nil, ""},
		{"plain string", "  Something broke  ", "Something broke"},
		{"html page", "<!DOCTYPE html><html>", ""},
		{"detail", map[string]any{"detail": "Not found."}, "Not found."},
		{"message wins over detail", map[string]any{"message": "m", "detail": "d"}, "m"},
		{"error wins over detail", map[string]any{"error": "e", "detail": "d"}, "e"},
		{"nested error object", map[string]any{"error": map[string]any{"message": "bad key"}}, "bad key"},
		{
			"field errors sorted",
			map[string]any{
				"amount": []any{"Ensure this value is greater than 0."},
				"donner": []any{"This field is required.", "Invalid pk."},
			},
			"amount: Ensure this value is greater than 0.; donner: This field is required., Invalid pk.",
		},
		{
			"non field errors have no prefix",
			map[string]any{"non_field_errors": []any{"Warning is already resolved."}},
			"Warning is already resolved.",
		},
		{
			"field errors with single messages",
			map[string]any{"amount": "A valid number is required.", "date": []any{"Enter a valid date."}},
			"amount: A valid number is required.; date: Enter a valid date.",
		},
		{"detail list is not a field", map[string]any{"detail": []any{"x"}}, "x"},
		{"list of strings", []any{"a", "b"}, "a, b"},
		{"unknown object", map[string]any{"status": 3}, ""},
		{"number", 42.0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPayload(tt.payload))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil, "x"))
	assert.Equal(t, "field: bad", Message(&Error{Status: 400, Message: "field: bad"}, "fallback"))
	assert.Equal(t, "fallback", Message(&Error{Status: 400}, "fallback"))
	assert.Equal(t, GenericMessage, Message(&Error{Status: 400}, ""))
	assert.Equal(t, GenericMessage, Message(&Error{Status: 502, Message: "upstream secrets"}, "fallback"))
	assert.Equal(t, GenericMessage, Message(&TransportError{Err: errors.New("connection refused")}, "fallback"))
	assert.Equal(t, ErrSessionExpired.Error(), Message(fmt.Errorf("list: %w", ErrSessionExpired), "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("decode"), "fallback"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", &Error{Status: 404})))
	assert.False(t, IsNotFound(&Error{Status: 400}))
	assert.False(t, IsNotFound(errors.New("404")))
}

func TestQueryValues(t *testing.T) {
	q := Query{Page: 2, PageSize: 20, Ordering: "-date", Filters: map[string]string{"donner": "3", "purpose": ""}}
	v := q.Values()
	assert.Equal(t, "2", v.Get("page"))
	assert.Equal(t, "20", v.Get("page_size"))
	assert.Equal(t, "-date", v.Get("ordering"))
	assert.Equal(t, "3", v.Get("donner"))
	assert.False(t, v.Has("purpose"), "empty filters are omitted")
	assert.Empty(t, Query{}.Values())
}
