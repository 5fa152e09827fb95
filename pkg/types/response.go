package types

import (
	"encoding/json"
	"strings"
)

// APIError is the body of the commerce API's error envelope: {"error": {...}}.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// errorBody accepts both error shapes the backend emits:
// {"error":{"code","message"}} and {"status","error":"Not Found","message"}.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// ParseAPIError extracts the error reported in a failed response body. ok is false when the body
// is not JSON or carries no message.
func ParseAPIError(raw []byte) (APIError, bool) {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return APIError{}, false
	}

	var envelope APIError
	if len(body.Error) > 0 && json.Unmarshal(body.Error, &envelope) == nil && envelope.Message != "" {
		return envelope, true
	}

	// Spring-style bodies put the reason phrase in "error" and the explanation in "message".
	var reason string
	_ = json.Unmarshal(body.Error, &reason)
	if msg := strings.TrimSpace(body.Message); msg != "" {
		return APIError{Code: reason, Message: msg}, true
	}
	if reason != "" {
		return APIError{Code: reason, Message: reason}, true
	}
	return APIError{}, false
}
