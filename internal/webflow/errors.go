package webflow

import (
	"encoding/json"
	"fmt"
)

// APIError is a non-2xx response whose body was available. Message is taken
// from the body's "message" or "msg" field when present.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return "Webflow API error: " + e.Message
}

// HTTPError is a non-2xx response without a body.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

// newStatusError normalizes a failed response.
func newStatusError(status int, body []byte) error {
	httpErr := &HTTPError{StatusCode: status}
	if len(body) == 0 {
		return httpErr
	}

	return &APIError{
		StatusCode: status,
		Message:    extractMessage(body, httpErr.Error()),
		Body:       body,
	}
}

func extractMessage(body []byte, fallback string) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	for _, key := range []string{"message", "msg"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
