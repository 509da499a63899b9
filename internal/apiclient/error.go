package apiclient

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 1 << 20

// Error is the single failure shape of the API layer. Transport failures,
// rejected requests and unreadable payloads all surface as *Error; only the
// message is meant for display.
type Error struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message extracts the human-readable message from err, or "" when err
// carries none.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// errorFromResponse normalizes a non-success response into an *Error.
func errorFromResponse(resp *http.Response) *Error {
	statusText := http.StatusText(resp.StatusCode)
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return &Error{StatusCode: resp.StatusCode, Message: orDefault(statusText, "API Error: ")}
	}
	if msg := detailMessage(body.Detail); msg != "" {
		return &Error{StatusCode: resp.StatusCode, Message: msg}
	}
	return &Error{StatusCode: resp.StatusCode, Message: "API Error: " + statusText}
}

// detailMessage reads a FastAPI-style detail: either a plain string or a
// list of validation errors carrying msg fields.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(raw)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
