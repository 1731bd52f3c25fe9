package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// User-facing messages for transport level failures.
const (
	MsgSessionExpired = "Session expired. Please login again."
	MsgNetwork        = "Network error. Please check your connection."
)

var (
	// ErrBaseURLRequired is returned by New without a base URL.
	ErrBaseURLRequired = errors.New("client: base url is required")
	// ErrResourceRequired is returned when a record resource name is empty.
	ErrResourceRequired = errors.New("client: resource is required")
	// ErrIDRequired is returned when a path identifier is missing.
	ErrIDRequired = errors.New("client: id is required")
)

// Error is a failed remote call. Status is zero for network failures.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	var remote *Error
	return errors.As(err, &remote) && remote.Status == http.StatusUnauthorized
}

// IsNetwork reports whether err never reached the server.
func IsNetwork(err error) bool {
	var remote *Error
	return errors.As(err, &remote) && remote.Status == 0
}

func networkError(err error) *Error {
	return &Error{Message: MsgNetwork, Err: err}
}

// statusError builds the error for a non-2xx response. The body's message or
// error key wins over the generic status text.
func statusError(status int, body []byte) *Error {
	if status == http.StatusUnauthorized {
		return &Error{Status: status, Message: MsgSessionExpired}
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := strings.TrimSpace(payload.Message)
	if msg == "" {
		msg = strings.TrimSpace(payload.Error)
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d Error", status)
	}
	return &Error{Status: status, Message: msg}
}
