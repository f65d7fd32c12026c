package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/luct-reporting/luct-bot/internal/models"
	"github.com/luct-reporting/luct-bot/internal/screen"
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string // server-provided message/msg, if any
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: http %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func newStatusError(method, path string, status int, body []byte) *StatusError {
	var m models.MessageResponse
	msg := ""
	if err := json.Unmarshal(body, &m); err == nil {
		msg = m.Text()
	} else if s := strings.TrimSpace(string(body)); len(s) > 0 && len(s) <= 200 && !strings.HasPrefix(s, "<") {
		msg = s
	}
	return &StatusError{Method: method, Path: path, Status: status, Message: msg}
}

// TransportError means no HTTP response was received.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means a 2xx body that did not match the expected shape.
type DecodeError struct {
	Method string
	Path   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: decode response: %v", e.Method, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func statusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

func IsForbidden(err error) bool    { return statusOf(err) == http.StatusForbidden }
func IsNotFound(err error) bool     { return statusOf(err) == http.StatusNotFound }
func IsUnauthorized(err error) bool { return statusOf(err) == http.StatusUnauthorized }

func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsSystem reports errors worth sending to error tracking: no response,
// an unreadable body or 5xx.
func IsSystem(err error) bool {
	return IsTransport(err) || IsDecode(err) || statusOf(err) >= 500
}

// ServerMessage returns the API's own message for err, or fallback.
func ServerMessage(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}

// NetworkMessage is shown whenever the API could not be reached.
const NetworkMessage = "Network error. Please check your connection and try again."

// ScreenError maps an API failure onto the screen taxonomy. fallback is the
// message used when the server did not supply one.
func ScreenError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	switch {
	case IsTransport(err):
		return screen.Transport(NetworkMessage, err)
	case IsDecode(err):
		return screen.Decode(fallback, err)
	case IsForbidden(err), IsUnauthorized(err):
		return &screen.Error{Kind: screen.KindDenied, Msg: ServerMessage(err, "Access denied."), Err: err}
	case IsNotFound(err):
		return screen.NotFound(ServerMessage(err, "Not found. Refresh and try again."), err)
	case statusOf(err) == http.StatusBadRequest, statusOf(err) == http.StatusConflict,
		statusOf(err) == http.StatusUnprocessableEntity:
		return &screen.Error{Kind: screen.KindValidation, Msg: ServerMessage(err, fallback), Err: err}
	default:
		return &screen.Error{Kind: screen.KindUnknown, Msg: ServerMessage(err, fallback), Err: err}
	}
}
