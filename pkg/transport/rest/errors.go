package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shamank/discovery-sdk-go/pkg/transport"
)

var (
	// ErrUnknownMethod aliases transport.ErrUnknownMethod.
	ErrUnknownMethod = transport.ErrUnknownMethod
	// ErrMissingParameter is returned when a required or path parameter is
	// absent.
	ErrMissingParameter = errors.New("missing required parameter")
	// ErrNoEndpoint is returned when neither the document nor the executor
	// provides a base URL.
	ErrNoEndpoint = errors.New("no endpoint for api")
)

// StatusError reports a response with a non-2xx status.
type StatusError struct {
	Method     string
	StatusCode int
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	text := http.StatusText(e.StatusCode)
	if e.Message != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Method, e.StatusCode, text, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Method, e.StatusCode, text)
}

// IsNotFound reports whether err is a StatusError with status 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

func newStatusError(method string, code int, body []byte) *StatusError {
	se := &StatusError{Method: method, StatusCode: code, Body: body}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		se.Message = payload.Error.Message
	}
	return se
}
