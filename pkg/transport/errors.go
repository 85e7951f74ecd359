package transport

import "errors"

// ErrUnknownMethod is returned when a request names a method its document
// does not declare.
var ErrUnknownMethod = errors.New("unknown method")
