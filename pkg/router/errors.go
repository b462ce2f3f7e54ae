package router

import (
	"errors"
	"fmt"
)

// ErrRequestDataEncode reports that a request's typed data payload could not
// be serialized. The whole schedule attempt is abandoned.
var ErrRequestDataEncode = errors.New("request data failed to encode")

// SchedulingError reports that the platform rejected a schedule call. It is
// recoverable: the caller decides whether to retry or drop the request.
type SchedulingError struct {
	RequestID string
	Err       error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scheduling request %s failed: %v", e.RequestID, e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }
