package errors

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrEmptyWords      = fmt.Errorf("no words have been found")
	ErrInvalidFrame    = fmt.Errorf("invalid frame")
	ErrUnknownFrame    = fmt.Errorf("unknown frame type")
	ErrEmptyIdentity   = fmt.Errorf("username or email is required")
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrInvalidTime     = fmt.Errorf("invalid timestamp")
	ErrUnknownDriver   = fmt.Errorf("unknown storage driver")
	ErrPushRejected    = fmt.Errorf("push provider rejected notification")
)

// Join wraps the non-nil errs into one error, nil when all are nil.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
