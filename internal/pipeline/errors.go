package pipeline

import "fmt"

// ValidationError is a user-correctable input problem, reported before
// any network or filesystem activity.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
