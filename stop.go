package schedule

import "github.com/cockroachdb/errors"

// Stop marks err as terminal for Retry. Retry returns the unwrapped error at
// once, without consulting its schedule. Repeat treats every failure as
// terminal and returns it as is.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}

// IsStopped reports whether err was marked with Stop.
func IsStopped(err error) bool {
	var stopped *stopError
	return errors.As(err, &stopped)
}

type stopError struct {
	err error
}

func (e *stopError) Error() string {
	return e.err.Error()
}

func (e *stopError) Unwrap() error {
	return e.err
}
