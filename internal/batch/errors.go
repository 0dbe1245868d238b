package batch

import "errors"

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrJobNotActive = errors.New("job is no longer active")
	ErrValidation   = errors.New("invalid job submission")
	ErrShuttingDown = errors.New("service shutting down")
	ErrJobCancelled = errors.New("job cancelled by user")
)

// ValidationError rejects a submission before any job is created.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
