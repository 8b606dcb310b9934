package mixtape

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no mixtape exists for the given public id.
	ErrNotFound = errors.New("mixtape not found")

	// ErrConflict indicates a create with an already-used public id.
	ErrConflict = errors.New("public id already exists")

	// ErrAlreadyClaimed indicates a claim on a mixtape that has an owner.
	ErrAlreadyClaimed = errors.New("mixtape is already claimed")

	// ErrInvalidState indicates an undo with no undo target or a redo with
	// no redo target.
	ErrInvalidState = errors.New("operation not allowed in current state")
)

// ValidationError rejects caller-supplied content before any persistence
// work starts.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation checks whether err is a content validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
