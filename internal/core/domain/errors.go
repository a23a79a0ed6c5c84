package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConfiguration      = errors.New("configuration error")
	ErrExtraction         = errors.New("extraction failure")
	ErrIllegalTransition  = errors.New("illegal status transition")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError attaches a sentinel kind and the failing operation to an error
// so adapters can map it without losing the cause chain.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// IsKind reports whether err carries the given sentinel anywhere in its chain.
func IsKind(err, kind error) bool {
	return errors.Is(err, kind)
}
