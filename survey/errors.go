package survey

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound     = errors.New("survey not found")
	ErrUnauthorized = errors.New("not authorized")
	ErrLocked       = errors.New("survey has expired")
)

// ValidationError is returned for a submission that cannot be accepted.
// Missing holds the texts of unanswered required questions, Problems every
// other rejected answer.
type ValidationError struct {
	Missing  []string `json:"missing,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required answers: "+strings.Join(e.Missing, ", "))
	}
	parts = append(parts, e.Problems...)
	return strings.Join(parts, "; ")
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Problems) == 0
}

// StoreError wraps a persistence failure. It is never retried here.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
