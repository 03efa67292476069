package persist

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a document or cache entry does not exist.
var ErrNotFound = errors.New("not found")

// #region malformed-error
// MalformedError reports a document that exists but does not decode.
type MalformedError struct {
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed document %s: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// #endregion malformed-error
