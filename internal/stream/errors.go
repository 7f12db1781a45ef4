package stream

import (
	"errors"
	"fmt"
)

// ErrInterrupted reports that the backend explicitly aborted generation
// mid-turn. Distinct from transport failures so the caller can surface it
// differently.
var ErrInterrupted = errors.New("backend interrupted generation")

// TransportError wraps a connection-level failure: dial errors, dropped
// connections, write failures. Not retried by this package.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
