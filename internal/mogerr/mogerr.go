// Package mogerr defines the error-kind taxonomy shared across mog's core
// packages, so the outer CLI can map failures to exit codes without string
// matching.
package mogerr

import "fmt"

// Kind enumerates the error categories a core operation can fail with.
type Kind int

const (
	// KindUnknown is the zero value; never constructed deliberately.
	KindUnknown Kind = iota
	KindIoError
	KindNotARepository
	KindCorruptObjectDatabase
	KindCorruptIndex
	KindHashTableFull
	KindNotFound
	KindTypeMismatch
	KindInvalidInput
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindIoError:
		return "IoError"
	case KindNotARepository:
		return "NotARepository"
	case KindCorruptObjectDatabase:
		return "CorruptObjectDatabase"
	case KindCorruptIndex:
		return "CorruptIndex"
	case KindHashTableFull:
		return "HashTableFull"
	case KindNotFound:
		return "NotFound"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindInvalidInput:
		return "InvalidInput"
	case KindConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying error with a Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, mogerr.Sentinel(mogerr.KindNotFound)) style
// checks by comparing Kind values whenever the target is itself a *Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error of the given kind, wrapping err (which may be nil).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinel returns a bare *Error of kind usable as an errors.Is target, e.g.
// errors.Is(err, mogerr.Sentinel(mogerr.KindNotFound)).
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}
