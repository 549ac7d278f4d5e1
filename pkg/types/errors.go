package types

import (
	"errors"
	"fmt"
)

// Catalog and entity errors. Every error surfaced by a session matches one
// of these through errors.Is.
var (
	ErrUnknownType          = errors.New("unknown type")
	ErrUnknownProperty      = errors.New("unknown property")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrInvalidDataType      = errors.New("invalid data type")
	ErrProtectedEntity      = errors.New("built-in entity is read-only")
	ErrClosedSession        = errors.New("session is closed")
	ErrStorageFailure       = errors.New("storage failure")
	ErrNotFound             = errors.New("entity not found")
	ErrInvalidName          = errors.New("invalid name")
	ErrDuplicateName        = errors.New("duplicate name")
	ErrEntityDeleted        = errors.New("entity is deleted")
	ErrUnpersistedReference = errors.New("referenced entity has not been persisted")
)

// Error carries one of the sentinel kinds above together with a message and
// an optional underlying cause.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Is matches the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Errorf builds an Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// StorageError wraps an error returned by the relational gateway. The op
// names the statement or step that failed. A nil cause yields nil.
func StorageError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var te *Error
	if errors.As(cause, &te) && te.Kind == ErrStorageFailure {
		return cause
	}
	return &Error{Kind: ErrStorageFailure, Msg: op, Cause: cause}
}

// IsStorageFailure reports whether err came from the relational gateway.
func IsStorageFailure(err error) bool {
	return errors.Is(err, ErrStorageFailure)
}
