package enverr

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures so callers can map them to distinct
// exit codes and diagnostics.
type Kind int

const (
	// KindUnknown covers failures outside the taxonomy.
	KindUnknown Kind = iota
	// KindUnknownKey is returned when a key is not in the schema registry.
	KindUnknownKey
	// KindInvalidValue is returned when a value fails its key's validator,
	// or when a computed key is targeted by a write.
	KindInvalidValue
	// KindParse is returned for a malformed line in the persisted file.
	KindParse
	// KindIO is returned when the store path is unreadable or unwritable.
	KindIO
	// KindLocked is returned when the write lock cannot be acquired in time.
	KindLocked
)

// String returns the kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindUnknownKey:
		return "unknown key"
	case KindInvalidValue:
		return "invalid value"
	case KindParse:
		return "parse error"
	case KindIO:
		return "io error"
	case KindLocked:
		return "locked"
	default:
		return "error"
	}
}

// ExitCode maps a kind to the process exit code documented in the CLI help.
func (k Kind) ExitCode() int {
	switch k {
	case KindUnknownKey:
		return 2
	case KindInvalidValue:
		return 3
	case KindParse:
		return 4
	case KindIO:
		return 5
	case KindLocked:
		return 6
	default:
		return 1
	}
}

// Error is a classified engine error. Key, Path, and Line carry the
// offending identifiers when known; zero values mean "not applicable".
type Error struct {
	Kind Kind
	Key  string
	Path string
	Line int
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	switch {
	case e.Key != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Key)
	case e.Path != "" && e.Line > 0:
		msg = fmt.Sprintf("%s: %s:%d", msg, e.Path, e.Line)
	case e.Path != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UnknownKey reports a key that is not in the schema registry.
func UnknownKey(key string) error {
	return &Error{Kind: KindUnknownKey, Key: key}
}

// InvalidValue reports a value rejected by its key's validator.
func InvalidValue(key string, err error) error {
	return &Error{Kind: KindInvalidValue, Key: key, Err: err}
}

// Parse reports a malformed line in the persisted file.
func Parse(path string, line int, err error) error {
	return &Error{Kind: KindParse, Path: path, Line: line, Err: err}
}

// IO reports an unreadable or unwritable store path.
func IO(path string, err error) error {
	return &Error{Kind: KindIO, Path: path, Err: err}
}

// Locked reports write-lock contention past the bounded wait.
func Locked(path string, err error) error {
	return &Error{Kind: KindLocked, Path: path, Err: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors
// report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
