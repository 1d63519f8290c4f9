package series

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a table could not be constructed.
type ErrorKind string

const (
	// KindEmptyInput means the recording had no samples to work with,
	// or segmentation had no events to segment against.
	KindEmptyInput ErrorKind = "empty_input"
	// KindDataIntegrity means timestamps were out of order or duplicated.
	KindDataIntegrity ErrorKind = "data_integrity"
	// KindNotSupported means the recording requires a derivation this
	// package refuses to approximate, such as rebuilding distance from
	// coordinates.
	KindNotSupported ErrorKind = "not_supported"
	// KindUnitAmbiguity means a channel arrived with a unit that cannot
	// be normalized.
	KindUnitAmbiguity ErrorKind = "unit_ambiguity"
)

// Error is a structural problem with an input recording. Callers match on
// Kind via errors.As or the Is* helpers.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func hasKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// IsEmptyInput reports whether err is an empty-input construction failure.
func IsEmptyInput(err error) bool { return hasKind(err, KindEmptyInput) }

// IsDataIntegrity reports whether err is a timestamp-ordering failure.
func IsDataIntegrity(err error) bool { return hasKind(err, KindDataIntegrity) }

// IsNotSupported reports whether err is a refused derivation.
func IsNotSupported(err error) bool { return hasKind(err, KindNotSupported) }

// IsUnitAmbiguity reports whether err is an unresolvable unit.
func IsUnitAmbiguity(err error) bool { return hasKind(err, KindUnitAmbiguity) }
