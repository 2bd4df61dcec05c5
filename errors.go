package longpdf

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the library.
var (
	// ErrClosed is returned when attempting to use a closed [Renderer].
	ErrClosed = errors.New("longpdf: renderer is closed")
)

// Kind classifies the failures a capture can end with.
type Kind string

const (
	// KindNavigation means the address could not be loaded: DNS failure,
	// refused connection, or a load failure reported by the browser.
	KindNavigation Kind = "navigation"
	// KindFilesystem means the PDF could not be written to its output path.
	KindFilesystem Kind = "filesystem"
	// KindEngine covers every other browser-level fault: launch failures,
	// crashed targets, script or print errors.
	KindEngine Kind = "engine"
	// KindVerify means the produced PDF did not pass the one-page check
	// enabled by [WithVerify].
	KindVerify Kind = "verify"
)

// Error is returned by every failing capture. The underlying error from
// the automation layer is preserved and reachable through [errors.Unwrap].
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("longpdf: %s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("longpdf: %s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err, or any error it wraps, is an [*Error] of
// the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
