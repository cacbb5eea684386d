package portal

import "fmt"

// ErrorKind classifies how a portal session failed. Nothing else about
// a transport or browser failure crosses out of this package.
type ErrorKind string

const (
	KindAuthFailed        ErrorKind = "AUTH_FAILED"
	KindNavigationTimeout ErrorKind = "NAVIGATION_TIMEOUT"
	KindElementNotFound   ErrorKind = "ELEMENT_NOT_FOUND"
	KindNetwork           ErrorKind = "NETWORK"
)

// Error is the typed failure of a portal session.
type Error struct {
	Kind ErrorKind
	Op   string // the step that failed, e.g. "login", "select department"
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("portal %s failed (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("portal %s failed (%s)", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
