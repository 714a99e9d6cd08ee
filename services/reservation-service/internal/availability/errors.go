package availability

import "errors"

// Kind classifies business-rule failures. Infrastructure errors never carry a Kind.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindClosed
	KindInvalidWindow
	KindOutsideHours
	KindCapacityExceeded
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindClosed:
		return "closed"
	case KindInvalidWindow:
		return "invalid_window"
	case KindOutsideHours:
		return "outside_hours"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	default:
		return "unknown"
	}
}

// Error is a definitive availability outcome with a message fit for display.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrClosed) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrClosed           = &Error{Kind: KindClosed}
	ErrInvalidWindow    = &Error{Kind: KindInvalidWindow}
	ErrOutsideHours     = &Error{Kind: KindOutsideHours}
	ErrCapacityExceeded = &Error{Kind: KindCapacityExceeded}
)

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf reports the Kind of err, or false for infrastructure failures.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
