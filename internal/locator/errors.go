package locator

import "errors"

// Kind classifies a discovery failure.
type Kind int

const (
	// RootNotFound: the resolved root or the library inside it is missing.
	RootNotFound Kind = iota + 1
	// SdkNotFound: no override was given and no default SDK location exists.
	SdkNotFound
)

func (k Kind) String() string {
	switch k {
	case RootNotFound:
		return "root not found"
	case SdkNotFound:
		return "sdk not found"
	default:
		return "unknown"
	}
}

// Error is returned by Resolve. Tried and Vars list every path and
// variable consulted so the message is enough to self-diagnose.
type Error struct {
	Kind    Kind
	Message string
	Tried   []string
	Vars    []string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// IsRootNotFound reports whether err is a RootNotFound discovery error.
func IsRootNotFound(err error) bool { return kindOf(err) == RootNotFound }

// IsSdkNotFound reports whether err is a SdkNotFound discovery error.
func IsSdkNotFound(err error) bool { return kindOf(err) == SdkNotFound }

func kindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}
