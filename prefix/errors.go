package prefix

import "errors"

// Kinds of parse failures, matched with errors.Is against a *ParseError.
var (
	ErrMalformedToken = errors.New("malformed token")
	ErrInvalidMask    = errors.New("invalid mask")
	ErrFamilyMismatch = errors.New("address family mismatch")
	ErrHostBitsSet    = errors.New("host bits set")
)

// ParseError describes a token that could not be turned into a Prefix.
type ParseError struct {
	Kind      error  // one of the Err* kinds above
	Token     string // literal input text
	Canonical string // masked address/length form, when the token got that far
	Reason    string // optional detail
}

func (e *ParseError) Error() string {
	msg := "[prefix] [" + e.Kind.Error() + "] [" + e.Token + "]"
	if e.Canonical != "" {
		msg += " [canonical " + e.Canonical + "]"
	}
	if e.Reason != "" {
		msg += " [" + e.Reason + "]"
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Kind }
