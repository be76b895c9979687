package prefix

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LengthPair holds one prefix length per family. It configures the
// aggregation ceiling and the input length filter.
type LengthPair struct {
	V4 int
	V6 int
}

// DefaultMaxPrefixLen lets every prefix length pass.
var DefaultMaxPrefixLen = LengthPair{V4: 32, V6: 128}

// ErrLengthPair is wrapped by every ParseLengthPair failure.
var ErrLengthPair = errors.New("invalid prefix length pair")

// ParseLengthPair reads "n" or "v4,v6". A single value applies to both
// families; for IPv4 it is capped at 32.
func ParseLengthPair(s string) (LengthPair, error) {
	if v4s, v6s, ok := strings.Cut(s, ","); ok {
		v4, err := parseLen(v4s, 32)
		if err != nil {
			return LengthPair{}, err
		}
		v6, err := parseLen(v6s, 128)
		if err != nil {
			return LengthPair{}, err
		}
		return LengthPair{V4: v4, V6: v6}, nil
	}
	n, err := parseLen(s, 128)
	if err != nil {
		return LengthPair{}, err
	}
	return LengthPair{V4: min(n, 32), V6: n}, nil
}

func parseLen(s string, limit int) (int, error) {
	s = strings.TrimSpace(s)
	if !isDecimal(s) {
		return 0, fmt.Errorf("%w: [%s] is not an integer", ErrLengthPair, s)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > limit {
		return 0, fmt.Errorf("%w: [%s] out of range 0..%d", ErrLengthPair, s, limit)
	}
	return n, nil
}

// For returns the length configured for the family.
func (l LengthPair) For(f Family) int {
	if f == IPv4 {
		return l.V4
	}
	return l.V6
}

// String returns the "v4,v6" form.
func (l LengthPair) String() string { return strconv.Itoa(l.V4) + "," + strconv.Itoa(l.V6) }

// MarshalText implements encoding.TextMarshaler.
func (l LengthPair) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler, see ParseLengthPair.
func (l *LengthPair) UnmarshalText(b []byte) error {
	v, err := ParseLengthPair(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
