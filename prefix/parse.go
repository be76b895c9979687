package prefix

import (
	"math/bits"
	"net/netip"
	"strconv"
	"strings"
)

// ParseToken turns one textual token into a canonical Prefix.
//
// Accepted notations:
//
//	192.0.2.0/24               CIDR length
//	192.0.2.0/255.255.255.0    dotted subnet mask (IPv4 only)
//	192.0.2.0/0.0.0.255        dotted wildcard mask (IPv4 only)
//	192.0.2.1, 2001:db8::1     bare address, host-length prefix
//	2001:db8::/32              IPv6 CIDR length
//
// A hint other than Unspecified must match the family of the literal address,
// otherwise ErrFamilyMismatch is returned. When bits beyond the prefix length
// are set, truncate clears them silently; without truncate the result is
// ErrHostBitsSet, carrying the canonical form of the token.
func ParseToken(text string, hint Family, truncate bool) (Prefix, error) {
	if text == "" {
		return Prefix{}, &ParseError{Kind: ErrMalformedToken, Token: text, Reason: "empty token"}
	}
	addrText, lenText, hasLen := strings.Cut(text, "/")
	addr, err := netip.ParseAddr(addrText)
	if err != nil {
		return Prefix{}, &ParseError{Kind: ErrMalformedToken, Token: text, Reason: err.Error()}
	}
	if addr.Zone() != "" {
		return Prefix{}, &ParseError{Kind: ErrMalformedToken, Token: text, Reason: "zoned address"}
	}

	fam := IPv6
	if addr.Is4() {
		fam = IPv4
	}
	n := fam.Width()
	if hasLen {
		if n, err = parseLength(text, lenText, fam); err != nil {
			return Prefix{}, err
		}
	}

	raw := fromAddr(addr, uint8(n))
	p := raw.masked()
	if hint != Unspecified && hint != fam {
		return Prefix{}, &ParseError{
			Kind:      ErrFamilyMismatch,
			Token:     text,
			Canonical: p.String(),
			Reason:    "want " + hint.String() + ", have " + fam.String(),
		}
	}
	if p != raw && !truncate {
		return Prefix{}, &ParseError{Kind: ErrHostBitsSet, Token: text, Canonical: p.String()}
	}
	return p, nil
}

// MustParse is like ParseToken without hint and truncation, but panics on error.
// It simplifies static initialisation and tests.
func MustParse(s string) Prefix {
	p, err := ParseToken(s, Unspecified, false)
	if err != nil {
		panic(err)
	}
	return p
}

// parseLength reads the part after the slash, a decimal length or an IPv4 mask.
func parseLength(token, s string, fam Family) (int, error) {
	if isDecimal(s) {
		n, err := strconv.ParseUint(s, 10, 8)
		if err != nil || int(n) > fam.Width() {
			return 0, &ParseError{Kind: ErrMalformedToken, Token: token, Reason: "invalid prefix length"}
		}
		return int(n), nil
	}
	if fam == IPv6 {
		return 0, &ParseError{Kind: ErrInvalidMask, Token: token, Reason: "mask form is not valid for IPv6 address"}
	}
	m, err := netip.ParseAddr(s)
	if err != nil || !m.Is4() {
		return 0, &ParseError{Kind: ErrMalformedToken, Token: token, Reason: "unable to parse mask"}
	}
	b := m.As4()
	n, ok := maskLen(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
	if !ok {
		return 0, &ParseError{Kind: ErrInvalidMask, Token: token, Reason: "mask is not contiguous"}
	}
	return n, nil
}

// maskLen converts a subnet mask (ones then zeros) or a wildcard mask
// (zeros then ones) to a prefix length. A mask without a leading one bit is
// read as wildcard, so 0.0.0.0 means /32.
func maskLen(m uint32) (int, bool) {
	if ones := bits.LeadingZeros32(^m); ones > 0 {
		return ones, ones+bits.TrailingZeros32(m) == 32
	}
	zeros := bits.LeadingZeros32(m)
	return zeros, zeros+bits.TrailingZeros32(^m) == 32
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
