// [forked] from [inet.af/netaddr]
// Copyright 2020 The Inet.Af AUTHORS. All rights reserved.
// Use of this source code is governed by a BSD-style license.

package prefix

import (
	"net/netip"
	"strings"
)

// ParseRange splits an inclusive address range "from-to" into the minimal,
// ascending list of prefixes covering it.
func ParseRange(s string) ([]Prefix, error) {
	fromText, toText, ok := strings.Cut(s, "-")
	if !ok {
		return nil, &ParseError{Kind: ErrMalformedToken, Token: s, Reason: "no hyphen in range"}
	}
	from, err := netip.ParseAddr(fromText)
	if err != nil {
		return nil, &ParseError{Kind: ErrMalformedToken, Token: s, Reason: "invalid from address"}
	}
	to, err := netip.ParseAddr(toText)
	if err != nil {
		return nil, &ParseError{Kind: ErrMalformedToken, Token: s, Reason: "invalid to address"}
	}
	if from.Zone() != "" || to.Zone() != "" {
		return nil, &ParseError{Kind: ErrMalformedToken, Token: s, Reason: "zoned address"}
	}
	if from.Is4() != to.Is4() {
		return nil, &ParseError{Kind: ErrFamilyMismatch, Token: s, Reason: "range mixes address families"}
	}
	if to.Less(from) {
		return nil, &ParseError{Kind: ErrMalformedToken, Token: s, Reason: "range end before start"}
	}
	a, b := fromAddr(from, 0), fromAddr(to, 0)
	return appendRangePrefixes(nil, a.fam, a.addr, b.addr), nil
}

func appendRangePrefixes(dst []Prefix, fam Family, a, b uint128) []Prefix {
	common, ok := comparePrefixes(a, b)
	if ok {
		return append(dst, Prefix{addr: a, bits: common - fam.offset(), fam: fam})
	}
	dst = appendRangePrefixes(dst, fam, a, a.bitsSetFrom(common+1))
	dst = appendRangePrefixes(dst, fam, b.bitsClearedFrom(common+1), b)
	return dst
}

// comparePrefixes returns the common prefix length of a and b and whether
// [a, b] is exactly that prefix: a has only zeros and b only ones after it.
func comparePrefixes(a, b uint128) (common uint8, aZeroBSet bool) {
	common = a.commonPrefixLen(b)
	if common == 128 {
		return common, true
	}
	m := mask128(common)
	return common, a.xor(a.and(m)).isZero() && b.or(m) == allOnes
}
