// Package prefix holds the canonical, family-aware representation of an IP
// network prefix, the bit operations aggregation needs (containment, sibling
// test, supernet) and the parsers that turn textual notations into it.
//
// A Prefix is a small comparable value. Two prefixes with the same family,
// network address and length are interchangeable, so == is the identity test.
package prefix

import (
	"cmp"
	"net/netip"
)

// Family is an IP address family.
type Family uint8

// Unspecified is the zero Family. ParseToken reads it as "no hint".
const (
	Unspecified Family = iota
	IPv4
	IPv6
)

// Width returns the bit width of addresses in the family.
func (f Family) Width() int {
	switch f {
	case IPv4:
		return 32
	case IPv6:
		return 128
	}
	return 0
}

func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	}
	return "unspecified"
}

// offset is the position of the family's first bit inside a uint128.
func (f Family) offset() uint8 {
	if f == IPv4 {
		return 96
	}
	return 0
}

// mask returns the network mask of a prefix length within the family.
func (f Family) mask(bits uint8) uint128 { return mask128(f.offset() + bits) }

// Prefix is an IPv4 or IPv6 network prefix in canonical form: all bits
// beyond the prefix length are zero. The zero Prefix is invalid.
type Prefix struct {
	addr uint128
	bits uint8
	fam  Family
}

// FromNetip converts a netip.Prefix, clearing host bits.
// An invalid or zoned input yields the zero Prefix and false.
func FromNetip(p netip.Prefix) (Prefix, bool) {
	if !p.IsValid() || p.Addr().Zone() != "" {
		return Prefix{}, false
	}
	return fromAddr(p.Addr(), uint8(p.Bits())).masked(), true
}

// fromAddr builds a possibly non-canonical Prefix, bits must fit the family.
func fromAddr(a netip.Addr, bits uint8) Prefix {
	if a.Is4() {
		return Prefix{addr: u128From4(a.As4()), bits: bits, fam: IPv4}
	}
	return Prefix{addr: u128From16(a.As16()), bits: bits, fam: IPv6}
}

func (p Prefix) masked() Prefix {
	p.addr = p.addr.and(p.fam.mask(p.bits))
	return p
}

// IsValid reports whether p was built by this package, as opposed to being the zero value.
func (p Prefix) IsValid() bool { return p.fam != Unspecified }

// Family returns the address family of p.
func (p Prefix) Family() Family { return p.fam }

// Bits returns the prefix length.
func (p Prefix) Bits() int { return int(p.bits) }

// Addr returns the network address.
func (p Prefix) Addr() netip.Addr {
	switch p.fam {
	case IPv4:
		return netip.AddrFrom4(p.addr.as4())
	case IPv6:
		return netip.AddrFrom16(p.addr.as16())
	}
	return netip.Addr{}
}

// Netip returns p as a netip.Prefix.
func (p Prefix) Netip() netip.Prefix {
	if !p.IsValid() {
		return netip.Prefix{}
	}
	return netip.PrefixFrom(p.Addr(), int(p.bits))
}

// Contains reports whether the address range of o is a subset of the range
// of p. Contains is reflexive and false across families.
func (p Prefix) Contains(o Prefix) bool {
	return p.fam == o.fam && o.bits >= p.bits && o.addr.and(p.fam.mask(p.bits)) == p.addr
}

// IsSibling reports whether p and o have the same length and together tile
// their common supernet exactly.
func (p Prefix) IsSibling(o Prefix) bool {
	if p.fam != o.fam || p.bits != o.bits || p.bits == 0 || p.addr == o.addr {
		return false
	}
	m := p.fam.mask(p.bits - 1)
	return p.addr.and(m) == o.addr.and(m)
}

// Supernet returns the prefix one bit shorter that contains p.
// It panics on a zero-length prefix, which has no supernet.
func (p Prefix) Supernet() Prefix {
	if p.bits == 0 {
		panic("prefix: supernet of a zero-length prefix")
	}
	p.bits--
	return p.masked()
}

// Compare orders prefixes by family (IPv4 first), network address and
// length, shorter first. It returns -1, 0 or +1.
func Compare(a, b Prefix) int {
	if c := cmp.Compare(a.fam, b.fam); c != 0 {
		return c
	}
	if c := a.addr.compare(b.addr); c != 0 {
		return c
	}
	return cmp.Compare(a.bits, b.bits)
}

// AppendTo appends the address/length form of p to b.
func (p Prefix) AppendTo(b []byte) []byte {
	if !p.IsValid() {
		return append(b, "invalid Prefix"...)
	}
	b = p.Addr().AppendTo(b)
	b = append(b, '/')
	return appendDecimal(b, p.bits)
}

// String returns the address/length form of p, e.g. 192.0.2.0/24 or 2001:db8::/32.
func (p Prefix) String() string {
	return string(p.AppendTo(make([]byte, 0, len("ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff/128"))))
}

func appendDecimal(b []byte, x uint8) []byte {
	if x >= 100 {
		b = append(b, digits[x/100])
	}
	if x >= 10 {
		b = append(b, digits[x/10%10])
	}
	return append(b, digits[x%10])
}

const digits = "0123456789"
