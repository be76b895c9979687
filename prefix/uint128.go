// [forked] from [inet.af/netaddr]
// Copyright 2020 The Inet.Af AUTHORS. All rights reserved.
// Use of this source code is governed by a BSD-style license.
//
// reduced to the bit operations needed for prefix aggregation

package prefix

import (
	"encoding/binary"
	"math/bits"
)

// uint128 is an address in network bit order. IPv4 lives in the low 32 bits.
type uint128 struct {
	hi uint64
	lo uint64
}

var allOnes = uint128{^uint64(0), ^uint64(0)}

func u128From4(b [4]byte) uint128 { return uint128{0, uint64(binary.BigEndian.Uint32(b[:]))} }
func u128From16(b [16]byte) uint128 {
	return uint128{binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint64(b[8:])}
}

func (u uint128) as4() (b [4]byte) {
	binary.BigEndian.PutUint32(b[:], uint32(u.lo))
	return b
}

func (u uint128) as16() (b [16]byte) {
	binary.BigEndian.PutUint64(b[:8], u.hi)
	binary.BigEndian.PutUint64(b[8:], u.lo)
	return b
}

func u64CommonPrefixLen(a, b uint64) uint8          { return uint8(bits.LeadingZeros64(a ^ b)) }
func (u uint128) not() uint128                      { return uint128{^u.hi, ^u.lo} }
func (u uint128) isZero() bool                      { return u.hi|u.lo == 0 }
func (u uint128) bitsSetFrom(bit uint8) uint128     { return u.or(mask128(bit).not()) }
func (u uint128) bitsClearedFrom(bit uint8) uint128 { return u.and(mask128(bit)) }
func (u uint128) or(m uint128) uint128              { return uint128{u.hi | m.hi, u.lo | m.lo} }
func (u uint128) and(m uint128) uint128             { return uint128{u.hi & m.hi, u.lo & m.lo} }
func (u uint128) xor(m uint128) uint128             { return uint128{u.hi ^ m.hi, u.lo ^ m.lo} }
func (u uint128) commonPrefixLen(v uint128) (n uint8) {
	if n = u64CommonPrefixLen(u.hi, v.hi); n == 64 {
		n += u64CommonPrefixLen(u.lo, v.lo)
	}
	return n
}

func (u uint128) compare(v uint128) int {
	switch {
	case u.hi < v.hi:
		return -1
	case u.hi > v.hi:
		return 1
	case u.lo < v.lo:
		return -1
	case u.lo > v.lo:
		return 1
	}
	return 0
}

// mask128 returns n leading one bits, n in 0..=128
func mask128(n uint8) uint128 {
	if n <= 64 {
		return uint128{^uint64(0) << (64 - n), 0}
	}
	return uint128{^uint64(0), ^uint64(0) << (128 - n)}
}
