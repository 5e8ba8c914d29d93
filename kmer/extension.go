// elAssemble: a high-performance de novo assembler for short reads.
// Copyright (c) 2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elassemble/blob/master/LICENSE.txt>.

package kmer

import "math/bits"

// Extension records observed neighbours of a k-mer: the low nibble
// holds the bases seen after it (right), the high nibble the bases
// seen before it (left), both on the canonical strand.
type Extension uint8

// RightExtension returns the mask for a following base.
func RightExtension(code uint8) Extension {
	return Extension(1) << (code & 3)
}

// LeftExtension returns the mask for a preceding base.
func LeftExtension(code uint8) Extension {
	return Extension(1) << (4 + code&3)
}

// Right returns the 4-bit set of following bases.
func (e Extension) Right() uint8 {
	return uint8(e) & 0xf
}

// Left returns the 4-bit set of preceding bases.
func (e Extension) Left() uint8 {
	return uint8(e) >> 4
}

// HasRight checks for a following base.
func (e Extension) HasRight(code uint8) bool {
	return e&RightExtension(code) != 0
}

// HasLeft checks for a preceding base.
func (e Extension) HasLeft(code uint8) bool {
	return e&LeftExtension(code) != 0
}

// complementNibble maps each base in a 4-bit set to its complement,
// which reverses the order of the bits.
func complementNibble(n uint8) uint8 {
	return (n&1)<<3 | (n&2)<<1 | (n&4)>>1 | (n&8)>>3
}

// Complement returns the mask as seen from the reverse strand:
// complemented preceding bases become following bases and vice versa.
func (e Extension) Complement() Extension {
	return Extension(complementNibble(e.Left()) | complementNibble(e.Right())<<4)
}

// OutDegree is the number of following bases.
func (e Extension) OutDegree() int {
	return bits.OnesCount8(e.Right())
}

// InDegree is the number of preceding bases.
func (e Extension) InDegree() int {
	return bits.OnesCount8(e.Left())
}
