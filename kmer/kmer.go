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

// Package kmer implements 2-bit packed k-mers, their canonical form,
// and the extension masks that record which bases were observed
// before and after each k-mer in the reads.
package kmer

import (
	"fmt"
	"strings"
)

// A Kmer packs up to MaxK bases in 2 bits each (A=0, C=1, G=2, T=3).
// The first base is stored in the most significant position, so the
// integer order of two k-mers of the same length is their
// lexicographic order.
type Kmer uint64

// MaxK is the longest k-mer that fits in a Kmer.
const MaxK = 31

// MinK is the shortest supported k-mer.
const MinK = 3

const invalidCode = 0xff

var (
	baseCodes [256]uint8
	codeBases = [4]byte{'A', 'C', 'G', 'T'}
)

func init() {
	for i := range baseCodes {
		baseCodes[i] = invalidCode
	}
	for code, base := range codeBases {
		baseCodes[base] = uint8(code)
		baseCodes[base+'a'-'A'] = uint8(code)
	}
}

// Code returns the 2-bit code of a base, and false for N or any other
// non-ACGT symbol.
func Code(base byte) (uint8, bool) {
	code := baseCodes[base]
	return code, code != invalidCode
}

// Base returns the base for a 2-bit code.
func Base(code uint8) byte {
	return codeBases[code&3]
}

// CheckK verifies that k is a usable k-mer length for reads whose
// shortest length is shortest.
func CheckK(k, shortest int) error {
	switch {
	case k%2 == 0:
		return fmt.Errorf("k-mer length %v must be odd", k)
	case k < MinK:
		return fmt.Errorf("k-mer length %v must be at least %v", k, MinK)
	case k > MaxK:
		return fmt.Errorf("k-mer length %v exceeds the maximum of %v", k, MaxK)
	case k > shortest:
		return fmt.Errorf("k-mer length %v exceeds the shortest read length %v", k, shortest)
	}
	return nil
}

// A Coder converts between base sequences and k-mers of a fixed
// length.
type Coder struct {
	K    int
	mask Kmer
}

// NewCoder returns a Coder for k-mers of length k. It panics if k is
// out of range, so callers validate with CheckK first.
func NewCoder(k int) Coder {
	if k < 1 || k > MaxK {
		panic(fmt.Sprintf("invalid k-mer length %v", k))
	}
	return Coder{K: k, mask: Kmer(1)<<(2*uint(k)) - 1}
}

// Encode packs the first K bases of seq. It returns false if seq is
// too short or contains a base other than A, C, G, or T.
func (c Coder) Encode(seq []byte) (kmer Kmer, ok bool) {
	if len(seq) < c.K {
		return 0, false
	}
	for _, base := range seq[:c.K] {
		code, ok := Code(base)
		if !ok {
			return 0, false
		}
		kmer = kmer<<2 | Kmer(code)
	}
	return kmer, true
}

// Decode appends the bases of kmer to buf.
func (c Coder) Decode(buf []byte, kmer Kmer) []byte {
	for i := c.K - 1; i >= 0; i-- {
		buf = append(buf, Base(uint8(kmer>>(2*uint(i)))))
	}
	return buf
}

// String returns the bases of kmer.
func (c Coder) String(kmer Kmer) string {
	var b strings.Builder
	b.Grow(c.K)
	for i := c.K - 1; i >= 0; i-- {
		b.WriteByte(Base(uint8(kmer >> (2 * uint(i)))))
	}
	return b.String()
}

// ReverseComplement returns the reverse complement of kmer.
func (c Coder) ReverseComplement(kmer Kmer) (rc Kmer) {
	for i := 0; i < c.K; i++ {
		rc = rc<<2 | (3 - kmer&3)
		kmer >>= 2
	}
	return rc
}

// Canonical returns the smaller of kmer and its reverse complement,
// and true if that is the reverse complement.
func (c Coder) Canonical(kmer Kmer) (Kmer, bool) {
	if rc := c.ReverseComplement(kmer); rc < kmer {
		return rc, true
	}
	return kmer, false
}

// Append shifts kmer one base to the left and adds code at the end.
func (c Coder) Append(kmer Kmer, code uint8) Kmer {
	return (kmer<<2 | Kmer(code)) & c.mask
}

// Prepend shifts kmer one base to the right and adds code at the
// front.
func (c Coder) Prepend(kmer Kmer, code uint8) Kmer {
	return kmer>>2 | Kmer(code)<<(2*uint(c.K-1))
}

// First returns the code of the first base of kmer.
func (c Coder) First(kmer Kmer) uint8 {
	return uint8(kmer>>(2*uint(c.K-1))) & 3
}

// Last returns the code of the last base of kmer.
func (c Coder) Last(kmer Kmer) uint8 {
	return uint8(kmer) & 3
}

// Windows calls f for every K-length window of seq without ambiguous
// bases, in order of position. The window is passed in read
// orientation.
func (c Coder) Windows(seq []byte, f func(pos int, kmer Kmer)) {
	var (
		kmer  Kmer
		valid int
	)
	for i, base := range seq {
		code, ok := Code(base)
		if !ok {
			valid = 0
			continue
		}
		kmer = c.Append(kmer, code)
		if valid++; valid >= c.K {
			f(i-c.K+1, kmer)
		}
	}
}
