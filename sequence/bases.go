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

package sequence

var iupacUpperTable = [256]byte{}

func init() {
	for i := range iupacUpperTable {
		iupacUpperTable[i] = 'N'
	}
	for _, b := range []byte("ACGT") {
		iupacUpperTable[b] = b
		iupacUpperTable[b+'a'-'A'] = b
	}
}

// ToUpperAndN maps a base to upper case, and all ambiguity codes
// (and anything else that is not A, C, G, or T) to N.
func ToUpperAndN(base byte) byte {
	return iupacUpperTable[base]
}

// Normalize applies ToUpperAndN to every base of seq in place.
func Normalize(seq []byte) {
	for i, b := range seq {
		seq[i] = iupacUpperTable[b]
	}
}

// Complement returns the Watson-Crick complement of a normalized base.
func Complement(base byte) byte {
	switch base {
	case 'A':
		return 'T'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	case 'T':
		return 'A'
	default:
		return 'N'
	}
}

// ReverseComplement returns a fresh reverse complement of seq.
func ReverseComplement(seq []byte) []byte {
	result := make([]byte, len(seq))
	for i, b := range seq {
		result[len(seq)-1-i] = Complement(b)
	}
	return result
}

// ReverseComplementInPlace reverse complements seq.
func ReverseComplementInPlace(seq []byte) {
	for i, j := 0, len(seq)-1; i <= j; i, j = i+1, j-1 {
		seq[i], seq[j] = Complement(seq[j]), Complement(seq[i])
	}
}
