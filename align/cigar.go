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

package align

import (
	"strconv"
	"strings"
)

// A CigarOperation is one run of an edit script: M (match or
// mismatch), I (insertion in the query), D (deletion from the query),
// or S (soft clip).
type CigarOperation struct {
	Length    int32
	Operation byte
}

var (
	operatorConsumesReadBases      = map[byte]bool{'M': true, 'I': true, 'S': true, '=': true, 'X': true}
	operatorConsumesReferenceBases = map[byte]bool{'M': true, 'D': true, 'N': true, '=': true, 'X': true}
)

// ReadLength returns the number of query bases covered by cigar.
func ReadLength(cigar []CigarOperation) (length int32) {
	for _, op := range cigar {
		if operatorConsumesReadBases[op.Operation] {
			length += op.Length
		}
	}
	return
}

// ReferenceLength returns the number of reference bases covered by
// cigar.
func ReferenceLength(cigar []CigarOperation) (length int32) {
	for _, op := range cigar {
		if operatorConsumesReferenceBases[op.Operation] {
			length += op.Length
		}
	}
	return
}

// CigarString formats cigar in SAM notation.
func CigarString(cigar []CigarOperation) string {
	if len(cigar) == 0 {
		return "*"
	}
	var b strings.Builder
	for _, op := range cigar {
		b.WriteString(strconv.FormatInt(int64(op.Length), 10))
		b.WriteByte(op.Operation)
	}
	return b.String()
}
