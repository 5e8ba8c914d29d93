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

package contig

import "sort"

// Statistics summarizes a set of sequences.
type Statistics struct {
	Count   int
	Total   int
	Longest int
	N50     int
}

// Stats computes statistics over sequence lengths.
func Stats(lengths []int) (stats Statistics) {
	stats.Count = len(lengths)
	if stats.Count == 0 {
		return
	}
	sorted := append([]int(nil), lengths...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	stats.Longest = sorted[0]
	for _, l := range sorted {
		stats.Total += l
	}
	sum := 0
	for _, l := range sorted {
		if sum += l; 2*sum >= stats.Total {
			stats.N50 = l
			break
		}
	}
	return
}

// Lengths returns the lengths of the contigs.
func Lengths(contigs []*Contig) []int {
	lengths := make([]int, len(contigs))
	for i, c := range contigs {
		lengths[i] = c.Len()
	}
	return lengths
}
