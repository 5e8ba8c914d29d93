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

package scaffold

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/exascience/elassemble/contig"
	"github.com/exascience/elassemble/sequence"
	"github.com/exascience/elassemble/utils"
)

// A placement is where a read ended up after mapping.
type placement struct {
	contig  int
	pos     int
	length  int
	reverse bool
	ok      bool
}

func placements(contigs []*contig.Contig, nReads int) []placement {
	result := make([]placement, nReads)
	for _, c := range contigs {
		for _, s := range c.Sequences {
			result[s.ReadIndex] = placement{
				contig:  c.ID,
				pos:     s.Position,
				length:  s.Length,
				reverse: s.IsComplemented,
				ok:      true,
			}
		}
	}
	return result
}

// fragmentStrands returns the strands of both mates relative to the
// fragment, as if the library were FR: mate 1 forward, mate 2
// reverse.
func fragmentStrands(orientation sequence.Orientation, p1, p2 placement) (rev1, rev2 bool) {
	rev1, rev2 = p1.reverse, p2.reverse
	switch orientation {
	case sequence.RF:
		rev1, rev2 = !rev1, !rev2
	case sequence.FF:
		rev2 = !rev2
	}
	return
}

// A pair is a read pair with both mates placed, mate 1 first.
type pair struct {
	library *sequence.Library
	p1, p2  placement
	rev1    bool
	rev2    bool
}

func collectPairs(reads []*sequence.Read, placed []placement, libs sequence.Libraries) (pairs []pair, unknown int) {
	for i, read := range reads {
		if read.Pair == nil || !read.Pair.First {
			continue
		}
		lib := libs[read.Pair.Library]
		if lib == nil {
			unknown++
			continue
		}
		p1, p2 := placed[i], placed[read.Pair.Mate]
		if !p1.ok || !p2.ok {
			continue
		}
		rev1, rev2 := fragmentStrands(lib.Orientation, p1, p2)
		pairs = append(pairs, pair{library: lib, p1: p1, p2: p2, rev1: rev1, rev2: rev2})
	}
	return
}

// insertOnContig returns the outer distance of a pair whose mates
// face each other on the same contig.
func (p pair) insertOnContig() (int, bool) {
	if p.p1.contig != p.p2.contig || p.rev1 == p.rev2 {
		return 0, false
	}
	var insert int
	if !p.rev1 {
		insert = p.p2.pos + p.p2.length - p.p1.pos
	} else {
		insert = p.p1.pos + p.p1.length - p.p2.pos
	}
	return insert, insert > 0
}

/*
estimateLibraries fills in the insert size of every library whose mean
is 0, from pairs with both mates on the same contig. It returns the
libraries with usable statistics, and the names of those that could
not be estimated. The given libraries are not modified.
*/
func estimateLibraries(libs sequence.Libraries, pairs []pair) (estimated sequence.Libraries, failed []string) {
	samples := make(map[utils.Symbol][]float64)
	for _, p := range pairs {
		if !p.library.NeedsEstimate() {
			continue
		}
		if insert, ok := p.insertOnContig(); ok {
			samples[p.library.Name] = append(samples[p.library.Name], float64(insert))
		}
	}
	estimated = make(sequence.Libraries, len(libs))
	for _, lib := range libs.Sorted() {
		if !lib.NeedsEstimate() {
			estimated[lib.Name] = lib
			continue
		}
		x := samples[lib.Name]
		if len(x) < 2 {
			failed = append(failed, *lib.Name)
			continue
		}
		mean, stdDev := stat.MeanStdDev(x, nil)
		copied := *lib
		copied.MeanInsert, copied.StdDev = mean, stdDev
		estimated[lib.Name] = &copied
	}
	return estimated, failed
}

// link turns a pair with mates on different contigs into a gap
// observation between two oriented contigs.
func (p pair) link(contigs []*contig.Contig) (from, to End, gap float64, ok bool) {
	if p.p1.contig == p.p2.contig {
		return
	}
	var d1, d2 int
	if !p.rev1 {
		d1 = contigs[p.p1.contig].Len() - p.p1.pos
	} else {
		d1 = p.p1.pos + p.p1.length
	}
	if p.rev2 {
		d2 = p.p2.pos + p.p2.length
	} else {
		d2 = contigs[p.p2.contig].Len() - p.p2.pos
	}
	from = End{Contig: p.p1.contig, Fwd: !p.rev1}
	to = End{Contig: p.p2.contig, Fwd: p.rev2}
	gap = p.library.MeanInsert - float64(d1) - float64(d2)
	return from, to, gap, !math.IsNaN(gap)
}
