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

import (
	"context"
	"sort"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/elassemble/internal"
	"github.com/exascience/elassemble/sequence"
)

// An Entry is the depth and extension mask of a canonical k-mer.
type Entry struct {
	Depth uint32
	Ext   Extension
}

// Merge combines two entries for the same k-mer. Merging is
// associative and commutative.
func (e Entry) Merge(other Entry) Entry {
	return Entry{Depth: e.Depth + other.Depth, Ext: e.Ext | other.Ext}
}

// An Index maps canonical k-mers to their entries.
type Index struct {
	Coder   Coder
	Entries map[Kmer]Entry
}

// checkInterval is the number of reads processed between checks for
// cancellation.
const checkInterval = 1024

// Len returns the number of distinct canonical k-mers.
func (index *Index) Len() int {
	return len(index.Entries)
}

// Lookup returns the entry of the canonical form of kmer, and whether
// the k-mer was taken from the reverse strand.
func (index *Index) Lookup(kmer Kmer) (entry Entry, rc bool, ok bool) {
	canonical, rc := index.Coder.Canonical(kmer)
	entry, ok = index.Entries[canonical]
	return
}

func addRead(coder Coder, entries map[Kmer]Entry, seq []byte) {
	coder.Windows(seq, func(pos int, kmer Kmer) {
		var ext Extension
		if pos > 0 {
			if code, ok := Code(seq[pos-1]); ok {
				ext |= LeftExtension(code)
			}
		}
		if next := pos + coder.K; next < len(seq) {
			if code, ok := Code(seq[next]); ok {
				ext |= RightExtension(code)
			}
		}
		canonical, rc := coder.Canonical(kmer)
		if rc {
			ext = ext.Complement()
		}
		entries[canonical] = entries[canonical].Merge(Entry{Depth: 1, Ext: ext})
	})
}

func mergeEntries(x, y map[Kmer]Entry) map[Kmer]Entry {
	if len(x) < len(y) {
		x, y = y, x
	}
	for kmer, entry := range y {
		x[kmer] = x[kmer].Merge(entry)
	}
	return x
}

/*
Build extracts all k-mers of length k from the reads.

The reads are split into one range per worker, each range is counted
into a local map, and the local maps are merged pairwise. Since
merging sums depths and ORs extension masks, the result does not
depend on the number of workers.

Build checks ctx regularly and returns ctx.Err() when it is done.
*/
func Build(ctx context.Context, reads []*sequence.Read, k, workers int) (*Index, error) {
	if err := CheckK(k, sequence.ShortestLength(reads)); err != nil {
		return nil, err
	}
	coder := NewCoder(k)
	result := parallel.RangeReduce(0, len(reads), internal.Workers(workers), func(low, high int) interface{} {
		entries := make(map[Kmer]Entry)
		for i := low; i < high; i++ {
			if (i-low)%checkInterval == 0 && ctx.Err() != nil {
				return entries
			}
			addRead(coder, entries, reads[i].Seq)
		}
		return entries
	}, func(x, y interface{}) interface{} {
		return mergeEntries(x.(map[Kmer]Entry), y.(map[Kmer]Entry))
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Index{Coder: coder, Entries: result.(map[Kmer]Entry)}, nil
}

// A DepthCount is one bucket of a depth histogram.
type DepthCount struct {
	Depth uint32
	Count int
}

// Histogram returns the number of k-mers per depth, sorted by depth.
func (index *Index) Histogram() []DepthCount {
	counts := make(map[uint32]int)
	for _, entry := range index.Entries {
		counts[entry.Depth]++
	}
	histogram := make([]DepthCount, 0, len(counts))
	for depth, count := range counts {
		histogram = append(histogram, DepthCount{Depth: depth, Count: count})
	}
	sort.Slice(histogram, func(i, j int) bool {
		return histogram[i].Depth < histogram[j].Depth
	})
	return histogram
}

// TotalDepth returns the sum of the depths of all k-mers.
func (index *Index) TotalDepth() (total uint64) {
	for _, entry := range index.Entries {
		total += uint64(entry.Depth)
	}
	return
}
