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

package graph

import (
	"context"
	"sort"

	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"
	"github.com/willf/bitset"

	"github.com/exascience/elassemble/internal"
	"github.com/exascience/elassemble/kmer"
)

func sortKmers(kmers []kmer.Kmer) {
	sort.Slice(kmers, func(i, j int) bool {
		return kmers[i] < kmers[j]
	})
}

type stableKmerSorter []kmer.Kmer

func (s stableKmerSorter) SequentialSort(i, j int) {
	sortKmers(s[i:j])
}

func (s stableKmerSorter) NewTemp() psort.StableSorter {
	return stableKmerSorter(make([]kmer.Kmer, len(s)))
}

func (s stableKmerSorter) Len() int {
	return len(s)
}

func (s stableKmerSorter) Less(i, j int) bool {
	return s[i] < s[j]
}

func (s stableKmerSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableKmerSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// checkInterval is the number of nodes processed between checks for
// cancellation.
const checkInterval = 1024

/*
Build turns a k-mer index into a graph.

The canonical k-mers are sorted with a parallel stable sort and become
the nodes in that order. The lookup table is built from one partial
map per worker, which are merged pairwise. Extension bits that point
to k-mers that are not in the index are cleared, so that every
remaining bit is an edge.

Build checks ctx at regular intervals and returns ctx.Err() when it is
done.
*/
func Build(ctx context.Context, index *kmer.Index, workers int) (*Graph, error) {
	workers = internal.Workers(workers)
	kmers := make([]kmer.Kmer, 0, len(index.Entries))
	for km := range index.Entries {
		kmers = append(kmers, km)
	}
	psort.StableSort(stableKmerSorter(kmers))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := &Graph{
		Coder:   index.Coder,
		Nodes:   make([]Node, len(kmers)),
		deleted: bitset.New(uint(len(kmers))),
	}
	parallel.Range(0, len(kmers), workers, func(low, high int) {
		for i := low; i < high; i++ {
			if (i-low)%checkInterval == 0 && ctx.Err() != nil {
				return
			}
			entry := index.Entries[kmers[i]]
			g.Nodes[i] = Node{Kmer: kmers[i], Depth: entry.Depth, Ext: entry.Ext}
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lookup := parallel.RangeReduce(0, len(kmers), workers, func(low, high int) interface{} {
		m := make(map[kmer.Kmer]int32, high-low)
		for i := low; i < high; i++ {
			if (i-low)%checkInterval == 0 && ctx.Err() != nil {
				return m
			}
			m[kmers[i]] = int32(i)
		}
		return m
	}, func(x, y interface{}) interface{} {
		m1, m2 := x.(map[kmer.Kmer]int32), y.(map[kmer.Kmer]int32)
		if len(m1) < len(m2) {
			m1, m2 = m2, m1
		}
		for km, handle := range m2 {
			m1[km] = handle
		}
		return m1
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.index = lookup.(map[kmer.Kmer]int32)

	parallel.Range(0, len(g.Nodes), workers, func(low, high int) {
		for i := low; i < high; i++ {
			if (i-low)%checkInterval == 0 && ctx.Err() != nil {
				return
			}
			g.Nodes[i].Ext = g.linkedExt(int32(i))
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// linkedExt returns the extension mask of a node without the bits
// that point to missing k-mers. It only writes to its own result, so
// it is safe to run for all nodes in parallel.
func (g *Graph) linkedExt(handle int32) kmer.Extension {
	node := g.Nodes[handle]
	ext := node.Ext
	for code := uint8(0); code < 4; code++ {
		if ext.HasRight(code) {
			if canonical, _ := g.Coder.Canonical(g.Coder.Append(node.Kmer, code)); !g.contains(canonical) {
				ext &^= kmer.RightExtension(code)
			}
		}
		if ext.HasLeft(code) {
			if canonical, _ := g.Coder.Canonical(g.Coder.Prepend(node.Kmer, code)); !g.contains(canonical) {
				ext &^= kmer.LeftExtension(code)
			}
		}
	}
	return ext
}

func (g *Graph) contains(canonical kmer.Kmer) bool {
	_, ok := g.index[canonical]
	return ok
}
