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

import (
	"context"
	"encoding/binary"
	"sort"

	"github.com/exascience/pargo/parallel"
	"github.com/exascience/pargo/pipeline"
	"github.com/willf/bloom"

	"github.com/exascience/elassemble/internal"
	"github.com/exascience/elassemble/kmer"
	"github.com/exascience/elassemble/sequence"
)

// A Placement locates a canonical k-mer on a contig.
type Placement struct {
	Contig int32
	Pos    int32

	// RC is set when the contig spells the reverse complement of the
	// canonical k-mer at Pos.
	RC bool
}

// An Index maps every k-mer of a contig set to its placement. A Bloom
// filter in front of the map rejects most k-mers that are not on any
// contig without touching the map.
type Index struct {
	Coder      kmer.Coder
	Contigs    []*Contig
	placements map[kmer.Kmer]Placement
	filter     *bloom.BloomFilter
}

func kmerKey(buf *[8]byte, km kmer.Kmer) []byte {
	binary.LittleEndian.PutUint64(buf[:], uint64(km))
	return buf[:]
}

// NewIndex indexes the k-mers of the contigs. Contig IDs must be their
// positions in the slice.
func NewIndex(contigs []*Contig, k int) *Index {
	coder := kmer.NewCoder(k)
	total := 0
	for _, c := range contigs {
		if n := c.Len() - k + 1; n > 0 {
			total += n
		}
	}
	index := &Index{
		Coder:      coder,
		Contigs:    contigs,
		placements: make(map[kmer.Kmer]Placement, total),
		filter:     bloom.NewWithEstimates(uint(internal.MaxInt(total, 1)), 0.01),
	}
	var buf [8]byte
	for _, c := range contigs {
		coder.Windows(c.Seq, func(pos int, km kmer.Kmer) {
			canonical, rc := coder.Canonical(km)
			if _, ok := index.placements[canonical]; ok {
				return
			}
			index.placements[canonical] = Placement{Contig: int32(c.ID), Pos: int32(pos), RC: rc}
			index.filter.Add(kmerKey(&buf, canonical))
		})
	}
	return index
}

// Lookup returns the placement of any k-mer, and whether it lies on
// the opposite strand of the contig.
func (index *Index) Lookup(km kmer.Kmer) (p Placement, reverse bool, ok bool) {
	canonical, rc := index.Coder.Canonical(km)
	var buf [8]byte
	if !index.filter.Test(kmerKey(&buf, canonical)) {
		return p, false, false
	}
	p, ok = index.placements[canonical]
	return p, rc != p.RC, ok
}

// A Hit is the best placement of a read.
type Hit struct {
	Contig  int
	Start   int
	Reverse bool
	Votes   int
}

func (h Hit) better(other Hit) bool {
	switch {
	case h.Votes != other.Votes:
		return h.Votes > other.Votes
	case h.Contig != other.Contig:
		return h.Contig < other.Contig
	case h.Reverse != other.Reverse:
		return !h.Reverse
	default:
		return h.Start < other.Start
	}
}

/*
MapRead places a read by letting each of its k-mers vote for a
contig, a strand, and the start position it implies. The candidate
with the most votes wins. Ties go to the lower contig ID, then to the
forward strand, then to the smaller start, so the result does not
depend on k-mer order.
*/
func (index *Index) MapRead(seq []byte) (best Hit, ok bool) {
	var candidates []Hit
	k := index.Coder.K
	index.Coder.Windows(seq, func(pos int, km kmer.Kmer) {
		p, reverse, found := index.Lookup(km)
		if !found {
			return
		}
		hit := Hit{Contig: int(p.Contig), Reverse: reverse}
		if reverse {
			hit.Start = int(p.Pos) - (len(seq) - k - pos)
		} else {
			hit.Start = int(p.Pos) - pos
		}
		for i := range candidates {
			if c := &candidates[i]; c.Contig == hit.Contig && c.Reverse == hit.Reverse && c.Start == hit.Start {
				c.Votes++
				return
			}
		}
		hit.Votes = 1
		candidates = append(candidates, hit)
	})
	for i, c := range candidates {
		if i == 0 || c.better(best) {
			best = c
		}
	}
	return best, len(candidates) > 0
}

// readBatches is a pipeline source over read indices.
type readBatches struct {
	ctx       context.Context
	next, end int
	low, high int
	err       error
}

type readRange struct {
	low, high int
}

// Err implements the method of the pipeline.Source interface.
func (r *readBatches) Err() error {
	return r.err
}

// Prepare implements the method of the pipeline.Source interface.
func (r *readBatches) Prepare(_ context.Context) int {
	return r.end - r.next
}

// Fetch implements the method of the pipeline.Source interface.
func (r *readBatches) Fetch(size int) (fetched int) {
	if r.err = r.ctx.Err(); r.err != nil {
		return 0
	}
	r.low = r.next
	r.high = internal.MinInt(r.next+size, r.end)
	r.next = r.high
	return r.high - r.low
}

// Data implements the method of the pipeline.Source interface.
func (r *readBatches) Data() interface{} {
	return readRange{r.low, r.high}
}

type placedRead struct {
	index int
	hit   Hit
	ok    bool
}

/*
Map places all reads on the contigs of the index, and appends the
placements to the Sequences of the contigs, sorted by position and
read index. It returns the indices of the reads that could not be
placed, in ascending order.

Batches of reads are mapped in parallel by at most workers goroutines
and collected in read order.
*/
func Map(ctx context.Context, index *Index, reads []*sequence.Read, workers int) (unplaced []int, err error) {
	workers = internal.Workers(workers)
	placed := make([]placedRead, 0, len(reads))
	var p pipeline.Pipeline
	p.Source(&readBatches{ctx: ctx, end: len(reads)})
	p.Add(
		pipeline.LimitedPar(workers, pipeline.Receive(func(_ int, data interface{}) interface{} {
			batch := data.(readRange)
			result := make([]placedRead, 0, batch.high-batch.low)
			for i := batch.low; i < batch.high; i++ {
				hit, ok := index.MapRead(reads[i].Seq)
				result = append(result, placedRead{index: i, hit: hit, ok: ok})
			}
			return result
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			placed = append(placed, data.([]placedRead)...)
			return data
		})),
	)
	p.Run()
	if err = p.Err(); err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	for _, pr := range placed {
		if !pr.ok {
			unplaced = append(unplaced, pr.index)
			continue
		}
		c := index.Contigs[pr.hit.Contig]
		read := reads[pr.index]
		c.Sequences = append(c.Sequences, AssembledSequence{
			Read:           read,
			ReadIndex:      pr.index,
			Position:       pr.hit.Start,
			Length:         read.Len(),
			IsComplemented: pr.hit.Reverse,
			IsReversed:     pr.hit.Reverse,
			Votes:          pr.hit.Votes,
		})
	}
	parallel.Range(0, len(index.Contigs), workers, func(low, high int) {
		for _, c := range index.Contigs[low:high] {
			SortSequences(c.Sequences)
		}
	})
	return unplaced, nil
}

// SortSequences orders placements by position, then read index.
func SortSequences(sequences []AssembledSequence) {
	sort.Slice(sequences, func(i, j int) bool {
		if sequences[i].Position != sequences[j].Position {
			return sequences[i].Position < sequences[j].Position
		}
		return sequences[i].ReadIndex < sequences[j].ReadIndex
	})
}
