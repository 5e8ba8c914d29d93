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
	"sort"

	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"

	"github.com/exascience/elassemble/internal"
)

// A Span is a half-open range of contig positions.
type Span struct {
	Start, End int
}

func sortByStart(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})
}

type stableSpanSorter []Span

func (s stableSpanSorter) SequentialSort(i, j int) {
	sortByStart(s[i:j])
}

func (s stableSpanSorter) NewTemp() psort.StableSorter {
	return stableSpanSorter(make([]Span, len(s)))
}

func (s stableSpanSorter) Len() int {
	return len(s)
}

func (s stableSpanSorter) Less(i, j int) bool {
	return s[i].Start < s[j].Start
}

func (s stableSpanSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableSpanSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// Flatten sorts spans by start and merges overlapping or adjacent
// spans. The result reuses the storage of spans.
func Flatten(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	psort.StableSort(stableSpanSorter(spans))
	result := spans[:1]
	for _, span := range spans[1:] {
		last := &result[len(result)-1]
		if span.Start <= last.End {
			if span.End > last.End {
				last.End = span.End
			}
		} else {
			result = append(result, span)
		}
	}
	return result
}

// ReadSpans returns the parts of the contig covered by placed reads,
// clipped to the contig.
func (c *Contig) ReadSpans() []Span {
	spans := make([]Span, 0, len(c.Sequences))
	for _, s := range c.Sequences {
		start, end := internal.MaxInt(s.Position, 0), internal.MinInt(s.End(), c.Len())
		if start < end {
			spans = append(spans, Span{start, end})
		}
	}
	return Flatten(spans)
}

// CoveredBases returns the number of contig bases covered by at least
// one placed read.
func (c *Contig) CoveredBases() (covered int) {
	for _, span := range c.ReadSpans() {
		covered += span.End - span.Start
	}
	return
}

// Breadth returns the fraction of bases covered by reads for each
// contig, computed in parallel.
func Breadth(contigs []*Contig, workers int) []float64 {
	breadth := make([]float64, len(contigs))
	parallel.Range(0, len(contigs), internal.Workers(workers), func(low, high int) {
		for i := low; i < high; i++ {
			if l := contigs[i].Len(); l > 0 {
				breadth[i] = float64(contigs[i].CoveredBases()) / float64(l)
			}
		}
	})
	return breadth
}
