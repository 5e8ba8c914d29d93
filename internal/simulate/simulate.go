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

// Package simulate generates synthetic genomes and reads with known
// layouts for tests, and contexts that are cancelled part way through
// a computation.
package simulate

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"

	"github.com/exascience/elassemble/sequence"
)

// Genome returns n random bases drawn from rng.
func Genome(rng *rand.Rand, n int) []byte {
	genome := make([]byte, n)
	for i := range genome {
		genome[i] = "ACGT"[rng.Intn(4)]
	}
	return genome
}

// Tile cuts count reads of length readLength from genome, with start
// positions spread evenly from the first to the last possible one.
func Tile(genome []byte, readLength, count int) []*sequence.Read {
	reads := make([]*sequence.Read, count)
	last := len(genome) - readLength
	for i := range reads {
		start := 0
		if count > 1 {
			start = i * last / (count - 1)
		}
		seq := append([]byte(nil), genome[start:start+readLength]...)
		reads[i] = sequence.NewRead(fmt.Sprintf("read%d", i), seq)
	}
	return reads
}

// Pairs cuts FR pairs from genome: for each start, mate 1 is the
// forward read at start, and mate 2 is the reverse complement of the
// read ending at start+insert.
func Pairs(genome []byte, readLength, insert int, starts []int, library *sequence.Library) []*sequence.Read {
	reads := make([]*sequence.Read, 0, 2*len(starts))
	for _, start := range starts {
		end := start + insert
		if start < 0 || end > len(genome) {
			continue
		}
		mate1 := append([]byte(nil), genome[start:start+readLength]...)
		mate2 := sequence.ReverseComplement(genome[end-readLength : end])
		i := len(reads)
		reads = append(reads,
			sequence.NewRead(fmt.Sprintf("pair%d/1", start), mate1),
			sequence.NewRead(fmt.Sprintf("pair%d/2", start), mate2))
		if err := sequence.SetPair(reads, i, i+1, library.Name); err != nil {
			log.Panic(err)
		}
	}
	return reads
}

// Mutate returns a copy of seq with the base at pos replaced by a
// different base.
func Mutate(seq []byte, pos int) []byte {
	result := append([]byte(nil), seq...)
	switch result[pos] {
	case 'A':
		result[pos] = 'C'
	case 'C':
		result[pos] = 'G'
	case 'G':
		result[pos] = 'T'
	default:
		result[pos] = 'A'
	}
	return result
}

type cancelAfter struct {
	context.Context
	mutex sync.Mutex
	calls int
	n     int
}

func (c *cancelAfter) Err() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.calls++
	if c.calls > c.n {
		return context.Canceled
	}
	return nil
}

// CancelAfter returns a context whose Err method reports
// context.Canceled from the (n+1)th call on. It stands for a context
// that is cancelled while a phase is running, at a point that does
// not depend on timing.
func CancelAfter(n int) context.Context {
	return &cancelAfter{Context: context.Background(), n: n}
}
