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
	"math/rand"
	"testing"

	"github.com/exascience/elassemble/internal/simulate"
	"github.com/exascience/elassemble/sequence"
)

func TestEncodeDecode(t *testing.T) {
	coder := NewCoder(5)
	kmer, ok := coder.Encode([]byte("ACGTA"))
	if !ok {
		t.Fatal("Encode failed")
	}
	if kmer != 0x06c {
		t.Errorf("Encode gave %x", uint64(kmer))
	}
	if coder.String(kmer) != "ACGTA" {
		t.Error("String failed", coder.String(kmer))
	}
	if string(coder.Decode(nil, kmer)) != "ACGTA" {
		t.Error("Decode failed")
	}
	if _, ok := coder.Encode([]byte("ACNTA")); ok {
		t.Error("Encode accepted N")
	}
	if _, ok := coder.Encode([]byte("ACG")); ok {
		t.Error("Encode accepted short sequence")
	}
}

func TestReverseComplement(t *testing.T) {
	coder := NewCoder(7)
	kmer, _ := coder.Encode([]byte("GATTACA"))
	if coder.String(coder.ReverseComplement(kmer)) != "TGTAATC" {
		t.Error("ReverseComplement failed")
	}
	canonical, rc := coder.Canonical(kmer)
	if rc || coder.String(canonical) != "GATTACA" {
		t.Error("Canonical picked the wrong strand")
	}
	canonical, rc = coder.Canonical(coder.ReverseComplement(kmer))
	if !rc || coder.String(canonical) != "GATTACA" {
		t.Error("Canonical of the reverse strand failed")
	}
}

func TestCanonicalOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	coder := NewCoder(21)
	for i := 0; i < 1000; i++ {
		seq := simulate.Genome(rng, 21)
		kmer, _ := coder.Encode(seq)
		canonical, _ := coder.Canonical(kmer)
		rcSeq := string(sequence.ReverseComplement(seq))
		smaller := string(seq)
		if rcSeq < smaller {
			smaller = rcSeq
		}
		if coder.String(canonical) != smaller {
			t.Fatal("canonical k-mer is not the lexicographically smaller strand", string(seq))
		}
		if coder.ReverseComplement(coder.ReverseComplement(kmer)) != kmer {
			t.Fatal("double reverse complement failed")
		}
	}
}

func TestAppendPrepend(t *testing.T) {
	coder := NewCoder(5)
	kmer, _ := coder.Encode([]byte("ACGTA"))
	if coder.String(coder.Append(kmer, 2)) != "CGTAG" {
		t.Error("Append failed")
	}
	if coder.String(coder.Prepend(kmer, 3)) != "TACGT" {
		t.Error("Prepend failed")
	}
	if coder.First(kmer) != 0 || coder.Last(kmer) != 0 {
		t.Error("First/Last failed")
	}
}

func TestExtensionComplement(t *testing.T) {
	// preceded by A, followed by C and G
	ext := LeftExtension(0) | RightExtension(1) | RightExtension(2)
	comp := ext.Complement()
	// on the other strand: followed by T, preceded by G and C
	if comp != RightExtension(3)|LeftExtension(2)|LeftExtension(1) {
		t.Errorf("Complement gave %08b", uint8(comp))
	}
	if comp.Complement() != ext {
		t.Error("double Complement failed")
	}
	if ext.InDegree() != 1 || ext.OutDegree() != 2 {
		t.Error("degrees failed")
	}
}

func TestCheckK(t *testing.T) {
	for _, k := range []int{2, 1, 20, 33, 41} {
		if CheckK(k, 100) == nil {
			t.Error("CheckK accepted", k)
		}
	}
	if CheckK(21, 20) == nil {
		t.Error("CheckK accepted k longer than the shortest read")
	}
	if CheckK(21, 100) != nil || CheckK(3, 3) != nil || CheckK(31, 31) != nil {
		t.Error("CheckK rejected a valid k")
	}
}

func TestBuildCounts(t *testing.T) {
	reads := []*sequence.Read{
		sequence.NewRead("r1", []byte("ACGTAC")),
		sequence.NewRead("r2", []byte("GTACGT")),
		sequence.NewRead("r3", []byte("ACNTACG")),
	}
	index, err := Build(context.Background(), reads, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	coder := index.Coder
	total := 0
	for _, read := range reads {
		coder.Windows(read.Seq, func(int, Kmer) { total++ })
	}
	if int(index.TotalDepth()) != total {
		t.Error("total depth", index.TotalDepth(), "expected", total)
	}
	acg, _ := coder.Encode([]byte("ACG"))
	entry, rc, ok := index.Lookup(acg)
	if !ok || rc {
		t.Fatal("ACG missing or not canonical")
	}
	// ACG occurs once in each read, and CGT twice
	if entry.Depth != 5 {
		t.Error("ACG depth", entry.Depth)
	}
	for kmer, entry := range index.Entries {
		if canonical, _ := coder.Canonical(kmer); canonical != kmer {
			t.Error("non-canonical key", coder.String(kmer))
		}
		if entry.Depth == 0 {
			t.Error("zero depth entry")
		}
	}
}

func TestBuildWorkerInvariance(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	genome := simulate.Genome(rng, 2000)
	reads := simulate.Tile(genome, 100, 200)
	index1, err := Build(context.Background(), reads, 21, 1)
	if err != nil {
		t.Fatal(err)
	}
	index8, err := Build(context.Background(), reads, 21, 8)
	if err != nil {
		t.Fatal(err)
	}
	if index1.Len() != index8.Len() {
		t.Fatal("different number of k-mers")
	}
	for kmer, entry := range index1.Entries {
		if index8.Entries[kmer] != entry {
			t.Fatal("different entry for", index1.Coder.String(kmer))
		}
	}
}

func TestBuildInvalidK(t *testing.T) {
	reads := []*sequence.Read{sequence.NewRead("r", []byte("ACGTACGT"))}
	if _, err := Build(context.Background(), reads, 4, 1); err == nil {
		t.Error("Build accepted even k")
	}
	if _, err := Build(context.Background(), reads, 9, 1); err == nil {
		t.Error("Build accepted k longer than reads")
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reads := []*sequence.Read{sequence.NewRead("r", []byte("ACGTACGT"))}
	if _, err := Build(ctx, reads, 3, 1); err != context.Canceled {
		t.Error("Build ignored cancellation", err)
	}
}
