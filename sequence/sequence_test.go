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

import (
	"testing"

	"github.com/exascience/elassemble/utils"
)

func TestNormalize(t *testing.T) {
	seq := []byte("acgtRYNnACGTx")
	Normalize(seq)
	if string(seq) != "ACGTNNNNACGTN" {
		t.Error("Normalize failed", string(seq))
	}
}

func TestReverseComplement(t *testing.T) {
	if string(ReverseComplement([]byte("AACGTN"))) != "NACGTT" {
		t.Error("ReverseComplement failed")
	}
	seq := []byte("GATTACA")
	ReverseComplementInPlace(seq)
	if string(seq) != "TGTAATC" {
		t.Error("ReverseComplementInPlace failed", string(seq))
	}
	seq = []byte("ACG")
	ReverseComplementInPlace(seq)
	if string(seq) != "CGT" {
		t.Error("ReverseComplementInPlace odd length failed", string(seq))
	}
}

func TestSetPair(t *testing.T) {
	reads := []*Read{NewRead("a", []byte("ACGT")), NewRead("b", []byte("ACG"))}
	lib := utils.Intern("lib")
	if err := SetPair(reads, 0, 1, lib); err != nil {
		t.Fatal(err)
	}
	if reads[0].Pair.Mate != 1 || reads[1].Pair.Mate != 0 || !reads[0].Pair.First || reads[1].Pair.First {
		t.Error("SetPair mates failed")
	}
	if reads[1].Pair.Library != lib {
		t.Error("SetPair library failed")
	}
	if SetPair(reads, 0, 0, lib) == nil || SetPair(reads, 0, 2, lib) == nil {
		t.Error("SetPair accepted invalid indices")
	}
	if ShortestLength(reads) != 3 || ShortestLength(nil) != 0 {
		t.Error("ShortestLength failed")
	}
}

func TestPairing(t *testing.T) {
	lib := utils.Intern("pairing")
	first := []*Read{NewRead("a/1", []byte("ACGT")), NewRead("b/1", []byte("ACGT"))}
	second := []*Read{NewRead("a/2", []byte("ACGT")), NewRead("b/2", []byte("ACGT"))}
	reads, err := PairFiles(first, second, lib)
	if err != nil {
		t.Fatal(err)
	}
	if len(reads) != 4 || reads[1].Pair.Mate != 3 || reads[3].Pair.Mate != 1 || !reads[1].Pair.First {
		t.Error("PairFiles failed")
	}
	if _, err := PairFiles(first, second[:1], lib); err == nil {
		t.Error("PairFiles accepted files of different lengths")
	}
	interleaved := append(append([]*Read(nil), first...), second...)
	if err := PairInterleaved(interleaved, lib); err != nil {
		t.Fatal(err)
	}
	if interleaved[2].Pair.Mate != 3 || !interleaved[2].Pair.First || interleaved[3].Pair.First {
		t.Error("PairInterleaved failed")
	}
	if PairInterleaved(interleaved[:3], lib) == nil {
		t.Error("PairInterleaved accepted an odd number of reads")
	}
}

func TestOrientation(t *testing.T) {
	for _, o := range []Orientation{FR, RF, FF} {
		var parsed Orientation
		if err := parsed.UnmarshalText([]byte(o.String())); err != nil || parsed != o {
			t.Error("orientation parse failed for", o)
		}
	}
	if _, err := ParseOrientation("XY"); err == nil {
		t.Error("ParseOrientation accepted XY")
	}
}

func TestLibrariesSorted(t *testing.T) {
	libs := NewLibraries([]*Library{
		NewLibrary("b", 500, 50, FR),
		NewLibrary("a", 3000, 300, RF),
	})
	sorted := libs.Sorted()
	if len(sorted) != 2 || *sorted[0].Name != "a" || *sorted[1].Name != "b" {
		t.Error("Libraries.Sorted failed")
	}
	if libs[utils.Intern("a")].Orientation != RF {
		t.Error("library lookup failed")
	}
}
