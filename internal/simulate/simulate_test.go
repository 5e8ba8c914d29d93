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

package simulate

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/exascience/elassemble/sequence"
)

func TestPairs(t *testing.T) {
	genome := Genome(rand.New(rand.NewSource(1)), 1000)
	lib := sequence.NewLibrary("pairs", 300, 10, sequence.FR)
	reads := Pairs(genome, 50, 300, []int{-10, 0, 100, 800}, lib)
	if len(reads) != 4 {
		t.Fatal("unexpected number of reads", len(reads))
	}
	for i := 0; i < len(reads); i += 2 {
		mate1, mate2 := reads[i], reads[i+1]
		if mate1.Pair == nil || mate2.Pair == nil || mate1.Pair.Mate != i+1 || mate2.Pair.Mate != i ||
			!mate1.Pair.First || mate2.Pair.First || mate1.Pair.Library != lib.Name {
			t.Error("pair", i, "not set up")
		}
	}
	if !bytes.Equal(reads[2].Seq, genome[100:150]) || !bytes.Equal(reads[3].Seq, sequence.ReverseComplement(genome[350:400])) {
		t.Error("unexpected mate sequences")
	}
}

func TestCancelAfter(t *testing.T) {
	ctx := CancelAfter(2)
	for i := 0; i < 2; i++ {
		if err := ctx.Err(); err != nil {
			t.Fatal("cancelled too early", i)
		}
	}
	for i := 0; i < 2; i++ {
		if err := ctx.Err(); err != context.Canceled {
			t.Error("not cancelled", err)
		}
	}
}
