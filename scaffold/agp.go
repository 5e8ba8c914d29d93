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
	"bufio"
	"fmt"
	"io"

	"github.com/exascience/elassemble/contig"
)

const (
	agpGapType  = "scaffold"
	agpLinkage  = "yes"
	agpEvidence = "paired-ends"
)

/*
WriteAGP writes the layout of the scaffolds in AGP format: one object
per scaffold, with a W line per contig and an N line per gap. Contigs
that are in no scaffold are written as objects of their own.
Component coordinates refer to the stored strand of the contigs.
*/
func WriteAGP(w io.Writer, scaffolds []*Scaffold, unscaffolded []*contig.Contig) error {
	out := bufio.NewWriter(w)
	for _, s := range scaffolds {
		object := fmt.Sprintf("scaffold%d", s.ID)
		objectBeg, partNumber := 1, 0
		for _, step := range s.Steps {
			if gap := step.Delta.Gap; gap > 0 {
				partNumber++
				if _, err := fmt.Fprintf(out, "%s\t%d\t%d\t%d\t%c\t%d\t%s\t%s\t%s\n",
					object, objectBeg, objectBeg+gap-1, partNumber,
					'N', gap, agpGapType, agpLinkage, agpEvidence); err != nil {
					return err
				}
				objectBeg += gap
			}
			c := step.Contig
			componentBeg, componentEnd := step.Trim+1, step.Trim+step.Length
			strand := '+'
			if !step.End.Fwd {
				componentBeg, componentEnd = c.Len()-componentEnd+1, c.Len()-componentBeg+1
				strand = '-'
			}
			partNumber++
			if _, err := fmt.Fprintf(out, "%s\t%d\t%d\t%d\t%c\t%s\t%d\t%d\t%c\n",
				object, objectBeg, objectBeg+step.Length-1, partNumber,
				'W', c, componentBeg, componentEnd, strand); err != nil {
				return err
			}
			objectBeg += step.Length
		}
	}
	for _, c := range unscaffolded {
		if _, err := fmt.Fprintf(out, "%s\t%d\t%d\t%d\t%c\t%s\t%d\t%d\t%c\n",
			c, 1, c.Len(), 1, 'W', c, 1, c.Len(), '+'); err != nil {
			return err
		}
	}
	return out.Flush()
}
