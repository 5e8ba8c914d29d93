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

package fasta

import (
	"bufio"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/exascience/elassemble/sequence"
)

func firstByte(filename string) (byte, error) {
	r, err := Open(filename)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = r.Close()
	}()
	buffered := bufio.NewReader(r)
	for {
		b, err := buffered.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, nil
			}
			return 0, err
		}
		if b != ' ' && b != '\t' && b != '\r' && b != '\n' {
			return b, nil
		}
	}
}

// LoadReads loads the reads of a FASTA or FASTQ file, which may be
// compressed. The format is detected from the first character.
func LoadReads(filename string) ([]*sequence.Read, error) {
	first, err := firstByte(filename)
	if err != nil {
		return nil, err
	}
	if first == '@' {
		return loadFastq(filename)
	}
	r, err := Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()
	records, err := Parse(r)
	if err != nil {
		return nil, err
	}
	reads := make([]*sequence.Read, len(records))
	for i, record := range records {
		reads[i] = sequence.NewRead(record.Name, record.Seq)
	}
	return reads, nil
}

// Quality values are ignored: the assembler counts k-mers, and
// filters errors through the graph.
func loadFastq(filename string) ([]*sequence.Read, error) {
	seq.ValidateSeq = false
	reader, err := fastx.NewDefaultReader(filename)
	if err != nil {
		return nil, err
	}
	var reads []*sequence.Read
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		bases := append([]byte(nil), record.Seq.Seq...)
		reads = append(reads, sequence.NewRead(string(record.ID), bases))
	}
	return reads, nil
}
