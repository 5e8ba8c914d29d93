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
	"bytes"
	"fmt"
	"io"

	"github.com/exascience/elassemble/sequence"
)

// A Record is one entry of a FASTA file.
type Record struct {
	Name string
	Seq  []byte
}

func nameFromHeader(b []byte) string {
	i := 1
	for ; i < len(b); i++ {
		if c := b[i]; c >= '!' && c <= '~' {
			break
		}
	}
	j := i + 1
	for ; j < len(b); j++ {
		if c := b[j]; c < '!' || c > '~' {
			break
		}
	}
	if i >= len(b) {
		return ""
	}
	return string(b[i:j])
}

const maxLineLength = 1 << 24

/*
Parse sequentially parses FASTA records. Names are the first word of
the header lines. Bases are converted to upper case, and ambiguity
codes to N. Empty lines are only allowed before headers.
*/
func Parse(r io.Reader) (records []Record, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineLength)

	var b []byte
	for len(b) == 0 {
		if !scanner.Scan() {
			if err = scanner.Err(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		b = scanner.Bytes()
	}
	if b[0] != '>' {
		return nil, fmt.Errorf("invalid fasta data - missing first header")
	}

	record := Record{Name: nameFromHeader(b)}
	line := 1

scanLoop:
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			for len(b) == 0 {
				if !scanner.Scan() {
					break scanLoop
				}
				line++
				b = scanner.Bytes()
			}
			if b[0] != '>' {
				return nil, fmt.Errorf("invalid fasta data - empty line before line %v", line)
			}
		}
		if b[0] == '>' {
			sequence.Normalize(record.Seq)
			records = append(records, record)
			record = Record{Name: nameFromHeader(b)}
		} else {
			record.Seq = append(record.Seq, bytes.TrimSuffix(b, []byte("\r"))...)
		}
	}
	sequence.Normalize(record.Seq)
	records = append(records, record)

	if err = scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// DefaultLineWidth is the number of bases per line written by Write.
const DefaultLineWidth = 60

// Write writes records in FASTA format, with at most width bases per
// line.
func Write(w io.Writer, records []Record, width int) error {
	if width <= 0 {
		width = DefaultLineWidth
	}
	out := bufio.NewWriter(w)
	for _, record := range records {
		if _, err := fmt.Fprintf(out, ">%s\n", record.Name); err != nil {
			return err
		}
		for start := 0; start < len(record.Seq); start += width {
			end := start + width
			if end > len(record.Seq) {
				end = len(record.Seq)
			}
			if _, err := out.Write(record.Seq[start:end]); err != nil {
				return err
			}
			if err := out.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return out.Flush()
}
