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
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := "\n>first read one\nACGTnn\nryAC\n\n>second\r\nGGCC\r\n"
	records, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatal("expected two records, got", len(records))
	}
	if records[0].Name != "first" || string(records[0].Seq) != "ACGTNNNNAC" {
		t.Error("unexpected first record", records[0].Name, string(records[0].Seq))
	}
	if records[1].Name != "second" || string(records[1].Seq) != "GGCC" {
		t.Error("unexpected second record", records[1].Name, string(records[1].Seq))
	}
	if _, err := Parse(strings.NewReader("ACGT\n")); err == nil {
		t.Error("accepted data without a header")
	}
	if records, err := Parse(strings.NewReader("")); err != nil || len(records) != 0 {
		t.Error("unexpected result for empty input", records, err)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	records := []Record{{Name: "contig0", Seq: []byte("ACGTACGTAC")}, {Name: "contig1", Seq: []byte("GGG")}}
	if err := Write(&buf, records, 4); err != nil {
		t.Fatal(err)
	}
	expected := ">contig0\nACGT\nACGT\nAC\n>contig1\nGGG\n"
	if buf.String() != expected {
		t.Error("unexpected output", buf.String())
	}
	parsed, err := Parse(&buf)
	if err != nil || len(parsed) != 2 || string(parsed[0].Seq) != "ACGTACGTAC" {
		t.Error("output does not parse back", err)
	}
}

func writeFile(t *testing.T, filename, contents string) {
	w, err := Create(filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, contents); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCompressedReads(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"reads.fa", "reads.fa.gz", "reads.fa.zst"} {
		filename := filepath.Join(dir, name)
		writeFile(t, filename, ">r1\nACGTACGT\n>r2\nTTTTGGGG\n")
		reads, err := LoadReads(filename)
		if err != nil {
			t.Fatal(name, err)
		}
		if len(reads) != 2 || reads[0].ID != "r1" || string(reads[1].Seq) != "TTTTGGGG" {
			t.Error("unexpected reads from", name)
		}
	}
}

func TestFastqReads(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "reads.fq")
	writeFile(t, filename, "@r1 first\nACGTNACG\n+\nIIIIIIII\n@r2\nacgtacgt\n+\nIIIIIIII\n")
	reads, err := LoadReads(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(reads) != 2 {
		t.Fatal("expected two reads, got", len(reads))
	}
	if reads[0].ID != "r1" || string(reads[0].Seq) != "ACGTNACG" || string(reads[1].Seq) != "ACGTACGT" {
		t.Error("unexpected reads", reads[0].ID, string(reads[0].Seq), string(reads[1].Seq))
	}
}
