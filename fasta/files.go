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

// Package fasta reads and writes the sequence files of an assembly:
// reads in FASTA or FASTQ format, possibly gzip or zstd compressed,
// and contigs or scaffolds in FASTA format.
package fasta

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error {
	return r.close()
}

// Open opens a file for reading. Gzip and zstd compression are
// detected from the first bytes of the file, not from its name.
func Open(filename string) (io.ReadCloser, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	buffered := bufio.NewReader(f)
	magic, _ := buffered.Peek(len(zstdMagic))
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return readCloser{gz, func() error {
			err := gz.Close()
			if nerr := f.Close(); err == nil {
				err = nerr
			}
			return err
		}}, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(buffered, zstd.WithDecoderConcurrency(1))
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return readCloser{zr, func() error {
			zr.Close()
			return f.Close()
		}}, nil
	}
	return readCloser{buffered, f.Close}, nil
}

type writeCloser struct {
	io.Writer
	close func() error
}

func (w writeCloser) Close() error {
	return w.close()
}

// Create creates a file for writing. Files named *.gz are gzip
// compressed, and files named *.zst are zstd compressed.
func Create(filename string) (io.WriteCloser, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	buffered := bufio.NewWriter(f)
	closeAll := func(flush func() error) func() error {
		return func() error {
			err := flush()
			if nerr := buffered.Flush(); err == nil {
				err = nerr
			}
			if nerr := f.Close(); err == nil {
				err = nerr
			}
			return err
		}
	}
	switch filepath.Ext(filename) {
	case ".gz":
		gz := gzip.NewWriter(buffered)
		return writeCloser{gz, closeAll(gz.Close)}, nil
	case ".zst":
		zw, err := zstd.NewWriter(buffered, zstd.WithEncoderConcurrency(1))
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return writeCloser{zw, closeAll(zw.Close)}, nil
	}
	return writeCloser{buffered, closeAll(func() error { return nil })}, nil
}
