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

package internal

import "sync"

var sequencePool = sync.Pool{New: func() interface{} {
	return []byte(nil)
}}

/*
ReserveSequenceBuffer fetches an empty byte slice from a pool, grown
to at least the given capacity. Consensus sequences are assembled in
such buffers, since most of them are thrown away once the final
sequence is known.

The contents must be copied out before the buffer is handed back with
ReleaseSequenceBuffer.
*/
func ReserveSequenceBuffer(capacity int) []byte {
	buf := sequencePool.Get().([]byte)[:0]
	if cap(buf) < capacity {
		sequencePool.Put(buf)
		buf = make([]byte, 0, capacity)
	}
	return buf
}

// ReleaseSequenceBuffer returns a buffer to the pool.
func ReleaseSequenceBuffer(buf []byte) {
	sequencePool.Put(buf)
}
