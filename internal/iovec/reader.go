// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package iovec

// Reader is a monotonically-advancing cursor over the read prefix of a
// descriptor chain. It never copies a segment-local read; a read that
// would span a segment boundary is consolidated into a local buffer.
type Reader struct {
	segments []Segment
	seg      int // index of the current segment
	off      int // offset within segments[seg]
}

// Remaining reports how many bytes are left to read.
func (r *Reader) Remaining() int {
	n := 0
	if r.seg < len(r.segments) {
		n += len(r.segments[r.seg].Data) - r.off
	}
	for i := r.seg + 1; i < len(r.segments); i++ {
		n += len(r.segments[i].Data)
	}
	return n
}

// Peek returns a borrowed view of the next n bytes without advancing the
// cursor, if those bytes lie entirely within the current segment; ok is
// false if the read would span a segment boundary or run past the end of
// the chain (callers fall back to ReadExact in either case).
func (r *Reader) Peek(n int) (b []byte, ok bool) {
	if r.seg >= len(r.segments) {
		return nil, false
	}
	cur := r.segments[r.seg].Data
	if r.off+n > len(cur) {
		return nil, false
	}
	return cur[r.off : r.off+n], true
}

// ReadExact reads and returns exactly n bytes, advancing the cursor across
// as many segment boundaries as needed. It returns ErrTruncated if fewer
// than n bytes remain in the read prefix.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	if b, ok := r.Peek(n); ok {
		r.off += n
		return b, nil
	}

	if r.Remaining() < n {
		return nil, ErrTruncated
	}

	out := make([]byte, 0, n)
	for n > 0 {
		if r.seg >= len(r.segments) {
			return nil, ErrTruncated
		}
		cur := r.segments[r.seg].Data
		avail := len(cur) - r.off
		if avail == 0 {
			r.seg++
			r.off = 0
			continue
		}

		take := avail
		if take > n {
			take = n
		}
		out = append(out, cur[r.off:r.off+take]...)
		r.off += take
		n -= take
	}
	return out, nil
}
