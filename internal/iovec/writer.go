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

// Writer is a monotonically-advancing cursor over the write suffix of a
// descriptor chain.
type Writer struct {
	segments []Segment
	seg      int
	off      int
	written  int
}

// Remaining reports how many bytes of capacity are left.
func (w *Writer) Remaining() int {
	n := 0
	if w.seg < len(w.segments) {
		n += len(w.segments[w.seg].Data) - w.off
	}
	for i := w.seg + 1; i < len(w.segments); i++ {
		n += len(w.segments[i].Data)
	}
	return n
}

// Written reports how many bytes have been written so far.
func (w *Writer) Written() int {
	return w.written
}

// WriteAll copies all of b into the chain's writable segments, advancing
// across segment boundaries as needed. It returns ErrNoCapacity without
// writing anything if b does not fit in the remaining capacity.
func (w *Writer) WriteAll(b []byte) error {
	if w.Remaining() < len(b) {
		return ErrNoCapacity
	}

	for len(b) > 0 {
		cur := w.segments[w.seg].Data
		avail := len(cur) - w.off
		if avail == 0 {
			w.seg++
			w.off = 0
			continue
		}

		take := avail
		if take > len(b) {
			take = len(b)
		}
		copy(cur[w.off:w.off+take], b[:take])
		w.off += take
		w.written += take
		b = b[take:]
	}
	return nil
}
