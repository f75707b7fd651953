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

// Package iovec implements a guest-memory reader/writer: a scatter cursor
// over the segments of a single virtio descriptor chain, already translated
// to host-addressable byte slices by the transport.
package iovec

import "errors"

// ErrTruncated is returned when a read runs off the end of the chain's
// read prefix.
var ErrTruncated = errors.New("iovec: truncated read")

// ErrNoCapacity is returned when a write runs off the end of the chain's
// write suffix.
var ErrNoCapacity = errors.New("iovec: insufficient capacity")

// Segment is one guest-memory region of a descriptor chain: a host-address
// view of length len(Data), marked writable if the guest allows the device
// to write into it.
type Segment struct {
	Data     []byte
	Writable bool
}

// Chain is a descriptor chain: a read prefix of non-writable segments
// (the request) followed by a write suffix of writable segments (room for
// the reply). This matches the virtio-fs convention that the driver places
// all readable descriptors before all writable ones.
type Chain struct {
	Segments []Segment
}

// ReadPrefixLen returns the total number of bytes available in the chain's
// non-writable segments.
func (c Chain) ReadPrefixLen() int {
	n := 0
	for _, s := range c.Segments {
		if !s.Writable {
			n += len(s.Data)
		}
	}
	return n
}

// WriteSuffixLen returns the total number of bytes available in the
// chain's writable segments.
func (c Chain) WriteSuffixLen() int {
	n := 0
	for _, s := range c.Segments {
		if s.Writable {
			n += len(s.Data)
		}
	}
	return n
}

// Reader returns a cursor over the chain's read prefix.
func (c Chain) Reader() *Reader {
	return &Reader{segments: readSegments(c.Segments)}
}

// Writer returns a cursor over the chain's write suffix.
func (c Chain) Writer() *Writer {
	return &Writer{segments: writeSegments(c.Segments)}
}

func readSegments(all []Segment) []Segment {
	var out []Segment
	for _, s := range all {
		if !s.Writable {
			out = append(out, s)
		}
	}
	return out
}

func writeSegments(all []Segment) []Segment {
	var out []Segment
	for _, s := range all {
		if s.Writable {
			out = append(out, s)
		}
	}
	return out
}
