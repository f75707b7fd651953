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

// Package handle implements the fh->open-stream table, in the same
// flat-map-plus-counter style as the inode package.
package handle

import (
	"github.com/jacobsa/syncutil"

	"github.com/jacobsa/virtiofsd/fusewire"
)

// Mode distinguishes a handle opened for reading from one opened for
// writing; the two are mutually exclusive per fh.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

// ReaderState holds a reader handle's fixed backend path. Reads are
// stateless at the backend (offset travels with each Read call), so there
// is nothing else to track.
type ReaderState struct {
	Path string
}

// WriterState holds a writer handle's backend path, the bytes accepted so
// far, and the running write offset: Write is only accepted at
// RunningOffset, and the accumulated Buffer is what gets persisted to the
// backend on every accepted write.
type WriterState struct {
	Path          string
	Buffer        []byte
	RunningOffset uint64
}

// Handle is one entry of the table: a {fh, nodeid, mode, state, flags}
// tuple.
type Handle struct {
	Fh     uint64
	Nodeid uint64
	Mode   Mode
	Flags  uint32

	Reader *ReaderState // set iff Mode == ModeRead
	Writer *WriterState // set iff Mode == ModeWrite
}

// Table is the handle table. The zero value is not usable; use NewTable.
type Table struct {
	mu syncutil.InvariantMutex // GUARDED: byFh, nextFh

	byFh   map[uint64]*Handle // GUARDED_BY(mu)
	nextFh uint64             // GUARDED_BY(mu)
}

// NewTable returns an empty table. fh 0 is reserved and never allocated.
func NewTable() *Table {
	t := &Table{
		byFh:   make(map[uint64]*Handle),
		nextFh: 1,
	}
	t.mu = syncutil.NewInvariantMutex(t.checkInvariants)
	return t
}

func (t *Table) checkInvariants() {
	for fh, h := range t.byFh {
		if fh == 0 {
			panic("handle table contains reserved fh 0")
		}
		if h.Fh != fh {
			panic("handle table key/value fh mismatch")
		}
		if h.Mode == ModeRead && h.Reader == nil {
			panic("read handle missing ReaderState")
		}
		if h.Mode == ModeWrite && h.Writer == nil {
			panic("write handle missing WriterState")
		}
	}
}

// OpenRead allocates a fresh fh positioned at the start of path.
func (t *Table) OpenRead(nodeid uint64, path string, flags uint32) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	fh := t.nextFh
	t.nextFh++
	t.byFh[fh] = &Handle{
		Fh:     fh,
		Nodeid: nodeid,
		Mode:   ModeRead,
		Flags:  flags,
		Reader: &ReaderState{Path: path},
	}
	return fh
}

// OpenWrite allocates a fresh fh for writing path. A writer handle always
// begins a fresh append stream at offset 0; the caller is responsible for
// having reset the backend object's content beforehand (Create does so by
// creating the object empty, Open for an existing file by truncating it
// before allocating the handle).
func (t *Table) OpenWrite(nodeid uint64, path string, flags uint32) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	fh := t.nextFh
	t.nextFh++
	t.byFh[fh] = &Handle{
		Fh:     fh,
		Nodeid: nodeid,
		Mode:   ModeWrite,
		Flags:  flags,
		Writer: &WriterState{Path: path},
	}
	return fh
}

// Get returns the handle for fh, or fusewire.EBADF if it is not open.
func (t *Table) Get(fh uint64) (*Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.byFh[fh]
	if !ok {
		return nil, fusewire.EBADF
	}
	return h, nil
}

// Release closes fh. Releasing an unknown or already-released fh is a
// silent no-op, matching FUSE's own Release/Forget tolerance of races
// between in-flight requests and table teardown.
func (t *Table) Release(fh uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byFh, fh)
}

// Len returns the number of open handles.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byFh)
}
