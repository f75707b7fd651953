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

// Package inode implements a bidirectional nodeid<->path mapping: an arena
// of flat maps keyed by a monotonically increasing 64-bit id, guarded by a
// single invariant-checked lock since the operation mix does not warrant
// finer granularity.
package inode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jacobsa/syncutil"

	"github.com/jacobsa/virtiofsd/backend"
	"github.com/jacobsa/virtiofsd/fusewire"
)

// Kind distinguishes a directory inode from a regular file inode.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// RootNodeid is the nodeid of the always-present root directory.
const RootNodeid = 1

// Inode is one entry of the table: a {nodeid, path, kind, refcount} tuple.
type Inode struct {
	Nodeid   uint64
	Path     string
	Kind     Kind
	Refcount uint64
}

// StatFunc resolves a backend path to metadata, used by LookupOrInsert to
// decide whether the child exists and whether it is a file or directory.
// It returns an error satisfying errors.Is(err, backend.ErrNotFound) when
// the path does not exist.
type StatFunc func(path string) (backend.Metadata, error)

// Table is the inode table. The zero value is not usable; use NewTable.
type Table struct {
	mu syncutil.InvariantMutex // GUARDED: byNodeid, byPath, nextID

	byNodeid map[uint64]*Inode // GUARDED_BY(mu)
	byPath   map[string]uint64 // GUARDED_BY(mu)
	nextID   uint64            // GUARDED_BY(mu)
}

// NewTable returns a table containing only the root inode.
func NewTable() *Table {
	t := &Table{
		byNodeid: map[uint64]*Inode{
			RootNodeid: {Nodeid: RootNodeid, Path: "/", Kind: KindDir, Refcount: 1},
		},
		byPath: map[string]uint64{"/": RootNodeid},
		nextID: RootNodeid + 1,
	}
	t.mu = syncutil.NewInvariantMutex(t.checkInvariants)
	return t
}

func (t *Table) checkInvariants() {
	// Unlink removes a path mapping while its nodeid lives on until
	// forgotten, so byPath may be a strict subset of byNodeid.
	if len(t.byPath) > len(t.byNodeid) {
		panic(fmt.Sprintf(
			"inode table size mismatch: %d nodeids, %d paths",
			len(t.byNodeid), len(t.byPath)))
	}

	root, ok := t.byNodeid[RootNodeid]
	if !ok || root.Path != "/" || root.Kind != KindDir {
		panic("inode table missing well-formed root")
	}

	for path, id := range t.byPath {
		in, ok := t.byNodeid[id]
		if !ok || in.Path != path {
			panic(fmt.Sprintf("inode table inconsistent for path %q", path))
		}
	}
}

// validateName rejects names that cannot resolve to a single path
// component: empty, "/", ".", or "..".
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return fusewire.EINVAL
	}
	return nil
}

func resolveChildPath(parentPath, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return parentPath + name, nil
}

// ChildPath resolves the backend path of a would-be child of parentNodeid
// named name, without touching the table. Used by handlers (Unlink) that
// need the path but not an inode.
func (t *Table) ChildPath(parentNodeid uint64, name string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.byNodeid[parentNodeid]
	if !ok {
		return "", fusewire.ENOENT
	}
	if parent.Kind != KindDir {
		return "", fusewire.ENOTDIR
	}
	return resolveChildPath(parent.Path, name)
}

// LookupOrInsert resolves name under parentNodeid, stats the backend, and
// on success either increments the refcount of the existing entry for that
// path or allocates a fresh nodeid with refcount 1. The stat result is
// returned alongside the inode so the caller can synthesize attributes
// without a second backend round trip. A backend not-found stat error is
// reported as fusewire.ENOENT, and the table is left untouched on every
// error path.
func (t *Table) LookupOrInsert(parentNodeid uint64, name string, stat StatFunc) (Inode, backend.Metadata, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.byNodeid[parentNodeid]
	if !ok {
		return Inode{}, backend.Metadata{}, fusewire.ENOENT
	}
	if parent.Kind != KindDir {
		return Inode{}, backend.Metadata{}, fusewire.ENOTDIR
	}

	childPath, err := resolveChildPath(parent.Path, name)
	if err != nil {
		return Inode{}, backend.Metadata{}, err
	}

	meta, finalPath, err := statEitherForm(stat, childPath)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return Inode{}, backend.Metadata{}, fusewire.ENOENT
		}
		return Inode{}, backend.Metadata{}, err
	}

	if in, ok := t.findByEitherForm(childPath); ok {
		in.Refcount++
		return *in, meta, nil
	}

	kind := KindFile
	if meta.Kind == backend.KindDir {
		kind = KindDir
	}

	id := t.nextID
	t.nextID++
	in := &Inode{Nodeid: id, Path: finalPath, Kind: kind, Refcount: 1}
	t.byNodeid[id] = in
	t.byPath[finalPath] = id

	return *in, meta, nil
}

// statEitherForm stats childPath, retrying with a trailing slash when the
// plain form is absent: directory objects are keyed with the slash, and the
// child's kind is unknown before the stat answers. The returned path is the
// canonical form for the table (trailing slash iff directory).
func statEitherForm(stat StatFunc, childPath string) (backend.Metadata, string, error) {
	meta, err := stat(childPath)
	if err == nil {
		if meta.Kind == backend.KindDir && !strings.HasSuffix(childPath, "/") {
			childPath += "/"
		}
		return meta, childPath, nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return backend.Metadata{}, "", err
	}

	meta, slashErr := stat(childPath + "/")
	if slashErr != nil {
		return backend.Metadata{}, "", err
	}
	return meta, childPath + "/", nil
}

// findByEitherForm looks a path up tolerating the directory-trailing-slash
// ambiguity that exists before a stat has told us the child's kind.
func (t *Table) findByEitherForm(path string) (*Inode, bool) {
	if id, ok := t.byPath[path]; ok {
		return t.byNodeid[id], true
	}
	trimmed := strings.TrimSuffix(path, "/")
	if id, ok := t.byPath[trimmed+"/"]; ok {
		return t.byNodeid[id], true
	}
	return nil, false
}

// Insert allocates an inode for a path the caller has already created in
// the backend, skipping the stat round trip LookupOrInsert would otherwise
// do.
func (t *Table) Insert(parentNodeid uint64, name string, kind Kind) (Inode, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.byNodeid[parentNodeid]
	if !ok {
		return Inode{}, fusewire.ENOENT
	}
	if parent.Kind != KindDir {
		return Inode{}, fusewire.ENOTDIR
	}

	childPath, err := resolveChildPath(parent.Path, name)
	if err != nil {
		return Inode{}, err
	}
	if kind == KindDir {
		childPath += "/"
	}

	if in, ok := t.findByEitherForm(childPath); ok {
		in.Refcount++
		return *in, nil
	}

	id := t.nextID
	t.nextID++
	in := &Inode{Nodeid: id, Path: childPath, Kind: kind, Refcount: 1}
	t.byNodeid[id] = in
	t.byPath[childPath] = id

	return *in, nil
}

// Get returns the inode for nodeid, or fusewire.ENOENT if it is not live.
func (t *Table) Get(nodeid uint64) (Inode, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	in, ok := t.byNodeid[nodeid]
	if !ok {
		return Inode{}, fusewire.ENOENT
	}
	return *in, nil
}

// PathOf returns the backend path for nodeid, or fusewire.ENOENT if it is
// not live.
func (t *Table) PathOf(nodeid uint64) (string, error) {
	in, err := t.Get(nodeid)
	if err != nil {
		return "", err
	}
	return in.Path, nil
}

// Forget decrements nodeid's refcount by n, removing the entry once it
// reaches zero. Forgetting the root, or an unknown nodeid, is a no-op.
func (t *Table) Forget(nodeid uint64, n uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if nodeid == RootNodeid {
		return
	}

	in, ok := t.byNodeid[nodeid]
	if !ok {
		return
	}

	if n >= in.Refcount {
		delete(t.byNodeid, nodeid)
		// The path may have been unlinked and reclaimed by a newer inode;
		// only drop the mapping if it still points at this one.
		if t.byPath[in.Path] == nodeid {
			delete(t.byPath, in.Path)
		}
		return
	}
	in.Refcount -= n
}

// RemovePath drops path's entry from the path index: the nodeid, if still
// referenced, survives until a matching Forget, but a fresh Lookup of the
// same name will re-stat the backend instead of returning the removed
// inode.
func (t *Table) RemovePath(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byPath, path)
}

// Len returns the number of live inodes, including the root.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byNodeid)
}
