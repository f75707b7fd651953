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

// Package fs is the filesystem state machine: one handler per opcode,
// wiring together the inode table, the handle table, the attribute
// synthesizer, and a backend.Operator. Each method here takes and returns
// the decoded fusewire records directly rather than a higher-level
// request/response pair, since this core speaks the wire protocol
// verbatim.
package fs

import (
	"context"
	"errors"
	"log"

	"github.com/jacobsa/virtiofsd/attr"
	"github.com/jacobsa/virtiofsd/backend"
	"github.com/jacobsa/virtiofsd/fusewire"
	"github.com/jacobsa/virtiofsd/handle"
	"github.com/jacobsa/virtiofsd/inode"
	"github.com/jacobsa/virtiofsd/internal/logging"
)

const (
	maxWrite  = 1 << 20 // 1 MiB
	timeGran  = 1
	maxPages  = 256
	suppFlags = 0 // supported_mask: the core negotiates no optional flags

	flagWronly = 1 << 0
	flagRdwr   = 1 << 1
	flagExcl   = 1 << 7
)

// FileSystem is the per-mount state: the root nodeid's inode table, the
// open-handle table, and the backend it serves. The zero value is not
// usable; use New.
type FileSystem struct {
	Backend backend.Operator
	Logger  *log.Logger

	inodes  *inode.Table
	handles *handle.Table

	destroyed bool
}

// New returns a FileSystem serving b, logging nothing by default.
func New(b backend.Operator) *FileSystem {
	return &FileSystem{
		Backend: b,
		Logger:  logging.New(false),
		inodes:  inode.NewTable(),
		handles: handle.NewTable(),
	}
}

// Destroyed reports whether Destroy has already run; the dispatcher uses
// this to answer every later opcode with ENOTCONN.
func (fs *FileSystem) Destroyed() bool {
	return fs.destroyed
}

func (fs *FileSystem) stat(ctx context.Context) inode.StatFunc {
	return func(path string) (backend.Metadata, error) {
		return fs.Backend.Stat(ctx, path)
	}
}

// splitName trims the trailing NUL that Lookup/Unlink/Create name bodies
// carry.
func splitName(body []byte) string {
	if i := indexByte(body, 0); i >= 0 {
		body = body[:i]
	}
	return string(body)
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// Init negotiates the protocol version. Later Inits (the core has already
// negotiated a version) are accepted idempotently, echoing the same
// reply.
func (fs *FileSystem) Init(ctx context.Context, in fusewire.InitIn) (fusewire.InitOut, error) {
	if in.Major < fusewire.ProtoVersionMinMajor {
		return fusewire.InitOut{}, fusewire.EPROTO
	}
	if in.Major == fusewire.ProtoVersionMinMajor && in.Minor < fusewire.ProtoVersionMinMinor {
		return fusewire.InitOut{}, fusewire.EPROTO
	}

	return fusewire.InitOut{
		Major:               fusewire.ProtoVersionMaxMajor,
		Minor:               fusewire.ProtoVersionMaxMinor,
		MaxReadahead:        in.MaxReadahead,
		Flags:               in.Flags & suppFlags,
		MaxBackground:       0,
		CongestionThreshold: 0,
		MaxWrite:            maxWrite,
		TimeGran:            timeGran,
		MaxPages:            maxPages,
		MapAlignment:        0,
		Flags2:              0,
	}, nil
}

// Destroy marks the filesystem as torn down; no further request should be
// served after this.
func (fs *FileSystem) Destroy() {
	fs.destroyed = true
}

func (fs *FileSystem) entryOut(in inode.Inode, meta backend.Metadata) fusewire.EntryOut {
	return fusewire.EntryOut{
		Nodeid:     in.Nodeid,
		Generation: 0,
		EntryValid: 1,
		AttrValid:  1,
		Attr:       attr.Synthesize(in.Nodeid, meta),
	}
}

// Lookup resolves name under parent, allocating or refcounting its inode.
func (fs *FileSystem) Lookup(ctx context.Context, parent uint64, nameBody []byte) (fusewire.EntryOut, error) {
	name := splitName(nameBody)

	in, meta, err := fs.inodes.LookupOrInsert(parent, name, fs.stat(ctx))
	if err != nil {
		return fusewire.EntryOut{}, fs.translateBackendErr(err)
	}
	return fs.entryOut(in, meta), nil
}

// Forget drops nlookup references to nodeid. It never returns an error:
// the dispatcher must not emit a reply for this opcode regardless.
func (fs *FileSystem) Forget(nodeid uint64, in fusewire.ForgetIn) {
	fs.inodes.Forget(nodeid, in.Nlookup)
}

// Getattr returns synthesized attributes for nodeid.
func (fs *FileSystem) Getattr(ctx context.Context, nodeid uint64) (fusewire.AttrOut, error) {
	path, err := fs.inodes.PathOf(nodeid)
	if err != nil {
		return fusewire.AttrOut{}, err
	}

	meta, err := fs.Backend.Stat(ctx, path)
	if err != nil {
		return fusewire.AttrOut{}, fs.translateBackendErr(err)
	}
	return fusewire.AttrOut{
		AttrValid: 1,
		Attr:      attr.Synthesize(nodeid, meta),
	}, nil
}

// SetattrValid mirrors the FUSE kernel ABI's "valid" bitmask; only the
// size bit is meaningful to this core.
const SetattrValidSize = 1 << 3

// Setattr honors only a truncate-to-zero; every other field is silently
// ignored.
func (fs *FileSystem) Setattr(ctx context.Context, nodeid uint64, valid uint32, size uint64) (fusewire.AttrOut, error) {
	path, err := fs.inodes.PathOf(nodeid)
	if err != nil {
		return fusewire.AttrOut{}, err
	}

	if valid&SetattrValidSize != 0 && size == 0 {
		if err := fs.Backend.Write(ctx, path, nil); err != nil {
			return fusewire.AttrOut{}, fs.translateBackendErr(err)
		}
	}

	meta, err := fs.Backend.Stat(ctx, path)
	if err != nil {
		return fusewire.AttrOut{}, fs.translateBackendErr(err)
	}
	return fusewire.AttrOut{
		AttrValid: 1,
		Attr:      attr.Synthesize(nodeid, meta),
	}, nil
}

// Unlink removes name under parent from both the backend and the inode
// table's path index.
func (fs *FileSystem) Unlink(ctx context.Context, parent uint64, nameBody []byte) error {
	name := splitName(nameBody)

	path, err := fs.inodes.ChildPath(parent, name)
	if err != nil {
		return err
	}

	// Delete is silently-ok on a missing path, so absence has to be
	// detected here for the ENOENT mapping.
	if _, err := fs.Backend.Stat(ctx, path); err != nil {
		return fs.translateBackendErr(err)
	}

	if err := fs.Backend.Delete(ctx, path); err != nil {
		return fs.translateBackendErr(err)
	}

	fs.inodes.RemovePath(path)
	return nil
}

// Open allocates a handle for nodeid, eagerly truncating the backend
// object when opened for writing.
func (fs *FileSystem) Open(ctx context.Context, nodeid uint64, in fusewire.OpenIn) (fusewire.OpenOut, error) {
	this, err := fs.inodes.Get(nodeid)
	if err != nil {
		return fusewire.OpenOut{}, err
	}
	if this.Kind == inode.KindDir {
		return fusewire.OpenOut{}, fusewire.EISDIR
	}

	var fh uint64
	if in.Flags&(flagWronly|flagRdwr) != 0 {
		if err := fs.Backend.Write(ctx, this.Path, nil); err != nil {
			return fusewire.OpenOut{}, fs.translateBackendErr(err)
		}
		fh = fs.handles.OpenWrite(nodeid, this.Path, in.OpenFlags)
	} else {
		fh = fs.handles.OpenRead(nodeid, this.Path, in.OpenFlags)
	}

	return fusewire.OpenOut{Fh: fh}, nil
}

// CreateResult bundles the two reply records Create concatenates.
type CreateResult struct {
	Entry fusewire.EntryOut
	Open  fusewire.OpenOut
}

// Create makes a new empty file under parent and opens it for writing.
func (fs *FileSystem) Create(ctx context.Context, parent uint64, in fusewire.CreateIn, nameBody []byte) (CreateResult, error) {
	name := splitName(nameBody)

	path, err := fs.inodes.ChildPath(parent, name)
	if err != nil {
		return CreateResult{}, err
	}

	_, statErr := fs.Backend.Stat(ctx, path)
	exists := statErr == nil
	if exists && in.Flags&flagExcl != 0 {
		return CreateResult{}, fusewire.EEXIST
	}
	if statErr != nil && !errors.Is(statErr, backend.ErrNotFound) {
		return CreateResult{}, fs.translateBackendErr(statErr)
	}

	if err := fs.Backend.Write(ctx, path, nil); err != nil {
		return CreateResult{}, fs.translateBackendErr(err)
	}

	in2, err := fs.inodes.Insert(parent, name, inode.KindFile)
	if err != nil {
		return CreateResult{}, err
	}

	meta, err := fs.Backend.Stat(ctx, path)
	if err != nil {
		return CreateResult{}, fs.translateBackendErr(err)
	}

	fh := fs.handles.OpenWrite(in2.Nodeid, path, in.OpenFlags)
	return CreateResult{
		Entry: fs.entryOut(in2, meta),
		Open:  fusewire.OpenOut{Fh: fh},
	}, nil
}

// Read returns bytes from the backend object behind a reader handle.
func (fs *FileSystem) Read(ctx context.Context, in fusewire.ReadIn) ([]byte, error) {
	h, err := fs.handles.Get(in.Fh)
	if err != nil {
		return nil, err
	}
	if h.Mode != handle.ModeRead {
		return nil, fusewire.EBADF
	}

	data, err := fs.Backend.Read(ctx, h.Reader.Path, int64(in.Offset), int64(in.Size))
	if err != nil {
		return nil, fs.translateBackendErr(err)
	}
	return data, nil
}

// Write accepts data at the handle's running offset, appends it to the
// buffered content, and persists the full buffer to the backend.
func (fs *FileSystem) Write(ctx context.Context, in fusewire.WriteIn, data []byte) (fusewire.WriteOut, error) {
	h, err := fs.handles.Get(in.Fh)
	if err != nil {
		return fusewire.WriteOut{}, err
	}
	if h.Mode != handle.ModeWrite {
		return fusewire.WriteOut{}, fusewire.EBADF
	}
	if in.Offset != h.Writer.RunningOffset {
		return fusewire.WriteOut{}, fusewire.EINVAL
	}

	// Persist the candidate buffer before committing it to the handle, so
	// a failed backend write leaves the running offset where it was and a
	// client retry at the same offset is still accepted.
	candidate := make([]byte, 0, len(h.Writer.Buffer)+len(data))
	candidate = append(candidate, h.Writer.Buffer...)
	candidate = append(candidate, data...)
	if err := fs.Backend.Write(ctx, h.Writer.Path, candidate); err != nil {
		return fusewire.WriteOut{}, fs.translateBackendErr(err)
	}

	h.Writer.Buffer = candidate
	h.Writer.RunningOffset += uint64(len(data))
	return fusewire.WriteOut{Size: uint32(len(data))}, nil
}

// Release persists a writer's buffered content one last time. The handle
// is destroyed regardless of whether closing its stream errors, and
// releasing an fh that is not open succeeds (the table tolerates races
// between in-flight requests and teardown).
func (fs *FileSystem) Release(ctx context.Context, fh uint64) error {
	h, err := fs.handles.Get(fh)
	if err != nil {
		return nil
	}
	defer fs.handles.Release(fh)

	if h.Mode == handle.ModeWrite {
		if err := fs.Backend.Write(ctx, h.Writer.Path, h.Writer.Buffer); err != nil {
			return fusewire.EIO
		}
	}
	return nil
}

// Flush re-persists a writer's buffered content; for readers it is a
// no-op.
func (fs *FileSystem) Flush(ctx context.Context, fh uint64) error {
	h, err := fs.handles.Get(fh)
	if err != nil {
		return err
	}
	if h.Mode != handle.ModeWrite {
		return nil
	}
	if err := fs.Backend.Write(ctx, h.Writer.Path, h.Writer.Buffer); err != nil {
		return fusewire.EIO
	}
	return nil
}

// translateBackendErr maps a raw backend.Operator error to the errno
// taxonomy. Anything not otherwise classified collapses to EIO and is
// logged with its underlying cause.
func (fs *FileSystem) translateBackendErr(err error) error {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return fusewire.ENOENT
	case errors.Is(err, backend.ErrPermissionDenied):
		return fusewire.EACCES
	default:
		var e fusewire.Errno
		if errors.As(err, &e) {
			return e
		}
		fs.Logger.Println("backend error collapsed to EIO:", err)
		return fusewire.EIO
	}
}
