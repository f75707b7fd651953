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

// Package dispatch implements the per-descriptor-chain algorithm that
// turns a Chain into exactly one reply (save for Forget, which emits
// none), by decoding a request with the wire codec, invoking the matching
// fs.FileSystem handler, and encoding the reply back into the chain's
// writable suffix.
package dispatch

import (
	"context"
	"errors"

	"github.com/jacobsa/virtiofsd/fs"
	"github.com/jacobsa/virtiofsd/fusewire"
	"github.com/jacobsa/virtiofsd/internal/iovec"
)

// Dispatcher serves one virtqueue's worth of chains against a single
// FileSystem. The scheduling model is single-threaded cooperative:
// Dispatch must not be called concurrently with itself for the same
// Dispatcher.
type Dispatcher struct {
	fs *fs.FileSystem
}

// New returns a Dispatcher serving filesystem.
func New(filesystem *fs.FileSystem) *Dispatcher {
	return &Dispatcher{fs: filesystem}
}

// Dispatch processes one descriptor chain to completion. It reports
// whether the dispatcher loop should stop serving further chains: true for
// the Destroy request itself and for every later request answered with
// ENOTCONN; a Forget, or a chain whose header cannot be read, yields false.
func (d *Dispatcher) Dispatch(ctx context.Context, chain iovec.Chain) (stop bool) {
	r := chain.Reader()
	w := chain.Writer()

	headerBytes, err := r.ReadExact(fusewire.InHeaderSize)
	if err != nil {
		writeErrorOnly(w, 0, fusewire.EIO)
		return false
	}
	hdr, err := fusewire.DecodeInHeader(headerBytes)
	if err != nil {
		writeErrorOnly(w, 0, fusewire.EIO)
		return false
	}

	if int(hdr.Len) > chain.ReadPrefixLen() {
		writeErrorOnly(w, hdr.Unique, fusewire.EIO)
		return false
	}

	bodyLen := int(hdr.Len) - fusewire.InHeaderSize
	if bodyLen < 0 {
		writeErrorOnly(w, hdr.Unique, fusewire.EIO)
		return false
	}
	body, err := r.ReadExact(bodyLen)
	if err != nil {
		writeErrorOnly(w, hdr.Unique, fusewire.EIO)
		return false
	}

	opcode := fusewire.Opcode(hdr.Opcode)

	// Forget is fire-and-forget: no OutHeader at all, even after Destroy.
	if opcode == fusewire.OpForget {
		in, err := fusewire.DecodeForgetIn(body)
		if err == nil && !d.fs.Destroyed() {
			d.fs.Forget(hdr.Nodeid, in)
		}
		return false
	}

	if d.fs.Destroyed() {
		writeErrorOnly(w, hdr.Unique, fusewire.ENOTCONN)
		return true
	}

	d.fs.Logger.Println("Received:", opcode, "unique", hdr.Unique)

	replyBody, errno := d.handle(ctx, opcode, hdr, body)

	if errno != 0 {
		d.fs.Logger.Println("Responding:", errno)
	} else {
		d.fs.Logger.Println("Responding OK.")
	}

	writeReply(w, hdr.Unique, errno, replyBody)
	return opcode == fusewire.OpDestroy
}

func (d *Dispatcher) handle(ctx context.Context, opcode fusewire.Opcode, hdr fusewire.InHeader, body []byte) ([]byte, fusewire.Errno) {
	switch opcode {
	case fusewire.OpInit:
		in, err := fusewire.DecodeInitIn(body)
		if err != nil {
			return nil, fusewire.EIO
		}
		out, err := d.fs.Init(ctx, in)
		if err != nil {
			return nil, toErrno(err)
		}
		return out.Encode(nil), 0

	case fusewire.OpDestroy:
		d.fs.Destroy()
		return nil, 0

	case fusewire.OpLookup:
		out, err := d.fs.Lookup(ctx, hdr.Nodeid, body)
		if err != nil {
			return nil, toErrno(err)
		}
		return out.Encode(nil), 0

	case fusewire.OpGetattr:
		out, err := d.fs.Getattr(ctx, hdr.Nodeid)
		if err != nil {
			return nil, toErrno(err)
		}
		return out.Encode(nil), 0

	case fusewire.OpSetattr:
		valid, size, err := decodeSetattrIn(body)
		if err != nil {
			return nil, fusewire.EIO
		}
		out, err := d.fs.Setattr(ctx, hdr.Nodeid, valid, size)
		if err != nil {
			return nil, toErrno(err)
		}
		return out.Encode(nil), 0

	case fusewire.OpUnlink:
		if err := d.fs.Unlink(ctx, hdr.Nodeid, body); err != nil {
			return nil, toErrno(err)
		}
		return nil, 0

	case fusewire.OpOpen:
		in, err := fusewire.DecodeOpenIn(body)
		if err != nil {
			return nil, fusewire.EIO
		}
		out, err := d.fs.Open(ctx, hdr.Nodeid, in)
		if err != nil {
			return nil, toErrno(err)
		}
		return out.Encode(nil), 0

	case fusewire.OpCreate:
		if len(body) < fusewire.CreateInSize {
			return nil, fusewire.EIO
		}
		in, err := fusewire.DecodeCreateIn(body[:fusewire.CreateInSize])
		if err != nil {
			return nil, fusewire.EIO
		}
		result, err := d.fs.Create(ctx, hdr.Nodeid, in, body[fusewire.CreateInSize:])
		if err != nil {
			return nil, toErrno(err)
		}
		out := result.Entry.Encode(nil)
		out = result.Open.Encode(out)
		return out, 0

	case fusewire.OpRead:
		in, err := fusewire.DecodeReadIn(body)
		if err != nil {
			return nil, fusewire.EIO
		}
		data, err := d.fs.Read(ctx, in)
		if err != nil {
			return nil, toErrno(err)
		}
		return data, 0

	case fusewire.OpWrite:
		if len(body) < fusewire.WriteInSize {
			return nil, fusewire.EIO
		}
		in, err := fusewire.DecodeWriteIn(body[:fusewire.WriteInSize])
		if err != nil {
			return nil, fusewire.EIO
		}
		out, err := d.fs.Write(ctx, in, body[fusewire.WriteInSize:])
		if err != nil {
			return nil, toErrno(err)
		}
		return out.Encode(nil), 0

	case fusewire.OpRelease:
		fh, err := decodeFh(body)
		if err != nil {
			return nil, fusewire.EIO
		}
		if err := d.fs.Release(ctx, fh); err != nil {
			return nil, toErrno(err)
		}
		return nil, 0

	case fusewire.OpFlush:
		fh, err := decodeFh(body)
		if err != nil {
			return nil, fusewire.EIO
		}
		if err := d.fs.Flush(ctx, fh); err != nil {
			return nil, toErrno(err)
		}
		return nil, 0

	default:
		return nil, fusewire.ENOSYS
	}
}

// decodeSetattrIn pulls the valid bitmask and size field out of a Setattr
// body. The full FUSE SetattrIn record carries many more fields this core
// ignores; only the two byte ranges it acts on are decoded. The record
// opens with valid (u32), padding (u32), fh (u64), then size (u64).
func decodeSetattrIn(body []byte) (valid uint32, size uint64, err error) {
	const (
		validOff = 0
		sizeOff  = 16
		minLen   = 24
	)
	if len(body) < minLen {
		return 0, 0, errors.New("dispatch: truncated setattr body")
	}
	valid = leUint32(body[validOff : validOff+4])
	size = leUint64(body[sizeOff : sizeOff+8])
	return valid, size, nil
}

func decodeFh(body []byte) (uint64, error) {
	if len(body) < 8 {
		return 0, errors.New("dispatch: truncated fh body")
	}
	return leUint64(body[:8]), nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func toErrno(err error) fusewire.Errno {
	return fusewire.ToErrno(err)
}

// writeReply encodes and writes OutHeader+body, falling back to an
// ENOMEM-only header if the writable suffix lacks capacity.
func writeReply(w *iovec.Writer, unique uint64, errno fusewire.Errno, body []byte) {
	out := fusewire.OutHeader{
		Len:    uint32(fusewire.OutHeaderSize + len(body)),
		Error:  errno.Negated(),
		Unique: unique,
	}
	buf := out.Encode(nil)
	buf = append(buf, body...)

	if err := w.WriteAll(buf); err != nil {
		writeErrorOnly(w, unique, fusewire.ENOMEM)
	}
}

func writeErrorOnly(w *iovec.Writer, unique uint64, errno fusewire.Errno) {
	out := fusewire.OutHeader{
		Len:    fusewire.OutHeaderSize,
		Error:  errno.Negated(),
		Unique: unique,
	}
	// Best effort: if even the header doesn't fit, there is nothing more
	// the dispatcher can do for this chain.
	_ = w.WriteAll(out.Encode(nil))
}
