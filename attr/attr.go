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

// Package attr synthesizes the fixed FUSE Attr record from backend
// metadata.
package attr

import (
	"github.com/jacobsa/virtiofsd/backend"
	"github.com/jacobsa/virtiofsd/fusewire"
)

const (
	modeDir  = 0o40755
	modeFile = 0o100644

	blockSize = 512
	blksize   = 4096
)

// Synthesize builds the Attr record for nodeid from backend metadata,
// applying this core's fixed defaults for everything the backend does
// not itself track (mode, link count, uid/gid, and so on).
func Synthesize(nodeid uint64, meta backend.Metadata) fusewire.Attr {
	size := meta.Length
	mode := uint32(modeFile)
	nlink := uint32(1)
	if meta.Kind == backend.KindDir {
		size = 0
		mode = modeDir
		nlink = 2
	}

	var sec uint64
	if !meta.LastModified.IsZero() {
		sec = uint64(meta.LastModified.Unix())
	}
	var nsec uint32
	if !meta.LastModified.IsZero() {
		nsec = uint32(meta.LastModified.Nanosecond())
	}

	return fusewire.Attr{
		Ino:       nodeid,
		Size:      size,
		Blocks:    (size + blockSize - 1) / blockSize,
		Atime:     sec,
		Mtime:     sec,
		Ctime:     sec,
		AtimeNsec: nsec,
		MtimeNsec: nsec,
		CtimeNsec: nsec,
		Mode:      mode,
		Nlink:     nlink,
		Uid:       0,
		Gid:       0,
		Rdev:      0,
		Blksize:   blksize,
		Flags:     0,
	}
}
