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

package fusewire

// Attr is the fixed FUSE attribute record.
type Attr struct {
	Ino       uint64
	Size      uint64
	Blocks    uint64
	Atime     uint64
	Mtime     uint64
	Ctime     uint64
	AtimeNsec uint32
	MtimeNsec uint32
	CtimeNsec uint32
	Mode      uint32
	Nlink     uint32
	Uid       uint32
	Gid       uint32
	Rdev      uint32
	Blksize   uint32
	Flags     uint32
}

// AttrSize is the on-wire size of Attr in bytes.
const AttrSize = 88

// InHeader is the leading header of every incoming request.
type InHeader struct {
	Len          uint32
	Opcode       uint32
	Unique       uint64
	Nodeid       uint64
	Uid          uint32
	Gid          uint32
	Pid          uint32
	TotalExtlen  uint16
	Padding      uint16
}

// InHeaderSize is the on-wire size of InHeader in bytes.
const InHeaderSize = 40

// OutHeader is the leading header of every reply.
type OutHeader struct {
	Len    uint32
	Error  int32
	Unique uint64
}

// OutHeaderSize is the on-wire size of OutHeader in bytes.
const OutHeaderSize = 16

// InitIn is the body of an Init request.
type InitIn struct {
	Major        uint32
	Minor        uint32
	MaxReadahead uint32
	Flags        uint32
}

// InitInSize is the on-wire size of InitIn in bytes.
const InitInSize = 16

// InitOut is the body of an Init reply.
type InitOut struct {
	Major               uint32
	Minor               uint32
	MaxReadahead        uint32
	Flags               uint32
	MaxBackground       uint16
	CongestionThreshold uint16
	MaxWrite            uint32
	TimeGran            uint32
	MaxPages            uint16
	MapAlignment        uint16
	Flags2              uint32
	Unused              [7]uint32
}

// InitOutSize is the on-wire size of InitOut in bytes.
const InitOutSize = 64

// EntryOut is the body of a Lookup/Create reply naming a (possibly new)
// child inode.
type EntryOut struct {
	Nodeid         uint64
	Generation     uint64
	EntryValid     uint64
	AttrValid      uint64
	EntryValidNsec uint32
	AttrValidNsec  uint32
	Attr           Attr
}

// EntryOutSize is the on-wire size of EntryOut in bytes.
const EntryOutSize = 128

// AttrOut is the body of a Getattr/Setattr reply.
type AttrOut struct {
	AttrValid     uint64
	AttrValidNsec uint32
	Dummy         uint32
	Attr          Attr
}

// AttrOutSize is the on-wire size of AttrOut in bytes.
const AttrOutSize = 104

// CreateIn is the fixed part of a Create request body (a NUL-terminated
// name follows it).
type CreateIn struct {
	Flags     uint32
	Mode      uint32
	Umask     uint32
	OpenFlags uint32
}

// CreateInSize is the on-wire size of CreateIn in bytes.
const CreateInSize = 16

// OpenIn is the body of an Open request.
type OpenIn struct {
	Flags     uint32
	OpenFlags uint32
}

// OpenInSize is the on-wire size of OpenIn in bytes.
const OpenInSize = 8

// OpenOut is the body of an Open/Create reply.
type OpenOut struct {
	Fh        uint64
	OpenFlags uint32
	Padding   uint32
}

// OpenOutSize is the on-wire size of OpenOut in bytes.
const OpenOutSize = 16

// ReadIn is the body of a Read request.
type ReadIn struct {
	Fh         uint64
	Offset     uint64
	Size       uint32
	ReadFlags  uint32
	LockOwner  uint64
	Flags      uint32
	Padding    uint32
}

// ReadInSize is the on-wire size of ReadIn in bytes.
const ReadInSize = 40

// WriteIn is the fixed part of a Write request body (Size bytes of data
// follow it).
type WriteIn struct {
	Fh         uint64
	Offset     uint64
	Size       uint32
	WriteFlags uint32
	LockOwner  uint64
	Flags      uint32
	Padding    uint32
}

// WriteInSize is the on-wire size of WriteIn in bytes.
const WriteInSize = 40

// WriteOut is the body of a Write reply.
type WriteOut struct {
	Size    uint32
	Padding uint32
}

// WriteOutSize is the on-wire size of WriteOut in bytes.
const WriteOutSize = 8

// ForgetIn is the body of a Forget request.
type ForgetIn struct {
	Nlookup uint64
}

// ForgetInSize is the on-wire size of ForgetIn in bytes.
const ForgetInSize = 8
