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

import (
	"encoding/binary"
	"errors"
)

// ErrInvalidMessage is returned by Decode* functions when the input is
// shorter than the record being decoded.
var ErrInvalidMessage = errors.New("fusewire: message too short")

// ErrUnsupportedOpcode names the case of an InHeader carrying an opcode the
// core does not recognize (see Opcode.Known). No function in this module
// returns it; the dispatcher answers such requests with ENOSYS.
var ErrUnsupportedOpcode = errors.New("fusewire: unsupported opcode")

func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func le64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
func le16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

func putLe32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putLe64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
func putLe16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }

// DecodeAttr decodes an Attr from the front of b.
func DecodeAttr(b []byte) (a Attr, err error) {
	if len(b) < AttrSize {
		return a, ErrInvalidMessage
	}
	a.Ino = le64(b[0:8])
	a.Size = le64(b[8:16])
	a.Blocks = le64(b[16:24])
	a.Atime = le64(b[24:32])
	a.Mtime = le64(b[32:40])
	a.Ctime = le64(b[40:48])
	a.AtimeNsec = le32(b[48:52])
	a.MtimeNsec = le32(b[52:56])
	a.CtimeNsec = le32(b[56:60])
	a.Mode = le32(b[60:64])
	a.Nlink = le32(b[64:68])
	a.Uid = le32(b[68:72])
	a.Gid = le32(b[72:76])
	a.Rdev = le32(b[76:80])
	a.Blksize = le32(b[80:84])
	a.Flags = le32(b[84:88])
	return a, nil
}

// Encode appends the wire encoding of a to dst and returns the result.
func (a Attr) Encode(dst []byte) []byte {
	var b [AttrSize]byte
	putLe64(b[0:8], a.Ino)
	putLe64(b[8:16], a.Size)
	putLe64(b[16:24], a.Blocks)
	putLe64(b[24:32], a.Atime)
	putLe64(b[32:40], a.Mtime)
	putLe64(b[40:48], a.Ctime)
	putLe32(b[48:52], a.AtimeNsec)
	putLe32(b[52:56], a.MtimeNsec)
	putLe32(b[56:60], a.CtimeNsec)
	putLe32(b[60:64], a.Mode)
	putLe32(b[64:68], a.Nlink)
	putLe32(b[68:72], a.Uid)
	putLe32(b[72:76], a.Gid)
	putLe32(b[76:80], a.Rdev)
	putLe32(b[80:84], a.Blksize)
	putLe32(b[84:88], a.Flags)
	return append(dst, b[:]...)
}

// DecodeInHeader decodes an InHeader from the front of b.
func DecodeInHeader(b []byte) (h InHeader, err error) {
	if len(b) < InHeaderSize {
		return h, ErrInvalidMessage
	}
	h.Len = le32(b[0:4])
	h.Opcode = le32(b[4:8])
	h.Unique = le64(b[8:16])
	h.Nodeid = le64(b[16:24])
	h.Uid = le32(b[24:28])
	h.Gid = le32(b[28:32])
	h.Pid = le32(b[32:36])
	h.TotalExtlen = le16(b[36:38])
	h.Padding = le16(b[38:40])
	return h, nil
}

// Encode appends the wire encoding of h to dst and returns the result.
func (h InHeader) Encode(dst []byte) []byte {
	var b [InHeaderSize]byte
	putLe32(b[0:4], h.Len)
	putLe32(b[4:8], h.Opcode)
	putLe64(b[8:16], h.Unique)
	putLe64(b[16:24], h.Nodeid)
	putLe32(b[24:28], h.Uid)
	putLe32(b[28:32], h.Gid)
	putLe32(b[32:36], h.Pid)
	putLe16(b[36:38], h.TotalExtlen)
	putLe16(b[38:40], h.Padding)
	return append(dst, b[:]...)
}

// DecodeOutHeader decodes an OutHeader from the front of b.
func DecodeOutHeader(b []byte) (h OutHeader, err error) {
	if len(b) < OutHeaderSize {
		return h, ErrInvalidMessage
	}
	h.Len = le32(b[0:4])
	h.Error = int32(le32(b[4:8]))
	h.Unique = le64(b[8:16])
	return h, nil
}

// Encode appends the wire encoding of h to dst and returns the result.
func (h OutHeader) Encode(dst []byte) []byte {
	var b [OutHeaderSize]byte
	putLe32(b[0:4], h.Len)
	putLe32(b[4:8], uint32(h.Error))
	putLe64(b[8:16], h.Unique)
	return append(dst, b[:]...)
}

// DecodeInitIn decodes an InitIn from the front of b.
func DecodeInitIn(b []byte) (v InitIn, err error) {
	if len(b) < InitInSize {
		return v, ErrInvalidMessage
	}
	v.Major = le32(b[0:4])
	v.Minor = le32(b[4:8])
	v.MaxReadahead = le32(b[8:12])
	v.Flags = le32(b[12:16])
	return v, nil
}

// Encode appends the wire encoding of v to dst and returns the result.
func (v InitIn) Encode(dst []byte) []byte {
	var b [InitInSize]byte
	putLe32(b[0:4], v.Major)
	putLe32(b[4:8], v.Minor)
	putLe32(b[8:12], v.MaxReadahead)
	putLe32(b[12:16], v.Flags)
	return append(dst, b[:]...)
}

// DecodeInitOut decodes an InitOut from the front of b.
func DecodeInitOut(b []byte) (v InitOut, err error) {
	if len(b) < InitOutSize {
		return v, ErrInvalidMessage
	}
	v.Major = le32(b[0:4])
	v.Minor = le32(b[4:8])
	v.MaxReadahead = le32(b[8:12])
	v.Flags = le32(b[12:16])
	v.MaxBackground = le16(b[16:18])
	v.CongestionThreshold = le16(b[18:20])
	v.MaxWrite = le32(b[20:24])
	v.TimeGran = le32(b[24:28])
	v.MaxPages = le16(b[28:30])
	v.MapAlignment = le16(b[30:32])
	v.Flags2 = le32(b[32:36])
	for i := 0; i < 7; i++ {
		v.Unused[i] = le32(b[36+i*4 : 40+i*4])
	}
	return v, nil
}

// Encode appends the wire encoding of v to dst and returns the result.
func (v InitOut) Encode(dst []byte) []byte {
	var b [InitOutSize]byte
	putLe32(b[0:4], v.Major)
	putLe32(b[4:8], v.Minor)
	putLe32(b[8:12], v.MaxReadahead)
	putLe32(b[12:16], v.Flags)
	putLe16(b[16:18], v.MaxBackground)
	putLe16(b[18:20], v.CongestionThreshold)
	putLe32(b[20:24], v.MaxWrite)
	putLe32(b[24:28], v.TimeGran)
	putLe16(b[28:30], v.MaxPages)
	putLe16(b[30:32], v.MapAlignment)
	putLe32(b[32:36], v.Flags2)
	for i := 0; i < 7; i++ {
		putLe32(b[36+i*4:40+i*4], v.Unused[i])
	}
	return append(dst, b[:]...)
}

// DecodeEntryOut decodes an EntryOut from the front of b.
func DecodeEntryOut(b []byte) (v EntryOut, err error) {
	if len(b) < EntryOutSize {
		return v, ErrInvalidMessage
	}
	v.Nodeid = le64(b[0:8])
	v.Generation = le64(b[8:16])
	v.EntryValid = le64(b[16:24])
	v.AttrValid = le64(b[24:32])
	v.EntryValidNsec = le32(b[32:36])
	v.AttrValidNsec = le32(b[36:40])
	v.Attr, err = DecodeAttr(b[40:EntryOutSize])
	return v, err
}

// Encode appends the wire encoding of v to dst and returns the result.
func (v EntryOut) Encode(dst []byte) []byte {
	var b [40]byte
	putLe64(b[0:8], v.Nodeid)
	putLe64(b[8:16], v.Generation)
	putLe64(b[16:24], v.EntryValid)
	putLe64(b[24:32], v.AttrValid)
	putLe32(b[32:36], v.EntryValidNsec)
	putLe32(b[36:40], v.AttrValidNsec)
	dst = append(dst, b[:]...)
	dst = v.Attr.Encode(dst)
	return dst
}

// DecodeAttrOut decodes an AttrOut from the front of b.
func DecodeAttrOut(b []byte) (v AttrOut, err error) {
	if len(b) < AttrOutSize {
		return v, ErrInvalidMessage
	}
	v.AttrValid = le64(b[0:8])
	v.AttrValidNsec = le32(b[8:12])
	v.Dummy = le32(b[12:16])
	v.Attr, err = DecodeAttr(b[16:AttrOutSize])
	return v, err
}

// Encode appends the wire encoding of v to dst and returns the result.
func (v AttrOut) Encode(dst []byte) []byte {
	var b [16]byte
	putLe64(b[0:8], v.AttrValid)
	putLe32(b[8:12], v.AttrValidNsec)
	putLe32(b[12:16], v.Dummy)
	dst = append(dst, b[:]...)
	dst = v.Attr.Encode(dst)
	return dst
}

// DecodeCreateIn decodes a CreateIn from the front of b.
func DecodeCreateIn(b []byte) (v CreateIn, err error) {
	if len(b) < CreateInSize {
		return v, ErrInvalidMessage
	}
	v.Flags = le32(b[0:4])
	v.Mode = le32(b[4:8])
	v.Umask = le32(b[8:12])
	v.OpenFlags = le32(b[12:16])
	return v, nil
}

// Encode appends the wire encoding of v to dst and returns the result.
func (v CreateIn) Encode(dst []byte) []byte {
	var b [CreateInSize]byte
	putLe32(b[0:4], v.Flags)
	putLe32(b[4:8], v.Mode)
	putLe32(b[8:12], v.Umask)
	putLe32(b[12:16], v.OpenFlags)
	return append(dst, b[:]...)
}

// DecodeOpenIn decodes an OpenIn from the front of b.
func DecodeOpenIn(b []byte) (v OpenIn, err error) {
	if len(b) < OpenInSize {
		return v, ErrInvalidMessage
	}
	v.Flags = le32(b[0:4])
	v.OpenFlags = le32(b[4:8])
	return v, nil
}

// Encode appends the wire encoding of v to dst and returns the result.
func (v OpenIn) Encode(dst []byte) []byte {
	var b [OpenInSize]byte
	putLe32(b[0:4], v.Flags)
	putLe32(b[4:8], v.OpenFlags)
	return append(dst, b[:]...)
}

// DecodeOpenOut decodes an OpenOut from the front of b.
func DecodeOpenOut(b []byte) (v OpenOut, err error) {
	if len(b) < OpenOutSize {
		return v, ErrInvalidMessage
	}
	v.Fh = le64(b[0:8])
	v.OpenFlags = le32(b[8:12])
	v.Padding = le32(b[12:16])
	return v, nil
}

// Encode appends the wire encoding of v to dst and returns the result.
func (v OpenOut) Encode(dst []byte) []byte {
	var b [OpenOutSize]byte
	putLe64(b[0:8], v.Fh)
	putLe32(b[8:12], v.OpenFlags)
	putLe32(b[12:16], v.Padding)
	return append(dst, b[:]...)
}

// DecodeReadIn decodes a ReadIn from the front of b.
func DecodeReadIn(b []byte) (v ReadIn, err error) {
	if len(b) < ReadInSize {
		return v, ErrInvalidMessage
	}
	v.Fh = le64(b[0:8])
	v.Offset = le64(b[8:16])
	v.Size = le32(b[16:20])
	v.ReadFlags = le32(b[20:24])
	v.LockOwner = le64(b[24:32])
	v.Flags = le32(b[32:36])
	v.Padding = le32(b[36:40])
	return v, nil
}

// Encode appends the wire encoding of v to dst and returns the result.
func (v ReadIn) Encode(dst []byte) []byte {
	var b [ReadInSize]byte
	putLe64(b[0:8], v.Fh)
	putLe64(b[8:16], v.Offset)
	putLe32(b[16:20], v.Size)
	putLe32(b[20:24], v.ReadFlags)
	putLe64(b[24:32], v.LockOwner)
	putLe32(b[32:36], v.Flags)
	putLe32(b[36:40], v.Padding)
	return append(dst, b[:]...)
}

// DecodeWriteIn decodes a WriteIn from the front of b.
func DecodeWriteIn(b []byte) (v WriteIn, err error) {
	if len(b) < WriteInSize {
		return v, ErrInvalidMessage
	}
	v.Fh = le64(b[0:8])
	v.Offset = le64(b[8:16])
	v.Size = le32(b[16:20])
	v.WriteFlags = le32(b[20:24])
	v.LockOwner = le64(b[24:32])
	v.Flags = le32(b[32:36])
	v.Padding = le32(b[36:40])
	return v, nil
}

// Encode appends the wire encoding of v to dst and returns the result.
func (v WriteIn) Encode(dst []byte) []byte {
	var b [WriteInSize]byte
	putLe64(b[0:8], v.Fh)
	putLe64(b[8:16], v.Offset)
	putLe32(b[16:20], v.Size)
	putLe32(b[20:24], v.WriteFlags)
	putLe64(b[24:32], v.LockOwner)
	putLe32(b[32:36], v.Flags)
	putLe32(b[36:40], v.Padding)
	return append(dst, b[:]...)
}

// DecodeWriteOut decodes a WriteOut from the front of b.
func DecodeWriteOut(b []byte) (v WriteOut, err error) {
	if len(b) < WriteOutSize {
		return v, ErrInvalidMessage
	}
	v.Size = le32(b[0:4])
	v.Padding = le32(b[4:8])
	return v, nil
}

// Encode appends the wire encoding of v to dst and returns the result.
func (v WriteOut) Encode(dst []byte) []byte {
	var b [WriteOutSize]byte
	putLe32(b[0:4], v.Size)
	putLe32(b[4:8], v.Padding)
	return append(dst, b[:]...)
}

// DecodeForgetIn decodes a ForgetIn from the front of b.
func DecodeForgetIn(b []byte) (v ForgetIn, err error) {
	if len(b) < ForgetInSize {
		return v, ErrInvalidMessage
	}
	v.Nlookup = le64(b[0:8])
	return v, nil
}

// Encode appends the wire encoding of v to dst and returns the result.
func (v ForgetIn) Encode(dst []byte) []byte {
	var b [ForgetInSize]byte
	putLe64(b[0:8], v.Nlookup)
	return append(dst, b[:]...)
}
