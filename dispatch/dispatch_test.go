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

package dispatch_test

import (
	"context"
	"testing"

	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobsa/virtiofsd/backend/memory"
	"github.com/jacobsa/virtiofsd/dispatch"
	"github.com/jacobsa/virtiofsd/fs"
	"github.com/jacobsa/virtiofsd/fusewire"
	"github.com/jacobsa/virtiofsd/internal/iovec"
)

func newChain(request []byte, replyCap int) iovec.Chain {
	return iovec.Chain{Segments: []iovec.Segment{
		{Data: request, Writable: false},
		{Data: make([]byte, replyCap), Writable: true},
	}}
}

func newDispatcher() *dispatch.Dispatcher {
	return dispatch.New(fs.New(memory.New(timeutil.RealClock())))
}

func encodeRequest(unique uint64, opcode fusewire.Opcode, nodeid uint64, body []byte) []byte {
	hdr := fusewire.InHeader{
		Len:    uint32(fusewire.InHeaderSize + len(body)),
		Opcode: uint32(opcode),
		Unique: unique,
		Nodeid: nodeid,
	}
	buf := hdr.Encode(nil)
	return append(buf, body...)
}

func writtenReply(t *testing.T, segment []byte) (fusewire.OutHeader, []byte) {
	t.Helper()
	hdr, err := fusewire.DecodeOutHeader(segment)
	require.NoError(t, err)
	bodyLen := int(hdr.Len) - fusewire.OutHeaderSize
	require.GreaterOrEqual(t, len(segment), fusewire.OutHeaderSize+bodyLen)
	return hdr, segment[fusewire.OutHeaderSize : fusewire.OutHeaderSize+bodyLen]
}

func TestInitHandshake(t *testing.T) {
	d := newDispatcher()
	in := fusewire.InitIn{Major: 7, Minor: 34, MaxReadahead: 0x20000, Flags: 0}
	req := encodeRequest(1, fusewire.OpInit, 0, in.Encode(nil))
	chain := newChain(req, 128)

	stop := d.Dispatch(context.Background(), chain)
	assert.False(t, stop)

	hdr, body := writtenReply(t, chain.Segments[1].Data)
	assert.Equal(t, int32(0), hdr.Error)
	assert.Equal(t, uint64(1), hdr.Unique)
	assert.Equal(t, uint32(fusewire.OutHeaderSize+fusewire.InitOutSize), hdr.Len)

	out, err := fusewire.DecodeInitOut(body)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), out.Major)
	assert.Equal(t, uint32(32), out.Minor)
	assert.Equal(t, uint32(1048576), out.MaxWrite)
}

// OutHeader.unique always matches the request, and len is exact.
func TestGetattrReplyMatchesUnique(t *testing.T) {
	d := newDispatcher()
	req := encodeRequest(42, fusewire.OpGetattr, 1, nil)
	chain := newChain(req, 128)

	d.Dispatch(context.Background(), chain)

	hdr, _ := writtenReply(t, chain.Segments[1].Data)
	assert.Equal(t, uint64(42), hdr.Unique)
	assert.Equal(t, uint32(fusewire.OutHeaderSize+fusewire.AttrOutSize), hdr.Len)
}

// Forget produces no reply at all.
func TestForgetProducesNoReply(t *testing.T) {
	d := newDispatcher()
	forgetBody := fusewire.ForgetIn{Nlookup: 1}.Encode(nil)
	req := encodeRequest(7, fusewire.OpForget, 2, forgetBody)

	reply := make([]byte, 128)
	for i := range reply {
		reply[i] = 0xAA
	}
	chain := iovec.Chain{Segments: []iovec.Segment{
		{Data: req, Writable: false},
		{Data: reply, Writable: true},
	}}

	stop := d.Dispatch(context.Background(), chain)
	assert.False(t, stop)
	for _, b := range reply {
		assert.Equal(t, byte(0xAA), b, "Forget must not touch the writable suffix")
	}
}

// Destroy followed by any further request produces ENOTCONN.
func TestDestroyThenFurtherRequestIsENOTCONN(t *testing.T) {
	d := newDispatcher()

	destroyReq := encodeRequest(1, fusewire.OpDestroy, 0, nil)
	chain := newChain(destroyReq, 128)
	stop := d.Dispatch(context.Background(), chain)
	assert.True(t, stop)

	hdr, _ := writtenReply(t, chain.Segments[1].Data)
	assert.Equal(t, int32(0), hdr.Error)

	getattrReq := encodeRequest(2, fusewire.OpGetattr, 1, nil)
	chain2 := newChain(getattrReq, 128)
	d.Dispatch(context.Background(), chain2)

	hdr2, _ := writtenReply(t, chain2.Segments[1].Data)
	assert.Equal(t, fusewire.ENOTCONN.Negated(), hdr2.Error)
}

// Lookup, Open, and Read of a pre-populated file over the wire: the Read
// reply's body is the raw file content and its OutHeader.len is exact.
func TestLookupOpenReadOverTheWire(t *testing.T) {
	filesystem := fs.New(memory.New(timeutil.RealClock()))
	require.NoError(t, filesystem.Backend.Write(context.Background(), "/hello.txt", []byte("hello world")))
	d := dispatch.New(filesystem)

	lookupReq := encodeRequest(2, fusewire.OpLookup, 1, append([]byte("hello.txt"), 0))
	lookupChain := newChain(lookupReq, 256)
	d.Dispatch(context.Background(), lookupChain)

	hdr, body := writtenReply(t, lookupChain.Segments[1].Data)
	require.Equal(t, int32(0), hdr.Error)
	entry, err := fusewire.DecodeEntryOut(body)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), entry.Nodeid)
	assert.Equal(t, uint64(11), entry.Attr.Size)

	openReq := encodeRequest(3, fusewire.OpOpen, entry.Nodeid, fusewire.OpenIn{Flags: 0}.Encode(nil))
	openChain := newChain(openReq, 128)
	d.Dispatch(context.Background(), openChain)

	hdr, body = writtenReply(t, openChain.Segments[1].Data)
	require.Equal(t, int32(0), hdr.Error)
	open, err := fusewire.DecodeOpenOut(body)
	require.NoError(t, err)
	require.NotZero(t, open.Fh)

	readIn := fusewire.ReadIn{Fh: open.Fh, Offset: 0, Size: 11}
	readReq := encodeRequest(4, fusewire.OpRead, entry.Nodeid, readIn.Encode(nil))
	readChain := newChain(readReq, 128)
	d.Dispatch(context.Background(), readChain)

	hdr, body = writtenReply(t, readChain.Segments[1].Data)
	assert.Equal(t, int32(0), hdr.Error)
	assert.Equal(t, uint64(4), hdr.Unique)
	assert.Equal(t, uint32(fusewire.OutHeaderSize+11), hdr.Len)
	assert.Equal(t, "hello world", string(body))
}

// A Forget arriving after Destroy still produces no reply.
func TestForgetAfterDestroyProducesNoReply(t *testing.T) {
	d := newDispatcher()

	destroyReq := encodeRequest(1, fusewire.OpDestroy, 0, nil)
	d.Dispatch(context.Background(), newChain(destroyReq, 128))

	forgetReq := encodeRequest(2, fusewire.OpForget, 2, fusewire.ForgetIn{Nlookup: 1}.Encode(nil))
	reply := make([]byte, 64)
	for i := range reply {
		reply[i] = 0xAA
	}
	chain := iovec.Chain{Segments: []iovec.Segment{
		{Data: forgetReq, Writable: false},
		{Data: reply, Writable: true},
	}}

	stop := d.Dispatch(context.Background(), chain)
	assert.False(t, stop)
	for _, b := range reply {
		assert.Equal(t, byte(0xAA), b)
	}
}

func TestHeaderLenExceedingPrefixIsEIO(t *testing.T) {
	d := newDispatcher()
	hdr := fusewire.InHeader{Len: 1000, Opcode: uint32(fusewire.OpGetattr), Unique: 1, Nodeid: 1}
	req := hdr.Encode(nil)
	chain := newChain(req, 128)

	d.Dispatch(context.Background(), chain)

	outHdr, _ := writtenReply(t, chain.Segments[1].Data)
	assert.Equal(t, fusewire.EIO.Negated(), outHdr.Error)
}

func TestInsufficientWriteCapacityFallsBackToENOMEM(t *testing.T) {
	d := newDispatcher()
	req := encodeRequest(1, fusewire.OpGetattr, 1, nil)
	// Capacity for an OutHeader but not the AttrOut body that follows.
	chain := newChain(req, fusewire.OutHeaderSize)

	d.Dispatch(context.Background(), chain)

	hdr, err := fusewire.DecodeOutHeader(chain.Segments[1].Data)
	require.NoError(t, err)
	assert.Equal(t, fusewire.ENOMEM.Negated(), hdr.Error)
	assert.Equal(t, uint32(fusewire.OutHeaderSize), hdr.Len)
}

func TestUnknownOpcodeIsENOSYS(t *testing.T) {
	d := newDispatcher()
	req := encodeRequest(1, fusewire.Opcode(99), 1, nil)
	chain := newChain(req, 128)

	d.Dispatch(context.Background(), chain)

	hdr, _ := writtenReply(t, chain.Segments[1].Data)
	assert.Equal(t, fusewire.ENOSYS.Negated(), hdr.Error)
}
