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

package handle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobsa/virtiofsd/fusewire"
	"github.com/jacobsa/virtiofsd/handle"
)

func TestOpenReadAllocatesFhStartingAtOne(t *testing.T) {
	tbl := handle.NewTable()
	fh := tbl.OpenRead(2, "/hello.txt", 0)
	assert.Equal(t, uint64(1), fh)

	h, err := tbl.Get(fh)
	require.NoError(t, err)
	assert.Equal(t, handle.ModeRead, h.Mode)
	assert.Equal(t, "/hello.txt", h.Reader.Path)
}

func TestOpenWriteStartsAtOffsetZero(t *testing.T) {
	tbl := handle.NewTable()
	fh := tbl.OpenWrite(3, "/new.bin", 0)

	h, err := tbl.Get(fh)
	require.NoError(t, err)
	assert.Equal(t, handle.ModeWrite, h.Mode)
	assert.Equal(t, uint64(0), h.Writer.RunningOffset)
}

func TestFhCounterNeverReusesIds(t *testing.T) {
	tbl := handle.NewTable()
	fh1 := tbl.OpenRead(2, "/a", 0)
	tbl.Release(fh1)
	fh2 := tbl.OpenRead(2, "/a", 0)
	assert.NotEqual(t, fh1, fh2)
}

func TestGetUnknownFhIsEBADF(t *testing.T) {
	tbl := handle.NewTable()
	_, err := tbl.Get(999)
	assert.ErrorIs(t, err, fusewire.EBADF)
}

func TestReleaseIsIdempotent(t *testing.T) {
	tbl := handle.NewTable()
	fh := tbl.OpenRead(2, "/a", 0)
	tbl.Release(fh)
	assert.NotPanics(t, func() { tbl.Release(fh) })

	_, err := tbl.Get(fh)
	assert.ErrorIs(t, err, fusewire.EBADF)
}

func TestLen(t *testing.T) {
	tbl := handle.NewTable()
	assert.Equal(t, 0, tbl.Len())
	tbl.OpenRead(2, "/a", 0)
	assert.Equal(t, 1, tbl.Len())
}
