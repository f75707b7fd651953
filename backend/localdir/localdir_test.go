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

package localdir_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobsa/virtiofsd/backend"
	"github.com/jacobsa/virtiofsd/backend/localdir"
)

func TestWriteThenReadThenStat(t *testing.T) {
	op, err := localdir.New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, op.Write(ctx, "/hello.txt", []byte("hello world")))

	data, err := op.Read(ctx, "/hello.txt", 0, 11)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	meta, err := op.Stat(ctx, "/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), meta.Length)
	assert.Equal(t, backend.KindFile, meta.Kind)
}

func TestWriteOverwritesInPlace(t *testing.T) {
	op, err := localdir.New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, op.Write(ctx, "/a", []byte("first")))
	require.NoError(t, op.Write(ctx, "/a", []byte("second!")))

	data, err := op.Read(ctx, "/a", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, "second!", string(data))
}

func TestStatMissingIsNotFound(t *testing.T) {
	op, err := localdir.New(t.TempDir())
	require.NoError(t, err)

	_, err = op.Stat(context.Background(), "/missing")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestDeleteMissingIsNotAnError(t *testing.T) {
	op, err := localdir.New(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, op.Delete(context.Background(), "/missing"))
}

func TestCreateDirAndList(t *testing.T) {
	op, err := localdir.New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, op.CreateDir(ctx, "/sub/"))
	require.NoError(t, op.Write(ctx, "/sub/a", []byte("x")))

	entries, err := op.List(ctx, "/sub/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Name)
}

func TestRename(t *testing.T) {
	op, err := localdir.New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, op.Write(ctx, "/a", []byte("x")))
	require.NoError(t, op.Rename(ctx, "/a", "/b"))

	_, err = op.Stat(ctx, "/a")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	data, err := op.Read(ctx, "/b", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}
