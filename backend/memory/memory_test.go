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

package memory_test

import (
	"context"
	"testing"

	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacobsa/virtiofsd/backend"
	"github.com/jacobsa/virtiofsd/backend/memory"
)

func TestStatRoot(t *testing.T) {
	op := memory.New(timeutil.RealClock())
	meta, err := op.Stat(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, backend.KindDir, meta.Kind)
}

func TestWriteThenReadThenStat(t *testing.T) {
	op := memory.New(timeutil.RealClock())
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

func TestReadPastEOFReturnsZeroBytes(t *testing.T) {
	op := memory.New(timeutil.RealClock())
	ctx := context.Background()
	require.NoError(t, op.Write(ctx, "/a", []byte("ab")))

	data, err := op.Read(ctx, "/a", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestReadShortNearEOF(t *testing.T) {
	op := memory.New(timeutil.RealClock())
	ctx := context.Background()
	require.NoError(t, op.Write(ctx, "/a", []byte("abc")))

	data, err := op.Read(ctx, "/a", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "bc", string(data))
}

func TestStatMissingIsNotFound(t *testing.T) {
	op := memory.New(timeutil.RealClock())
	_, err := op.Stat(context.Background(), "/missing")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestDeleteMissingIsNotAnError(t *testing.T) {
	op := memory.New(timeutil.RealClock())
	assert.NoError(t, op.Delete(context.Background(), "/missing"))
}

func TestListImmediateChildrenOnly(t *testing.T) {
	op := memory.New(timeutil.RealClock())
	ctx := context.Background()
	require.NoError(t, op.CreateDir(ctx, "/dir/"))
	require.NoError(t, op.Write(ctx, "/dir/a", []byte("1")))
	require.NoError(t, op.Write(ctx, "/dir/sub/b", []byte("2")))

	entries, err := op.List(ctx, "/dir/")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	assert.True(t, names["a"])
	assert.False(t, names["b"], "grandchildren must not appear")
}

func TestRename(t *testing.T) {
	op := memory.New(timeutil.RealClock())
	ctx := context.Background()
	require.NoError(t, op.Write(ctx, "/a", []byte("x")))
	require.NoError(t, op.Rename(ctx, "/a", "/b"))

	_, err := op.Stat(ctx, "/a")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	data, err := op.Read(ctx, "/b", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}
