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

// Package backend declares the narrow storage-operator capability the
// filesystem core consumes, and the handful of drivers that implement it.
// Any concrete store - local disk, S3, an HTTP object store, a KV store -
// sits behind this interface; the core never sees its implementation.
package backend

import (
	"context"
	"errors"
	"time"
)

// Kind distinguishes a regular object from a directory prefix.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// Metadata is what Stat and List report about a path.
type Metadata struct {
	Length       uint64
	LastModified time.Time // zero value means unknown
	Kind         Kind
}

// DirEntry is one entry of a List result, before attribute synthesis.
type DirEntry struct {
	Name     string
	Metadata Metadata
}

// ErrNotFound is returned by Stat, Read, and List for a path that does
// not exist. Delete never returns it: a missing path is a silent success.
var ErrNotFound = errors.New("backend: not found")

// ErrPermissionDenied is returned when the backend refuses an operation.
var ErrPermissionDenied = errors.New("backend: permission denied")

// Operator is the storage capability backing the filesystem core: its only
// runtime dependency. Implementations must be safe for concurrent use; the
// core does not serialize calls to it.
type Operator interface {
	// Stat returns metadata for path, or ErrNotFound.
	Stat(ctx context.Context, path string) (Metadata, error)

	// Read returns up to length bytes starting at offset. A short read
	// (fewer bytes than length) is permitted; reading entirely past EOF
	// returns a zero-length slice and no error.
	Read(ctx context.Context, path string, offset, length int64) ([]byte, error)

	// Write overwrites path with data in its entirety, creating it if
	// necessary.
	Write(ctx context.Context, path string, data []byte) error

	// Delete removes path. A missing path is not an error.
	Delete(ctx context.Context, path string) error

	// List returns the immediate children of the directory at prefix.
	List(ctx context.Context, prefix string) ([]DirEntry, error)

	// CreateDir creates the directory named by path, which carries a
	// trailing slash.
	CreateDir(ctx context.Context, path string) error

	// Rename moves the object at from to to.
	Rename(ctx context.Context, from, to string) error
}
