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

// Package memory is an in-process backend.Operator backed by a map,
// stamped with an injectable clock so tests get deterministic timestamps.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jacobsa/timeutil"

	"github.com/jacobsa/virtiofsd/backend"
)

func unixNanoTime(ns int64) time.Time {
	return time.Unix(0, ns)
}

type object struct {
	data         []byte
	lastModified int64 // unix nanos, per timeutil.Clock
	isDir        bool
}

// Operator is an in-memory backend.Operator. The zero value is not usable;
// use New.
type Operator struct {
	clock timeutil.Clock

	mu      sync.Mutex
	objects map[string]*object // GUARDED_BY(mu)
}

// New returns an Operator whose root directory "/" already exists.
func New(clock timeutil.Clock) *Operator {
	o := &Operator{
		clock:   clock,
		objects: make(map[string]*object),
	}
	o.objects["/"] = &object{isDir: true, lastModified: clock.Now().UnixNano()}
	return o
}

func (o *Operator) Stat(ctx context.Context, path string) (backend.Metadata, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	obj, ok := o.objects[path]
	if !ok {
		return backend.Metadata{}, backend.ErrNotFound
	}
	return metadataOf(obj), nil
}

func metadataOf(obj *object) backend.Metadata {
	kind := backend.KindFile
	length := uint64(len(obj.data))
	if obj.isDir {
		kind = backend.KindDir
		length = 0
	}
	return backend.Metadata{
		Length:       length,
		LastModified: unixNanoTime(obj.lastModified),
		Kind:         kind,
	}
}

func (o *Operator) Read(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	obj, ok := o.objects[path]
	if !ok {
		return nil, backend.ErrNotFound
	}
	if offset >= int64(len(obj.data)) {
		return []byte{}, nil
	}
	end := offset + length
	if end > int64(len(obj.data)) {
		end = int64(len(obj.data))
	}

	out := make([]byte, end-offset)
	copy(out, obj.data[offset:end])
	return out, nil
}

func (o *Operator) Write(ctx context.Context, path string, data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	o.objects[path] = &object{data: buf, lastModified: o.clock.Now().UnixNano()}
	return nil
}

func (o *Operator) Delete(ctx context.Context, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, path)
	return nil
}

func (o *Operator) List(ctx context.Context, prefix string) ([]backend.DirEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.objects[prefix]; !ok {
		return nil, backend.ErrNotFound
	}

	var entries []backend.DirEntry
	for path, obj := range o.objects {
		if path == prefix || !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		rest = strings.TrimSuffix(rest, "/")
		if rest == "" || strings.Contains(rest, "/") {
			continue // not an immediate child
		}
		entries = append(entries, backend.DirEntry{
			Name:     rest,
			Metadata: metadataOf(obj),
		})
	}
	return entries, nil
}

func (o *Operator) CreateDir(ctx context.Context, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[path] = &object{isDir: true, lastModified: o.clock.Now().UnixNano()}
	return nil
}

func (o *Operator) Rename(ctx context.Context, from, to string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	obj, ok := o.objects[from]
	if !ok {
		return backend.ErrNotFound
	}
	delete(o.objects, from)
	o.objects[to] = obj
	return nil
}

var _ backend.Operator = (*Operator)(nil)
