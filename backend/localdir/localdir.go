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

// Package localdir is a backend.Operator backed by a real directory on the
// host, in the style of rclone's one-package-per-backend drivers. Writes
// are staged through a uniquely-named temp file and renamed into place so a
// reader never observes a partially-written object.
package localdir

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jacobsa/virtiofsd/backend"
)

// Operator is a backend.Operator rooted at a directory on the host.
type Operator struct {
	root string
}

// New returns an Operator rooted at dir, creating it if necessary.
func New(dir string) (*Operator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Operator{root: dir}, nil
}

func (o *Operator) hostPath(path string) string {
	return filepath.Join(o.root, filepath.FromSlash(strings.TrimPrefix(path, "/")))
}

func (o *Operator) Stat(ctx context.Context, path string) (backend.Metadata, error) {
	fi, err := os.Stat(o.hostPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return backend.Metadata{}, backend.ErrNotFound
	}
	if err != nil {
		return backend.Metadata{}, err
	}

	kind := backend.KindFile
	length := uint64(0)
	if fi.IsDir() {
		kind = backend.KindDir
	} else {
		length = uint64(fi.Size())
	}
	return backend.Metadata{Length: length, LastModified: fi.ModTime(), Kind: kind}, nil
}

func (o *Operator) Read(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(o.hostPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func (o *Operator) Write(ctx context.Context, path string, data []byte) error {
	target := o.hostPath(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	tmp := target + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, target)
}

func (o *Operator) Delete(ctx context.Context, path string) error {
	err := os.Remove(o.hostPath(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (o *Operator) List(ctx context.Context, prefix string) ([]backend.DirEntry, error) {
	entries, err := os.ReadDir(o.hostPath(prefix))
	if errors.Is(err, os.ErrNotExist) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	out := make([]backend.DirEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return nil, err
		}

		kind := backend.KindFile
		length := uint64(0)
		if info.IsDir() {
			kind = backend.KindDir
		} else {
			length = uint64(info.Size())
		}
		out = append(out, backend.DirEntry{
			Name:     e.Name(),
			Metadata: backend.Metadata{Length: length, LastModified: info.ModTime(), Kind: kind},
		})
	}
	return out, nil
}

func (o *Operator) CreateDir(ctx context.Context, path string) error {
	return os.MkdirAll(o.hostPath(path), 0o755)
}

func (o *Operator) Rename(ctx context.Context, from, to string) error {
	return os.Rename(o.hostPath(from), o.hostPath(to))
}

var _ backend.Operator = (*Operator)(nil)
