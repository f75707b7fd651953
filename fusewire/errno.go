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

import "golang.org/x/sys/unix"

// Errno is a sentinel error carrying the POSIX errno that should be written
// into OutHeader.Error for a failed request.
type Errno int32

func (e Errno) Error() string {
	return unix.Errno(e).Error()
}

// Negated returns the value that belongs in OutHeader.Error: FUSE replies
// carry negative errno values.
func (e Errno) Negated() int32 {
	return -int32(e)
}

// The full errno taxonomy this core ever reports, one Errno per kind.
const (
	ENOENT   = Errno(unix.ENOENT)
	EACCES   = Errno(unix.EACCES)
	EEXIST   = Errno(unix.EEXIST)
	ENOTDIR  = Errno(unix.ENOTDIR)
	EISDIR   = Errno(unix.EISDIR)
	EINVAL   = Errno(unix.EINVAL)
	EBADF    = Errno(unix.EBADF)
	ENOSYS   = Errno(unix.ENOSYS)
	EIO      = Errno(unix.EIO)
	ENOMEM   = Errno(unix.ENOMEM)
	ENOTCONN = Errno(unix.ENOTCONN)
	EPROTO   = Errno(unix.EPROTO)
)

// ToErrno maps an arbitrary error to the Errno that should be reported to
// the guest kernel. Errors that are already an Errno pass through
// unchanged; anything else collapses to EIO (the caller is expected to
// have logged the underlying cause already).
func ToErrno(err error) Errno {
	if err == nil {
		return 0
	}
	if e, ok := err.(Errno); ok {
		return e
	}
	return EIO
}
