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

package fusewire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jacobsa/virtiofsd/fusewire"
)

func TestOpcodeKnown(t *testing.T) {
	assert.True(t, fusewire.OpLookup.Known())
	assert.True(t, fusewire.OpDestroy.Known())
	assert.False(t, fusewire.Opcode(99).Known())
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "WRITE", fusewire.OpWrite.String())
	assert.Equal(t, "UNKNOWN", fusewire.Opcode(99).String())
}

func TestErrnoNegated(t *testing.T) {
	assert.Equal(t, int32(-2), fusewire.ENOENT.Negated())
	assert.Equal(t, int32(-17), fusewire.EEXIST.Negated())
}

func TestToErrno(t *testing.T) {
	assert.Equal(t, fusewire.Errno(0), fusewire.ToErrno(nil))
	assert.Equal(t, fusewire.ENOENT, fusewire.ToErrno(fusewire.ENOENT))
	assert.Equal(t, fusewire.EIO, fusewire.ToErrno(assertErr{}))
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
