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

// Opcode identifies which record follows an InHeader on the wire.
type Opcode uint32

// The exhaustive set of opcodes the core recognizes. Values are fixed by the
// FUSE kernel ABI and must not be renumbered.
const (
	OpLookup  Opcode = 1
	OpForget  Opcode = 2
	OpGetattr Opcode = 3
	OpSetattr Opcode = 4
	OpUnlink  Opcode = 10
	OpOpen    Opcode = 14
	OpRead    Opcode = 15
	OpWrite   Opcode = 16
	OpRelease Opcode = 18
	OpFlush   Opcode = 25
	OpInit    Opcode = 26
	OpCreate  Opcode = 35
	OpDestroy Opcode = 38
)

var opcodeNames = map[Opcode]string{
	OpLookup:  "LOOKUP",
	OpForget:  "FORGET",
	OpGetattr: "GETATTR",
	OpSetattr: "SETATTR",
	OpUnlink:  "UNLINK",
	OpOpen:    "OPEN",
	OpRead:    "READ",
	OpWrite:   "WRITE",
	OpRelease: "RELEASE",
	OpFlush:   "FLUSH",
	OpInit:    "INIT",
	OpCreate:  "CREATE",
	OpDestroy: "DESTROY",
}

// String returns a human-readable opcode name, or "UNKNOWN" for an opcode
// the core does not recognize.
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// Known reports whether o is one of the opcodes the core dispatches.
func (o Opcode) Known() bool {
	_, ok := opcodeNames[o]
	return ok
}

// ProtoVersionMinMajor and ProtoVersionMinMinor are the lowest FUSE protocol
// version this core will negotiate with the guest kernel.
const (
	ProtoVersionMinMajor = 7
	ProtoVersionMinMinor = 32
)

// ProtoVersionMaxMajor and ProtoVersionMaxMinor are the highest protocol
// version the core speaks; Init downgrades to this pair if the guest asks
// for something newer.
const (
	ProtoVersionMaxMajor = 7
	ProtoVersionMaxMinor = 32
)
