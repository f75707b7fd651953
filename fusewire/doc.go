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

// Package fusewire contains the fixed-layout FUSE-over-virtiofs wire records
// and the opcode table the core recognizes. Every record here is plain data,
// little-endian, laid out with no implicit padding beyond each record's
// explicit padding fields. The package is stateless; besides each record's
// Encode/Decode pair it carries the opcode table and the Errno values that
// replies report.
package fusewire
