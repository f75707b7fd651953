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

// Package logging provides a lazily-enabled debug logger: a no-op sink by
// default, or stderr when the caller opts in. The on/off switch is taken as
// a constructor argument rather than a package-global flag, since this
// repo's flags are parsed by cobra rather than the flag package.
package logging

import (
	"io"
	"log"
	"os"
)

const flags = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile

// New returns a logger that discards everything unless debug is true, in
// which case it writes to stderr.
func New(debug bool) *log.Logger {
	var w io.Writer = io.Discard
	if debug {
		w = os.Stderr
	}
	return log.New(w, "virtiofsd: ", flags)
}
