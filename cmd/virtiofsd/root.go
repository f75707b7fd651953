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

// Command virtiofsd is the process bootstrap for the core: it parses
// flags, constructs a backend.Operator and the filesystem state machine
// on top of it, and wires the request dispatcher. Attaching that
// dispatcher to an actual vhost-user virtio-fs socket is a separate
// transport concern and is not implemented here.
package main

import (
	"fmt"
	"os"

	"github.com/jacobsa/timeutil"
	"github.com/spf13/cobra"

	"github.com/jacobsa/virtiofsd/backend"
	"github.com/jacobsa/virtiofsd/backend/localdir"
	"github.com/jacobsa/virtiofsd/backend/memory"
	"github.com/jacobsa/virtiofsd/dispatch"
	"github.com/jacobsa/virtiofsd/fs"
	"github.com/jacobsa/virtiofsd/internal/logging"
)

var (
	flagBackend string
	flagRootDir string
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:   "virtiofsd",
	Short: "A virtio-fs device server backed by a pluggable storage operator",
	Long: `virtiofsd serves the FUSE-over-virtio wire protocol against a
storage backend: an in-process map for testing, or a real directory on
the host.`,
	RunE: runRoot,
}

func init() {
	rootCmd.Flags().StringVar(&flagBackend, "backend", "memory",
		`storage backend to serve: "memory" or "localdir"`)
	rootCmd.Flags().StringVar(&flagRootDir, "root-dir", "",
		`root directory for the "localdir" backend`)
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false,
		"write request/response debug logging to stderr")
}

func newBackend() (backend.Operator, error) {
	switch flagBackend {
	case "memory":
		return memory.New(timeutil.RealClock()), nil
	case "localdir":
		if flagRootDir == "" {
			return nil, fmt.Errorf("--root-dir is required for the localdir backend")
		}
		return localdir.New(flagRootDir)
	default:
		return nil, fmt.Errorf("unknown --backend %q", flagBackend)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	op, err := newBackend()
	if err != nil {
		return err
	}

	filesystem := fs.New(op)
	filesystem.Logger = logging.New(flagDebug)
	_ = dispatch.New(filesystem)

	fmt.Fprintf(cmd.OutOrStdout(),
		"virtiofsd: ready to serve %q backend (attach a virtio-fs transport to dispatch chains)\n",
		flagBackend)
	return nil
}

// Execute runs the root command, exiting the process with a non-zero
// status on error in the same style as gcsfuse's cmd package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
