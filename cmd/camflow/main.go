// Copyright 2026 The CamFlow Authors.
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

// Binary camflow is the command line client for the IFC control plane.
// It speaks urpc to an embedder's control socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"gvisor.dev/gvisor/pkg/unet"
	"gvisor.dev/gvisor/pkg/urpc"
)

// defaultSocket is where embedders conventionally expose the control
// surface.
const defaultSocket = "/var/run/camflow/control.sock"

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(selfCmd), "")
	subcommands.Register(new(mintCmd), "")
	subcommands.Register(new(processCmd), "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}

// Fatalf prints a message to stderr and exits.
func Fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(128)
}

// dial connects to the control socket.
func dial(path string) *urpc.Client {
	conn, err := unet.Connect(path, false)
	if err != nil {
		Fatalf("connecting to %q: %v", path, err)
	}
	return urpc.NewClient(conn)
}
