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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"camflow.dev/camflow/pkg/control"
	"camflow.dev/camflow/pkg/ifc"
)

// processCmd implements subcommands.Command for the "process" command.
type processCmd struct {
	socket string
	pid    int
	op     string
	kind   string
	tag    uint64
}

// Name implements subcommands.Command.Name.
func (*processCmd) Name() string {
	return "process"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*processCmd) Synopsis() string {
	return "read or mutate another process's IFC context"
}

// Usage implements subcommands.Command.Usage.
func (*processCmd) Usage() string {
	return `process -pid <pid> [-op add|remove -kind <privilege kind> -tag <tag>] - read or mutate a process's context.

Mutation requires the caller to hold the matching privilege tag, and is
restricted to the privilege kinds. Without -op, prints the target's
context as JSON.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *processCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.socket, "socket", defaultSocket, "control socket path")
	f.IntVar(&c.pid, "pid", 0, "target process")
	f.StringVar(&c.op, "op", "", `"add" or "remove"; empty reads the context`)
	f.StringVar(&c.kind, "kind", "secrecy_p", "privilege set to mutate")
	f.Uint64Var(&c.tag, "tag", 0, "tag value")
}

// Execute implements subcommands.Command.Execute.
func (c *processCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	client := dial(c.socket)
	defer client.Close()

	if c.op == "" {
		var snap ifc.Snapshot
		args := control.ContextArgs{PID: int32(c.pid)}
		if err := client.Call("IFC.ProcessContext", &args, &snap); err != nil {
			Fatalf("reading context of %d: %v", c.pid, err)
		}
		out, err := json.MarshalIndent(&snap, "", "  ")
		if err != nil {
			Fatalf("encoding context: %v", err)
		}
		fmt.Println(string(out))
		return subcommands.ExitSuccess
	}

	args := control.TagArgs{Op: c.op, Kind: c.kind, Tag: c.tag, PID: int32(c.pid)}
	if err := client.Call("IFC.ProcessTag", &args, &struct{}{}); err != nil {
		Fatalf("%s %s tag %d on %d: %v", c.op, c.kind, c.tag, c.pid, err)
	}
	return subcommands.ExitSuccess
}
