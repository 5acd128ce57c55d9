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

// selfCmd implements subcommands.Command for the "self" command.
type selfCmd struct {
	socket string
	op     string
	kind   string
	tag    uint64
}

// Name implements subcommands.Command.Name.
func (*selfCmd) Name() string {
	return "self"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*selfCmd) Synopsis() string {
	return "read or mutate the calling process's IFC context"
}

// Usage implements subcommands.Command.Usage.
func (*selfCmd) Usage() string {
	return `self [-op add|remove -kind <kind> -tag <tag>] - read or mutate own context.

Without flags, prints the caller's context as JSON.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *selfCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.socket, "socket", defaultSocket, "control socket path")
	f.StringVar(&c.op, "op", "", `"add" or "remove"; empty reads the context`)
	f.StringVar(&c.kind, "kind", "secrecy", "tag set to mutate")
	f.Uint64Var(&c.tag, "tag", 0, "tag value")
}

// Execute implements subcommands.Command.Execute.
func (c *selfCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	client := dial(c.socket)
	defer client.Close()

	if c.op == "" {
		var snap ifc.Snapshot
		if err := client.Call("IFC.SelfContext", &struct{}{}, &snap); err != nil {
			Fatalf("reading context: %v", err)
		}
		out, err := json.MarshalIndent(&snap, "", "  ")
		if err != nil {
			Fatalf("encoding context: %v", err)
		}
		fmt.Println(string(out))
		return subcommands.ExitSuccess
	}

	args := control.TagArgs{Op: c.op, Kind: c.kind, Tag: c.tag}
	if err := client.Call("IFC.SelfTag", &args, &struct{}{}); err != nil {
		Fatalf("%s %s tag %d: %v", c.op, c.kind, c.tag, err)
	}
	return subcommands.ExitSuccess
}
