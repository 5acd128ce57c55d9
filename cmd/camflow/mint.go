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
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// mintCmd implements subcommands.Command for the "mint" command.
type mintCmd struct {
	socket string
}

// Name implements subcommands.Command.Name.
func (*mintCmd) Name() string {
	return "mint"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*mintCmd) Synopsis() string {
	return "mint a fresh tag, granting the caller full privilege over it"
}

// Usage implements subcommands.Command.Usage.
func (*mintCmd) Usage() string {
	return `mint - mint a fresh tag and print its value.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *mintCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.socket, "socket", defaultSocket, "control socket path")
}

// Execute implements subcommands.Command.Execute.
func (c *mintCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	client := dial(c.socket)
	defer client.Close()

	var tag uint64
	if err := client.Call("IFC.MintTag", &struct{}{}, &tag); err != nil {
		Fatalf("minting tag: %v", err)
	}
	fmt.Println(tag)
	return subcommands.ExitSuccess
}
