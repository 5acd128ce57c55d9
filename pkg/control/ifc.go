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

// Package control exposes the IFC control-plane endpoints: tag mutation
// on the caller's own context, tag minting, and privilege-gated mutation
// of other processes' contexts. The endpoints are urpc methods, served
// over a Unix-domain socket.
package control

import (
	"camflow.dev/camflow/pkg/ifc"
	"gvisor.dev/gvisor/pkg/errors/linuxerr"
)

// Tag operations.
const (
	// OpAdd adds a tag.
	OpAdd = "add"

	// OpRemove removes a tag.
	OpRemove = "remove"
)

// A CredResolver resolves credentials to IFC contexts. The caller's own
// context and lookup by process identifier are both host facilities; a
// context found by Lookup lives exactly as long as the process's live
// credential, so the resolver returns nil once the process is gone.
type CredResolver interface {
	// Current returns the calling credential's context.
	Current() *ifc.Context

	// Lookup returns the context of the process identified by pid, or
	// nil if no such process exists.
	Lookup(pid int32) *ifc.Context
}

// TagArgs is the argument for tag mutation requests.
type TagArgs struct {
	// Op is OpAdd or OpRemove.
	Op string `json:"op"`

	// Kind names the tag set, in ifc.TagKind.String form.
	Kind string `json:"kind"`

	// Tag is the tag value.
	Tag uint64 `json:"tag"`

	// PID identifies the target process for cross-process requests.
	PID int32 `json:"pid,omitempty"`
}

// ContextArgs is the argument for cross-process context reads.
type ContextArgs struct {
	PID int32 `json:"pid"`
}

// IFC is the control-plane RPC surface.
type IFC struct {
	// Authority mints tags.
	Authority *ifc.Authority

	// Resolver resolves credentials.
	Resolver CredResolver
}

// mutate applies one op to ctx. kind has already been validated as far
// as the endpoint requires.
func mutate(ctx *ifc.Context, op string, kind ifc.TagKind, tag ifc.Tag) error {
	switch op {
	case OpAdd:
		return ctx.AddTag(kind, tag)
	case OpRemove:
		return ctx.RemoveTag(kind, tag)
	default:
		return linuxerr.EINVAL
	}
}

// SelfTag mutates a tag set of the caller's own context. Self-mutation
// is unconditional for all six kinds; the sole gate is tag validity.
func (i *IFC) SelfTag(args *TagArgs, _ *struct{}) error {
	kind, err := ifc.ParseTagKind(args.Kind)
	if err != nil {
		return err
	}
	tag := ifc.Tag(args.Tag)
	if !tag.Valid() {
		return linuxerr.EINVAL
	}
	return mutate(i.Resolver.Current(), args.Op, kind, tag)
}

// SelfContext returns a snapshot of the caller's full context.
func (i *IFC) SelfContext(_ *struct{}, out *ifc.Snapshot) error {
	*out = i.Resolver.Current().Snapshot()
	return nil
}

// MintTag mints a fresh tag and grants the caller full privilege,
// positive and negative, secrecy and integrity, over it. Initially only
// the creator may taint or declassify with the new tag.
func (i *IFC) MintTag(_ *struct{}, out *uint64) error {
	ctx := i.Resolver.Current()
	tag := i.Authority.CreateTag()
	if err := i.Authority.GrantAll(ctx, tag); err != nil {
		return err
	}
	*out = uint64(tag)
	return nil
}

// ProcessTag mutates a privilege set of another process's context. The
// request is honored only if the caller currently holds the same
// privilege tag: this is the single authorization check in the IFC
// model, and it is what keeps an unprivileged process from tainting or
// declassifying someone else's labels.
func (i *IFC) ProcessTag(args *TagArgs, _ *struct{}) error {
	kind, err := ifc.ParseTagKind(args.Kind)
	if err != nil {
		return err
	}
	if !kind.IsPrivilege() {
		return linuxerr.EINVAL
	}
	tag := ifc.Tag(args.Tag)
	if !tag.Valid() {
		return linuxerr.EINVAL
	}
	target := i.Resolver.Lookup(args.PID)
	if target == nil {
		return linuxerr.ESRCH
	}
	if !i.Resolver.Current().HasTag(kind, tag) {
		return linuxerr.EPERM
	}
	return mutate(target, args.Op, kind, tag)
}

// ProcessContext returns a snapshot of another process's context.
func (i *IFC) ProcessContext(args *ContextArgs, out *ifc.Snapshot) error {
	target := i.Resolver.Lookup(args.PID)
	if target == nil {
		return linuxerr.ESRCH
	}
	*out = target.Snapshot()
	return nil
}
