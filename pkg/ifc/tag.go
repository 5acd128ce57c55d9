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

package ifc

import (
	"gvisor.dev/gvisor/pkg/atomicbitops"
)

// A Tag identifies a security compartment. Tags are opaque; their only
// meaningful operations are equality and set membership.
type Tag uint64

// InvalidTag is the reserved sentinel. It is never issued by an Authority
// and is rejected by every mutation operation.
const InvalidTag Tag = 0

// Valid returns true if t may appear in a TagSet.
func (t Tag) Valid() bool {
	return t != InvalidTag
}

// An Authority issues tags. Every tag issued by a given Authority is
// distinct from all tags it has previously issued; tags are never reused
// within a boot session.
//
// The zero value is ready to use. CreateTag may be called concurrently.
type Authority struct {
	last atomicbitops.Uint64
}

// CreateTag returns a fresh tag. The result is never InvalidTag.
func (a *Authority) CreateTag() Tag {
	return Tag(a.last.Add(1))
}

// GrantAll adds all four privilege kinds over t to ctx, giving ctx's owner
// full authority to taint and declassify with t. It is the mint endpoint's
// companion: the creator of a tag, and initially only the creator, holds
// privilege over it.
func (a *Authority) GrantAll(ctx *Context, t Tag) error {
	for _, kind := range []TagKind{SecrecyPriv, IntegrityPriv, SecrecyNegPriv, IntegrityNegPriv} {
		if err := ctx.AddTag(kind, t); err != nil {
			return err
		}
	}
	return nil
}
