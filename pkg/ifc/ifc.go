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

// Package ifc implements decentralized information flow control labels.
//
// Every security context carries two label dimensions, secrecy and
// integrity, plus positive and negative privilege sets for each dimension.
// The secrecy and integrity sets describe what the subject is tainted
// with; the privilege sets describe which tags the subject may add to or
// remove from other subjects. Privilege over a tag is granted in full to
// the tag's creator at mint time and propagates only through explicit,
// privilege-gated grants.
//
// A Context is exclusively owned by one credential and copied by value
// when the credential is duplicated; two contexts never alias.
package ifc

import (
	"fmt"

	"gvisor.dev/gvisor/pkg/errors/linuxerr"
)

// TagKind names one of the six tag sets in a Context.
type TagKind int

const (
	// Secrecy is the confidentiality taint set.
	Secrecy TagKind = iota

	// Integrity is the trustworthiness taint set.
	Integrity

	// SecrecyPriv holds tags the owner may add to other subjects'
	// secrecy sets.
	SecrecyPriv

	// IntegrityPriv holds tags the owner may add to other subjects'
	// integrity sets.
	IntegrityPriv

	// SecrecyNegPriv holds tags the owner may remove from other
	// subjects' secrecy sets.
	SecrecyNegPriv

	// IntegrityNegPriv holds tags the owner may remove from other
	// subjects' integrity sets.
	IntegrityNegPriv

	numTagKinds
)

// tagKindNames is indexed by TagKind.
var tagKindNames = [numTagKinds]string{
	"secrecy",
	"integrity",
	"secrecy_p",
	"integrity_p",
	"secrecy_n",
	"integrity_n",
}

// String implements fmt.Stringer.String.
func (k TagKind) String() string {
	if k < 0 || k >= numTagKinds {
		return fmt.Sprintf("unknown(%d)", int(k))
	}
	return tagKindNames[k]
}

// Ok returns true if k names a real tag set.
func (k TagKind) Ok() bool {
	return k >= 0 && k < numTagKinds
}

// IsPrivilege returns true if k is one of the four privilege kinds. Only
// privilege kinds may be mutated on a subject other than self.
func (k TagKind) IsPrivilege() bool {
	return k >= SecrecyPriv && k <= IntegrityNegPriv
}

// ParseTagKind is the inverse of TagKind.String.
func ParseTagKind(s string) (TagKind, error) {
	for k, name := range tagKindNames {
		if name == s {
			return TagKind(k), nil
		}
	}
	return 0, linuxerr.EINVAL
}

// A Context is the full IFC state of one credential: six tag sets plus a
// sticky labelled flag that records whether any set has ever been
// populated.
//
// Context has value semantics. Credential duplication copies the context
// by assignment; the copies then diverge independently. Concurrent
// mutation of a single Context must be serialized by the owning
// credential's existing locking, exactly as the host serializes the
// credential itself.
//
// The zero value is an empty, unlabelled context.
type Context struct {
	sets     [numTagKinds]TagSet
	labelled bool
}

// AddTag inserts t into the set named by kind. It fails with
// linuxerr.EINVAL if kind or t is invalid and linuxerr.ENOMEM if the set
// is at capacity. A successful insertion marks the context labelled.
func (c *Context) AddTag(kind TagKind, t Tag) error {
	if !kind.Ok() {
		return linuxerr.EINVAL
	}
	if err := c.sets[kind].Add(t); err != nil {
		return err
	}
	c.labelled = true
	return nil
}

// RemoveTag removes t from the set named by kind. Removing an absent tag
// succeeds; the labelled flag is sticky and is not cleared.
func (c *Context) RemoveTag(kind TagKind, t Tag) error {
	if !kind.Ok() || !t.Valid() {
		return linuxerr.EINVAL
	}
	c.sets[kind].Remove(t)
	return nil
}

// HasTag returns true if t is a member of the set named by kind.
func (c *Context) HasTag(kind TagKind, t Tag) bool {
	if !kind.Ok() {
		return false
	}
	return c.sets[kind].Contains(t)
}

// IsLabelled returns true once any tag set has been populated. Labelled
// contexts switch provenance capture for the owning object into tracked
// mode.
func (c *Context) IsLabelled() bool {
	return c.labelled
}

// Copy returns a value snapshot of c. Mutating the copy never affects c
// and vice versa.
func (c *Context) Copy() Context {
	return *c
}

// Snapshot is a point-in-time, wire-friendly view of a Context.
type Snapshot struct {
	Secrecy          []uint64 `json:"secrecy,omitempty"`
	Integrity        []uint64 `json:"integrity,omitempty"`
	SecrecyPriv      []uint64 `json:"secrecy_p,omitempty"`
	IntegrityPriv    []uint64 `json:"integrity_p,omitempty"`
	SecrecyNegPriv   []uint64 `json:"secrecy_n,omitempty"`
	IntegrityNegPriv []uint64 `json:"integrity_n,omitempty"`
	Labelled         bool     `json:"labelled"`
}

// Snapshot returns a copy of c's current state.
func (c *Context) Snapshot() Snapshot {
	return Snapshot{
		Secrecy:          c.sets[Secrecy].values(),
		Integrity:        c.sets[Integrity].values(),
		SecrecyPriv:      c.sets[SecrecyPriv].values(),
		IntegrityPriv:    c.sets[IntegrityPriv].values(),
		SecrecyNegPriv:   c.sets[SecrecyNegPriv].values(),
		IntegrityNegPriv: c.sets[IntegrityNegPriv].values(),
		Labelled:         c.labelled,
	}
}
