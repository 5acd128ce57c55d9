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

package hooks

import (
	"camflow.dev/camflow/pkg/ifc"
	"camflow.dev/camflow/pkg/provenance"
)

// A Cred is the security state attached to one host credential: the IFC
// context (when IFC is enabled) and the task provenance node. A Cred is
// exclusively owned by its credential; duplication copies, it never
// shares.
type Cred struct {
	// UID and GID are the credential's effective ids at allocation.
	UID uint32
	GID uint32

	ifc  *ifc.Context
	node *provenance.Record
}

// Context returns the credential's IFC context, or nil if IFC is
// disabled.
func (c *Cred) Context() *ifc.Context {
	return c.ifc
}

// Node returns the credential's task node.
func (c *Cred) Node() *provenance.Record {
	return c.node
}

// SetOpaque suppresses (or restores) provenance capture for operations
// performed by this credential.
func (c *Cred) SetOpaque(opaque bool) {
	if c.node != nil {
		c.node.SetOpaque(opaque)
	}
}

// opaque returns true if capture is suppressed for this subject.
func (c *Cred) opaque() bool {
	return c.node != nil && c.node.Opaque()
}

// ProvenanceLabel implements provenance.LabelProvider.ProvenanceLabel.
func (c *Cred) ProvenanceLabel() (provenance.Label, bool) {
	return contextLabel(c.ifc)
}

// newCred allocates the credential wrapper and its task node. The node
// allocation failure is propagated: every credential must carry a
// security context, so this failure is fatal to the credential's
// creation.
func (m *Monitor) newCred(uid, gid uint32) (*Cred, error) {
	n, err := m.rec.AllocNode(provenance.KindTask)
	if err != nil {
		return nil, err
	}
	n.Task = provenance.TaskMeta{UID: uid, GID: gid}
	c := &Cred{UID: uid, GID: gid, node: n}
	if m.opts.EnableIFC {
		c.ifc = &ifc.Context{}
	}
	return c, nil
}

// CredAlloc is invoked when the host allocates a blank credential. The
// returned Cred carries a fresh task node and, when IFC is enabled, an
// empty context.
func (m *Monitor) CredAlloc(uid, gid uint32) (*Cred, error) {
	return m.newCred(uid, gid)
}

// CredPrepare is invoked when the host prepares a new credential from an
// existing one (fork and every other credential derivation). The IFC
// context is copied by value, so the copies diverge independently; the
// new task node imports the inherited label and a fork edge connects the
// two credentials.
func (m *Monitor) CredPrepare(old *Cred, uid, gid uint32) (*Cred, error) {
	c, err := m.newCred(uid, gid)
	if err != nil {
		return nil, err
	}
	if old.ifc != nil {
		ctx := old.ifc.Copy()
		c.ifc = &ctx
	}
	m.rec.ImportLabel(c.node, c)
	m.rec.RecordEdge(provenance.EdgeFork, old.node, c.node, true)
	return c, nil
}

// CredTransfer copies the security state of src into dst, for hosts
// that transfer rather than prepare. The node becomes a value snapshot
// of the source's node; the IFC context is copied by value.
func (m *Monitor) CredTransfer(dst, src *Cred) {
	if src.ifc != nil {
		ctx := src.ifc.Copy()
		dst.ifc = &ctx
	}
	if dst.node != nil && src.node != nil {
		dst.node.TransferFrom(src.node)
	}
}

// CredFree is invoked when the host frees a credential. Safe to call on
// a credential whose node was never allocated.
func (m *Monitor) CredFree(c *Cred) {
	if c == nil {
		return
	}
	m.rec.FreeNode(c.node)
	c.node = nil
	c.ifc = nil
}

// TaskFixSetuid is invoked after a setuid-class identity change. The
// change edge connects the credential's old and new incarnations.
func (m *Monitor) TaskFixSetuid(new, old *Cred) {
	m.rec.RecordEdge(provenance.EdgeChange, old.node, new.node, true)
}

// BprmSetCreds is invoked while the host sets up credentials for exec.
// It repairs a credential that is missing its node; exec may assemble
// credentials through paths that bypass CredAlloc.
func (m *Monitor) BprmSetCreds(c *Cred) error {
	if c.node != nil {
		return nil
	}
	n, err := m.rec.AllocNode(provenance.KindTask)
	if err != nil {
		return err
	}
	n.Task = provenance.TaskMeta{UID: c.UID, GID: c.GID}
	c.node = n
	return nil
}

// BprmCommittingCreds is invoked as the host commits the new exec
// credentials: the old credential creates the new one, and so does the
// executed file's inode.
func (m *Monitor) BprmCommittingCreds(old, new *Cred, f *File) {
	m.rec.RecordEdge(provenance.EdgeCreate, old.node, new.node, true)
	if f != nil && f.Inode != nil {
		m.rec.RecordEdge(provenance.EdgeCreate, f.Inode.node, new.node, true)
	}
}
