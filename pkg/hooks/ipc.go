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

// A Msg is the security state attached to one System V message.
type Msg struct {
	// Type is the message type at allocation.
	Type int64

	ifc  *ifc.Context
	node *provenance.Record
}

// Node returns the message node.
func (msg *Msg) Node() *provenance.Record {
	return msg.node
}

// ProvenanceLabel implements provenance.LabelProvider.ProvenanceLabel.
func (msg *Msg) ProvenanceLabel() (provenance.Label, bool) {
	return contextLabel(msg.ifc)
}

// MsgAlloc is invoked when the host allocates a message. ctx is the
// message's IFC context if the IFC subsystem attached one, else nil.
func (m *Monitor) MsgAlloc(c *Cred, typ int64, ctx *ifc.Context) (*Msg, error) {
	n, err := m.rec.AllocNode(provenance.KindMsg)
	if err != nil {
		return nil, err
	}
	n.Msg = provenance.MsgMeta{Type: typ}
	msg := &Msg{Type: typ, ifc: ctx, node: n}
	m.rec.ImportLabel(n, msg)
	m.rec.RecordEdge(provenance.EdgeCreate, c.node, n, true)
	return msg, nil
}

// MsgFree is invoked when the host frees a message.
func (m *Monitor) MsgFree(msg *Msg) {
	if msg == nil {
		return
	}
	m.rec.FreeNode(msg.node)
	msg.node = nil
}

// MsgSend is invoked before a message is enqueued: the sender writes
// into the message.
func (m *Monitor) MsgSend(c *Cred, msg *Msg) error {
	m.rec.RecordEdge(provenance.EdgeWrite, c.node, msg.node, true)
	return nil
}

// MsgReceive is invoked before a message is dequeued. target is the
// credential of the task that will receive the message, which is not
// the calling task when the host performs inline receives; the read is
// attributed to the recipient, deliberately asymmetric with the send
// path.
func (m *Monitor) MsgReceive(target *Cred, msg *Msg) error {
	m.rec.RecordEdge(provenance.EdgeRead, msg.node, target.node, true)
	return nil
}

// A Shm is the security state attached to one shared memory segment.
type Shm struct {
	// Mode is the segment's permission mode at allocation.
	Mode uint16

	ifc  *ifc.Context
	node *provenance.Record
}

// Node returns the segment node.
func (s *Shm) Node() *provenance.Record {
	return s.node
}

// ProvenanceLabel implements provenance.LabelProvider.ProvenanceLabel.
func (s *Shm) ProvenanceLabel() (provenance.Label, bool) {
	return contextLabel(s.ifc)
}

// ShmAlloc is invoked when the host allocates a shared memory segment.
// The creator is attached from the start, so the allocation records the
// attachment in both directions.
func (m *Monitor) ShmAlloc(c *Cred, mode uint16, ctx *ifc.Context) (*Shm, error) {
	n, err := m.rec.AllocNode(provenance.KindShm)
	if err != nil {
		return nil, err
	}
	n.Shm = provenance.ShmMeta{Mode: mode}
	s := &Shm{Mode: mode, ifc: ctx, node: n}
	m.rec.ImportLabel(n, s)
	m.rec.RecordEdge(provenance.EdgeAttach, n, c.node, true)
	m.rec.RecordEdge(provenance.EdgeAttach, c.node, n, true)
	return s, nil
}

// ShmFree is invoked when the host frees a segment.
func (m *Monitor) ShmFree(s *Shm) {
	if s == nil {
		return
	}
	m.rec.FreeNode(s.node)
	s.node = nil
}

// ShmAttach is invoked on shmat. Attachment always lets the subject
// observe the segment; unless the mapping is read-only it also lets the
// subject modify it.
func (m *Monitor) ShmAttach(c *Cred, s *Shm, readonly bool) error {
	if s == nil || s.node == nil {
		return nil
	}
	m.rec.RecordEdge(provenance.EdgeAttach, s.node, c.node, true)
	if !readonly {
		m.rec.RecordEdge(provenance.EdgeAttach, c.node, s.node, true)
	}
	return nil
}
