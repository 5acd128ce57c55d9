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

package provenance

import (
	"encoding/json"
	"fmt"
)

// EdgeType names the relation an edge asserts between its endpoints.
type EdgeType int

const (
	// EdgeData is a generic data flow.
	EdgeData EdgeType = iota

	// EdgeCreate connects a creator to a created object.
	EdgeCreate

	// EdgeChange connects two versions of a credential across a
	// setuid-class change.
	EdgeChange

	// EdgeFork connects a credential to its duplicate.
	EdgeFork

	// EdgeRead flows from an object to the reading subject.
	EdgeRead

	// EdgeWrite flows from the writing subject to an object.
	EdgeWrite

	// EdgeExec flows from an executed inode to the subject.
	EdgeExec

	// EdgeOpen flows from an opened inode to the subject.
	EdgeOpen

	// EdgeMmap is a mapping flow; direction depends on protection.
	EdgeMmap

	// EdgeAttach is a shared memory attachment flow.
	EdgeAttach

	// EdgeAssociate ties a socket to its backing or peer object.
	EdgeAssociate

	// EdgeBind connects a subject to a socket it binds.
	EdgeBind

	// EdgeConnect connects a subject to a socket it connects.
	EdgeConnect

	// EdgeListen connects a subject to a socket it marks listening.
	EdgeListen

	// EdgeAccept connects an accepted socket to the accepting subject.
	EdgeAccept

	// EdgeNamed links a node to its long-form name record.
	EdgeNamed

	// EdgeUnknown is an unclassified flow.
	EdgeUnknown

	numEdgeTypes
)

var edgeTypeNames = [numEdgeTypes]string{
	"data",
	"create",
	"change",
	"fork",
	"read",
	"write",
	"exec",
	"open",
	"mmap",
	"attach",
	"associate",
	"bind",
	"connect",
	"listen",
	"accept",
	"named",
	"unknown",
}

// String implements fmt.Stringer.String.
func (t EdgeType) String() string {
	if t < 0 || t >= numEdgeTypes {
		return fmt.Sprintf("unknown(%d)", int(t))
	}
	return edgeTypeNames[t]
}

// An Endpoint references one end of an edge: a node identifier at a
// specific version. Versions disambiguate edges that reference the same
// node before and after its content observably changed.
type Endpoint struct {
	NodeID
	Version uint32 `json:"version"`
}

// An Edge is one directed, typed relation between two nodes. Edges are
// immutable once constructed; they are handed to the sink and released.
type Edge struct {
	Type    EdgeType `json:"-"`
	From    Endpoint `json:"from"`
	To      Endpoint `json:"to"`
	Allowed bool     `json:"allowed"`
}

// edgeView adds the string form of Type for emission.
type edgeView struct {
	Type    string   `json:"type"`
	From    Endpoint `json:"from"`
	To      Endpoint `json:"to"`
	Allowed bool     `json:"allowed"`
}

// MarshalJSON implements json.Marshaler.MarshalJSON.
func (e *Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal(&edgeView{
		Type:    e.Type.String(),
		From:    e.From,
		To:      e.To,
		Allowed: e.Allowed,
	})
}

// MessageType implements Message.MessageType.
func (e *Edge) MessageType() MessageType {
	return MessageEdge
}

// LinkMeta is the payload of a link long record: the new name plus the
// identities of the directory, acting task and target inode.
type LinkMeta struct {
	Name  string   `json:"name"`
	Dir   Endpoint `json:"dir"`
	Task  Endpoint `json:"task"`
	Inode Endpoint `json:"inode"`
}

// A LongRecord is a variable-content auxiliary record: a file path, a
// socket address or a link name. At most one long record is emitted per
// tracked object lifetime, linked to the owning node by an EdgeNamed
// edge.
type LongRecord struct {
	kind Kind
	id   NodeID

	// Exactly one of the following is meaningful, selected by kind.
	FileName string
	Address  []byte
	Link     LinkMeta
}

// Kind returns the long record's kind.
func (l *LongRecord) Kind() Kind {
	return l.kind
}

// ID returns the long record's identifier.
func (l *LongRecord) ID() NodeID {
	return l.id
}

// endpoint returns the long record's edge endpoint. Long records are
// write-once, so the version is always zero.
func (l *LongRecord) endpoint() Endpoint {
	return Endpoint{NodeID: l.id}
}

// reset returns l to the zero state for arena reuse.
func (l *LongRecord) reset() {
	*l = LongRecord{}
}

// longView is the emitted form of a LongRecord.
type longView struct {
	Kind     string    `json:"kind"`
	NodeID   NodeID    `json:"node"`
	FileName string    `json:"file_name,omitempty"`
	Address  []byte    `json:"address,omitempty"`
	Link     *LinkMeta `json:"link,omitempty"`
}

// MarshalJSON implements json.Marshaler.MarshalJSON.
func (l *LongRecord) MarshalJSON() ([]byte, error) {
	v := longView{
		Kind:   l.kind.String(),
		NodeID: l.id,
	}
	switch l.kind {
	case KindFileName:
		v.FileName = l.FileName
	case KindAddress:
		v.Address = l.Address
	case KindLink:
		v.Link = &l.Link
	}
	return json.Marshal(&v)
}

// MessageType implements Message.MessageType.
func (l *LongRecord) MessageType() MessageType {
	return MessageLong
}
