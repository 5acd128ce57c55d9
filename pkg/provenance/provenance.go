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

// Package provenance records a directed graph of data flows between
// kernel objects.
//
// Every mediated object (task credential, inode, message, shared memory
// segment, socket, superblock) is annotated with a node record carrying a
// boot-scoped unique identifier, a monotone version counter and capture
// flags. Mediated operations emit typed directed edges between node
// records. Finished records are handed synchronously to a Sink and never
// retained; the package buffers nothing and introduces no locks of its
// own.
package provenance

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gvisor.dev/gvisor/pkg/atomicbitops"
)

// Kind discriminates node and long-form record payloads.
type Kind int

const (
	// KindTask annotates a task credential.
	KindTask Kind = iota

	// KindInode annotates a filesystem inode.
	KindInode

	// KindMsg annotates a System V message.
	KindMsg

	// KindShm annotates a shared memory segment.
	KindShm

	// KindSock annotates a socket.
	KindSock

	// KindSb annotates a superblock.
	KindSb

	// KindFileName is a long-form record carrying a file path.
	KindFileName

	// KindAddress is a long-form record carrying a socket address.
	KindAddress

	// KindLink is a long-form record carrying a link name.
	KindLink

	numKinds
)

var kindNames = [numKinds]string{
	"task",
	"inode",
	"msg",
	"shm",
	"sock",
	"sb",
	"file_name",
	"address",
	"link",
}

// String implements fmt.Stringer.String.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("unknown(%d)", int(k))
	}
	return kindNames[k]
}

// long returns true for long-form record kinds.
func (k Kind) long() bool {
	return k >= KindFileName
}

// A NodeID uniquely identifies a node within a boot epoch. ID is either a
// stable host-assigned value (an inode number, for example) or a value
// minted by the recorder; Boot and Machine stamp the epoch so identifiers
// from different boots or machines never collide in a merged log.
type NodeID struct {
	ID      uint64 `json:"id"`
	Boot    uint32 `json:"boot"`
	Machine uint32 `json:"machine"`
}

// TaskMeta is the node metadata for task credentials.
type TaskMeta struct {
	UID uint32 `json:"uid"`
	GID uint32 `json:"gid"`
}

// InodeMeta is the node metadata for inodes.
type InodeMeta struct {
	UID    uint32    `json:"uid"`
	GID    uint32    `json:"gid"`
	Mode   uint16    `json:"mode"`
	SbUUID uuid.UUID `json:"sb_uuid"`
}

// MsgMeta is the node metadata for System V messages.
type MsgMeta struct {
	Type int64 `json:"type"`
}

// ShmMeta is the node metadata for shared memory segments.
type ShmMeta struct {
	Mode uint16 `json:"mode"`
}

// SockMeta is the node metadata for sockets. It is filled in lazily at
// socket_post_create time; family, type and protocol are unknown when the
// node is allocated.
type SockMeta struct {
	Family   int32 `json:"family"`
	Type     int32 `json:"type"`
	Protocol int32 `json:"protocol"`
}

// SbMeta is the node metadata for superblocks.
type SbMeta struct {
	UUID uuid.UUID `json:"uuid"`
}

// node flag bits, accessed via compare-and-swap so that once-only
// transitions hold under concurrent hooks.
const (
	flagTracked uint32 = 1 << iota
	flagOpaque
	flagNameRecorded
	flagEmitted
	flagFreed
)

// A Record is the provenance node for one kernel object. It is owned
// exclusively by the host object it annotates and freed synchronously
// when that object is destroyed. Mutation of the metadata fields happens
// under the host's own serialization of the object lifecycle; the flag
// and version words are atomic so that the recording paths may run
// concurrently.
type Record struct {
	kind    Kind
	id      NodeID
	version atomicbitops.Uint32
	flags   atomicbitops.Uint32

	// Exactly one of the following is meaningful, selected by kind.
	Task  TaskMeta
	Inode InodeMeta
	Msg   MsgMeta
	Shm   ShmMeta
	Sock  SockMeta
	Sb    SbMeta

	// label is a one-time import of the owner's IFC label, snapshotted
	// when the node is allocated. It is never read back into the IFC
	// context.
	label Label
}

// Kind returns the record's object kind.
func (r *Record) Kind() Kind {
	return r.kind
}

// ID returns the record's node identifier.
func (r *Record) ID() NodeID {
	return r.id
}

// Version returns the current version counter.
func (r *Record) Version() uint32 {
	return r.version.Load()
}

// Label returns the imported IFC label snapshot.
func (r *Record) Label() Label {
	return r.label
}

func (r *Record) setFlag(bit uint32) {
	for {
		old := r.flags.Load()
		if old&bit != 0 || r.flags.CompareAndSwap(old, old|bit) {
			return
		}
	}
}

func (r *Record) clearFlag(bit uint32) {
	for {
		old := r.flags.Load()
		if old&bit == 0 || r.flags.CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

// setFlagOnce sets bit and reports whether this call performed the
// transition.
func (r *Record) setFlagOnce(bit uint32) bool {
	for {
		old := r.flags.Load()
		if old&bit != 0 {
			return false
		}
		if r.flags.CompareAndSwap(old, old|bit) {
			return true
		}
	}
}

// Tracked returns true if the object is subject to IFC-derived capture.
func (r *Record) Tracked() bool {
	return r.flags.Load()&flagTracked != 0
}

// SetOpaque marks or unmarks the object as opaque. Outbound provenance
// capture is suppressed entirely for opaque subjects.
func (r *Record) SetOpaque(opaque bool) {
	if opaque {
		r.setFlag(flagOpaque)
	} else {
		r.clearFlag(flagOpaque)
	}
}

// Opaque returns true if the object is opaque.
func (r *Record) Opaque() bool {
	return r.flags.Load()&flagOpaque != 0
}

// NameRecorded returns true once the object's name has been emitted.
func (r *Record) NameRecorded() bool {
	return r.flags.Load()&flagNameRecorded != 0
}

// BeginNameRecord attempts the false->true transition of the
// name-recorded flag and reports whether the caller won it. The flag
// flips exactly once per node lifetime; the winner must emit the long
// record.
func (r *Record) BeginNameRecord() bool {
	return r.setFlagOnce(flagNameRecorded)
}

func (r *Record) freed() bool {
	return r.flags.Load()&flagFreed != 0
}

// TransferFrom copies src's identity, version, flags, metadata and label
// into r, the credential transfer semantics: the destination becomes a
// value snapshot of the source.
func (r *Record) TransferFrom(src *Record) {
	r.kind = src.kind
	r.id = src.id
	r.version.Store(src.version.Load())
	r.flags.Store(src.flags.Load() &^ flagFreed)
	r.Task = src.Task
	r.Inode = src.Inode
	r.Msg = src.Msg
	r.Shm = src.Shm
	r.Sock = src.Sock
	r.Sb = src.Sb
	r.label = src.label
}

// reset returns r to the zero state for arena reuse.
func (r *Record) reset() {
	*r = Record{}
}

// nodeView is the emitted form of a Record.
type nodeView struct {
	Kind         string     `json:"kind"`
	NodeID       NodeID     `json:"node"`
	Version      uint32     `json:"version"`
	Tracked      bool       `json:"tracked,omitempty"`
	Opaque       bool       `json:"opaque,omitempty"`
	NameRecorded bool       `json:"name_recorded,omitempty"`
	Task         *TaskMeta  `json:"task,omitempty"`
	Inode        *InodeMeta `json:"inode,omitempty"`
	Msg          *MsgMeta   `json:"msg,omitempty"`
	Shm          *ShmMeta   `json:"shm,omitempty"`
	Sock         *SockMeta  `json:"sock,omitempty"`
	Sb           *SbMeta    `json:"sb,omitempty"`
	Label        *Label     `json:"label,omitempty"`
}

// MarshalJSON implements json.Marshaler.MarshalJSON.
func (r *Record) MarshalJSON() ([]byte, error) {
	v := nodeView{
		Kind:         r.kind.String(),
		NodeID:       r.id,
		Version:      r.version.Load(),
		Tracked:      r.Tracked(),
		Opaque:       r.Opaque(),
		NameRecorded: r.NameRecorded(),
	}
	switch r.kind {
	case KindTask:
		v.Task = &r.Task
	case KindInode:
		v.Inode = &r.Inode
	case KindMsg:
		v.Msg = &r.Msg
	case KindShm:
		v.Shm = &r.Shm
	case KindSock:
		v.Sock = &r.Sock
	case KindSb:
		v.Sb = &r.Sb
	}
	if !r.label.Empty() {
		v.Label = &r.label
	}
	return json.Marshal(&v)
}

// MessageType implements Message.MessageType.
func (r *Record) MessageType() MessageType {
	return MessageNode
}
