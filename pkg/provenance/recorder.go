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
	"encoding/binary"

	"gvisor.dev/gvisor/pkg/atomicbitops"
	"gvisor.dev/gvisor/pkg/errors/linuxerr"
	"gvisor.dev/gvisor/pkg/log"
	"gvisor.dev/gvisor/pkg/rand"
	"gvisor.dev/gvisor/pkg/sync"
)

const (
	// DefaultMaxRecords bounds the short record arena.
	DefaultMaxRecords = 1 << 16

	// DefaultMaxLongRecords bounds the long record arena.
	DefaultMaxLongRecords = 1 << 10
)

// Options configures a Recorder.
type Options struct {
	// Sink receives finished records. A nil sink discards everything.
	Sink Sink

	// MachineID stamps every node identifier. It identifies this machine
	// in a merged log; it is stamped, not reconciled.
	MachineID uint32

	// MaxRecords and MaxLongRecords bound the record arenas; zero means
	// the default. Allocation beyond the bound fails with ENOMEM rather
	// than blocking, so hooks stay safe in no-sleep contexts.
	MaxRecords     int64
	MaxLongRecords int64
}

// A Recorder owns the mutable provenance state: the node identifier
// counter, the machine and boot identifiers, the two bounded record
// arenas and the sink. All methods are safe for concurrent use; the
// recorder never blocks and never retries.
type Recorder struct {
	sink      Sink
	machineID uint32
	bootID    uint32

	// lastID is the node identifier counter for objects without a stable
	// host identifier.
	lastID atomicbitops.Uint64

	shortInUse atomicbitops.Int64
	longInUse  atomicbitops.Int64
	maxShort   int64
	maxLong    int64

	shortPool sync.Pool
	longPool  sync.Pool
}

// New creates a Recorder. The boot identifier is drawn from the host's
// random source once per recorder lifetime.
func New(opts Options) *Recorder {
	r := &Recorder{
		sink:      opts.Sink,
		machineID: opts.MachineID,
		maxShort:  opts.MaxRecords,
		maxLong:   opts.MaxLongRecords,
	}
	if r.maxShort <= 0 {
		r.maxShort = DefaultMaxRecords
	}
	if r.maxLong <= 0 {
		r.maxLong = DefaultMaxLongRecords
	}
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		log.Warningf("provenance: no randomness for boot id: %v", err)
	}
	r.bootID = binary.LittleEndian.Uint32(buf[:])
	r.shortPool.New = func() any { return &Record{} }
	r.longPool.New = func() any { return &LongRecord{} }
	return r
}

// MachineID returns the configured machine identifier.
func (r *Recorder) MachineID() uint32 {
	return r.machineID
}

// BootID returns the boot epoch identifier.
func (r *Recorder) BootID() uint32 {
	return r.bootID
}

// assignID mints a fresh identifier, unique for this boot session.
func (r *Recorder) assignID() uint64 {
	return r.lastID.Add(1)
}

func (r *Recorder) nodeID(id uint64) NodeID {
	return NodeID{ID: id, Boot: r.bootID, Machine: r.machineID}
}

// AllocNode allocates a zeroed node record of the given kind with a
// freshly minted identifier, for objects that have no stable host
// identifier (tasks, messages, sockets, shared memory). It fails with
// linuxerr.ENOMEM when the arena is exhausted.
func (r *Recorder) AllocNode(kind Kind) (*Record, error) {
	return r.AllocNodeID(kind, r.assignID())
}

// AllocNodeID is AllocNode with a caller-supplied stable identifier,
// such as an inode number.
func (r *Recorder) AllocNodeID(kind Kind, id uint64) (*Record, error) {
	if kind.long() {
		return nil, linuxerr.EINVAL
	}
	if r.shortInUse.Add(1) > r.maxShort {
		r.shortInUse.Add(-1)
		return nil, linuxerr.ENOMEM
	}
	n := r.shortPool.Get().(*Record)
	n.reset()
	n.kind = kind
	n.id = r.nodeID(id)
	return n, nil
}

// FreeNode releases a node record. FreeNode(nil) is a no-op and freeing
// a record twice is harmless; ownership is one host object to one node,
// and the freed flag guards the arena accounting.
func (r *Recorder) FreeNode(n *Record) {
	if n == nil {
		return
	}
	if !n.setFlagOnce(flagFreed) {
		return
	}
	r.shortInUse.Add(-1)
	r.shortPool.Put(n)
}

// AllocLong allocates a long-form record. It fails with linuxerr.ENOMEM
// when the long arena is exhausted.
func (r *Recorder) AllocLong(kind Kind) (*LongRecord, error) {
	if !kind.long() {
		return nil, linuxerr.EINVAL
	}
	if r.longInUse.Add(1) > r.maxLong {
		r.longInUse.Add(-1)
		return nil, linuxerr.ENOMEM
	}
	l := r.longPool.Get().(*LongRecord)
	l.reset()
	l.kind = kind
	l.id = r.nodeID(r.assignID())
	return l, nil
}

// FreeLong releases a long-form record. FreeLong(nil) is a no-op.
func (r *Recorder) FreeLong(l *LongRecord) {
	if l == nil {
		return
	}
	r.longInUse.Add(-1)
	r.longPool.Put(l)
}

// ImportLabel consults the object's label provider once and, if the
// object is labelled, marks the node tracked and snapshots the label
// into its metadata. Called at node allocation only; the snapshot never
// feeds back into the IFC context.
func (r *Recorder) ImportLabel(n *Record, lp LabelProvider) {
	if n == nil || lp == nil {
		return
	}
	label, ok := lp.ProvenanceLabel()
	if !ok {
		return
	}
	n.label = label
	n.setFlag(flagTracked)
}

// UpdateVersion bumps the node's version counter. Called when an edge
// implies the node's content observably changed, so later edges
// referencing the node are distinguishable in the log.
func (r *Recorder) UpdateVersion(n *Record) {
	if n == nil {
		return
	}
	n.version.Add(1)
}

func endpoint(n *Record) Endpoint {
	return Endpoint{NodeID: n.id, Version: n.version.Load()}
}

// emitNodeOnce writes the node snapshot the first time the node
// participates in an edge, so every edge in the log has both endpoints
// described.
func (r *Recorder) emitNodeOnce(n *Record) {
	if n.setFlagOnce(flagEmitted) {
		r.write(n)
	}
}

// RecordEdge emits one directed relation between two live nodes. The
// caller supplies the flow decision; recording itself decides nothing.
// Edges with a missing or freed endpoint are dropped.
func (r *Recorder) RecordEdge(t EdgeType, from, to *Record, allowed bool) {
	if from == nil || to == nil || from.freed() || to.freed() {
		return
	}
	r.emitNodeOnce(from)
	r.emitNodeOnce(to)
	r.write(&Edge{
		Type:    t,
		From:    endpoint(from),
		To:      endpoint(to),
		Allowed: allowed,
	})
}

// RecordLongEdge emits a long-form record and the edge linking it to its
// owning node. The long record remains owned by the caller and is
// normally freed immediately after this returns.
func (r *Recorder) RecordLongEdge(t EdgeType, from *Record, l *LongRecord, allowed bool) {
	if from == nil || l == nil || from.freed() {
		return
	}
	r.emitNodeOnce(from)
	r.write(l)
	r.write(&Edge{
		Type:    t,
		From:    endpoint(from),
		To:      l.endpoint(),
		Allowed: allowed,
	})
}

// write hands one finished record to the sink. Sink failure is logged
// and swallowed; provenance capture must never fail the host operation.
func (r *Recorder) write(m Message) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Write(m); err != nil {
		log.Warningf("provenance: dropping %v record: %v", m.MessageType(), err)
	}
}
