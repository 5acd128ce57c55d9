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
	"github.com/google/uuid"

	"camflow.dev/camflow/pkg/ifc"
	"camflow.dev/camflow/pkg/provenance"
)

// A Superblock is the security state attached to one host superblock.
type Superblock struct {
	uuid uuid.UUID
	node *provenance.Record
}

// UUID returns the filesystem identity stamped on the superblock's
// inodes.
func (sb *Superblock) UUID() uuid.UUID {
	return sb.uuid
}

// Node returns the superblock node.
func (sb *Superblock) Node() *provenance.Record {
	return sb.node
}

// SbAlloc is invoked when the host allocates a superblock.
func (m *Monitor) SbAlloc() (*Superblock, error) {
	n, err := m.rec.AllocNode(provenance.KindSb)
	if err != nil {
		return nil, err
	}
	return &Superblock{node: n}, nil
}

// SbKernMount is invoked when the filesystem is mounted. A filesystem
// without its own UUID gets a random one, so inode identities remain
// distinguishable across filesystems.
func (m *Monitor) SbKernMount(sb *Superblock, id uuid.UUID) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	sb.uuid = id
	if sb.node != nil {
		sb.node.Sb = provenance.SbMeta{UUID: id}
	}
}

// SbFree is invoked when the host frees a superblock.
func (m *Monitor) SbFree(sb *Superblock) {
	if sb == nil {
		return
	}
	m.rec.FreeNode(sb.node)
	sb.node = nil
}

// An Inode is the security state attached to one host inode.
type Inode struct {
	// Ino is the host's stable inode number; it doubles as the node
	// identifier.
	Ino uint64

	// UID, GID and Mode mirror the host inode at allocation.
	UID  uint32
	GID  uint32
	Mode uint16

	// Private marks kernel-internal inodes that bypass capture.
	Private bool

	sb   *Superblock
	ifc  *ifc.Context
	node *provenance.Record
}

// Node returns the inode node, which may be nil if allocation failed
// and no hook has repaired it yet.
func (i *Inode) Node() *provenance.Record {
	return i.node
}

// Context returns the inode's IFC context, or nil.
func (i *Inode) Context() *ifc.Context {
	return i.ifc
}

// ProvenanceLabel implements provenance.LabelProvider.ProvenanceLabel.
func (i *Inode) ProvenanceLabel() (provenance.Label, bool) {
	return contextLabel(i.ifc)
}

// A File pairs an inode with the path it was opened by. The path feeds
// the one-time name capture; everything else operates on the inode.
type File struct {
	Inode *Inode
	Path  string
}

// allocInodeNode builds and attaches i's node and records the creation
// edge. Creating the inode is a flow from the creating subject, distinct
// from creating any file name for it.
func (m *Monitor) allocInodeNode(c *Cred, i *Inode) error {
	n, err := m.rec.AllocNodeID(provenance.KindInode, i.Ino)
	if err != nil {
		return err
	}
	meta := provenance.InodeMeta{UID: i.UID, GID: i.GID, Mode: i.Mode}
	if i.sb != nil {
		meta.SbUUID = i.sb.uuid
	}
	n.Inode = meta
	i.node = n
	m.rec.ImportLabel(n, i)
	m.rec.RecordEdge(provenance.EdgeCreate, c.node, n, true)
	return nil
}

// InodeAlloc is invoked when the host allocates an inode. ctx is the
// inode's IFC context if the IFC subsystem attached one, else nil.
func (m *Monitor) InodeAlloc(c *Cred, sb *Superblock, ino uint64, uid, gid uint32, mode uint16, ctx *ifc.Context) (*Inode, error) {
	i := &Inode{Ino: ino, UID: uid, GID: gid, Mode: mode, sb: sb, ifc: ctx}
	if err := m.allocInodeNode(c, i); err != nil {
		// The wrapper survives without a node; the first permission
		// check repairs it.
		return i, err
	}
	return i, nil
}

// InodeFree is invoked when the host frees an inode.
func (m *Monitor) InodeFree(i *Inode) {
	if i == nil {
		return
	}
	m.rec.FreeNode(i.node)
	i.node = nil
}

// repairInode allocates i's node on demand. Permission-style hooks may
// run before inode_alloc_security for the same inode, so a missing node
// is repaired in place rather than treated as an error.
func (m *Monitor) repairInode(c *Cred, i *Inode) bool {
	if i.node != nil {
		return true
	}
	if err := m.allocInodeNode(c, i); err != nil {
		return false
	}
	return true
}

// InodePermission is invoked on every inode permission check. The
// requested intent decides the edge direction: writes and appends flow
// from the subject into the inode, reads and execs flow out of it.
// Recording is best-effort; the check itself always succeeds.
func (m *Monitor) InodePermission(c *Cred, i *Inode, intent Intent) error {
	if i == nil || i.Private {
		return nil
	}
	if !m.repairInode(c, i) {
		return nil
	}
	if intent.Has(MayWrite | MayAppend) {
		m.rec.RecordEdge(provenance.EdgeWrite, c.node, i.node, true)
	}
	if intent.Has(MayRead) {
		m.rec.RecordEdge(provenance.EdgeRead, i.node, c.node, true)
	}
	if intent.Has(MayExec) {
		m.rec.RecordEdge(provenance.EdgeExec, i.node, c.node, true)
	}
	return nil
}

// recordFileName emits the file's path once per inode lifetime. The
// winner of the name-recorded transition emits one long record and one
// named edge; every later call is a no-op, however many accesses the
// file sees.
func (m *Monitor) recordFileName(f *File) {
	i := f.Inode
	if i == nil || i.node == nil || i.node.NameRecorded() {
		return
	}
	l, err := m.rec.AllocLong(provenance.KindFileName)
	if err != nil {
		return
	}
	if !i.node.BeginNameRecord() {
		m.rec.FreeLong(l)
		return
	}
	l.FileName = f.Path
	m.rec.RecordLongEdge(provenance.EdgeNamed, i.node, l, true)
	m.rec.FreeLong(l)
}

// FileOpen is invoked when a file is opened: one open edge from the
// inode to the subject, plus the one-time name capture.
func (m *Monitor) FileOpen(c *Cred, f *File) error {
	if f == nil || f.Inode == nil {
		return nil
	}
	if !m.repairInode(c, f.Inode) {
		return nil
	}
	m.recordFileName(f)
	m.rec.RecordEdge(provenance.EdgeOpen, f.Inode.node, c.node, true)
	return nil
}

// FilePermission is invoked when an open file is read or written; it
// captures the name if still pending and defers to the inode permission
// edges.
func (m *Monitor) FilePermission(c *Cred, f *File, intent Intent) error {
	if f == nil || f.Inode == nil {
		return nil
	}
	if m.repairInode(c, f.Inode) {
		m.recordFileName(f)
	}
	return m.InodePermission(c, f.Inode, intent)
}

// MmapFile is invoked on mmap. A nil file is an anonymous mapping: no
// inode-backed node exists and nothing is recorded. Write or exec
// protection flows into the inode; any readable protection flows out
// (a writable shared mapping implies the mapper can also observe it).
func (m *Monitor) MmapFile(c *Cred, f *File, prot Intent) error {
	if f == nil || f.Inode == nil {
		return nil
	}
	if !m.repairInode(c, f.Inode) {
		return nil
	}
	m.recordFileName(f)
	if prot.Has(MayWrite | MayExec) {
		m.rec.RecordEdge(provenance.EdgeMmap, c.node, f.Inode.node, true)
	}
	if prot.Has(MayRead | MayWrite | MayExec) {
		m.rec.RecordEdge(provenance.EdgeMmap, f.Inode.node, c.node, true)
	}
	return nil
}

// FileIoctl is invoked on ioctl. The command and argument are opaque, so
// the exchange is modeled as bidirectional: a write into the inode and a
// read back out, each followed by a version bump of the receiving node.
func (m *Monitor) FileIoctl(c *Cred, f *File) error {
	if f == nil || f.Inode == nil {
		return nil
	}
	if !m.repairInode(c, f.Inode) {
		return nil
	}
	m.recordFileName(f)
	m.rec.RecordEdge(provenance.EdgeWrite, c.node, f.Inode.node, true)
	m.rec.UpdateVersion(f.Inode.node)
	m.rec.RecordEdge(provenance.EdgeRead, f.Inode.node, c.node, true)
	m.rec.UpdateVersion(c.node)
	return nil
}

// InodeLink is invoked when a hard link is created. The directory and
// the linked inode both receive data flows from the subject, and a
// link long record captures the new name with the identities involved.
func (m *Monitor) InodeLink(c *Cred, dir, target *Inode, name string) error {
	if dir == nil || target == nil {
		return nil
	}
	if !m.repairInode(c, dir) || !m.repairInode(c, target) {
		return nil
	}
	m.rec.RecordEdge(provenance.EdgeData, c.node, dir.node, true)
	m.rec.RecordEdge(provenance.EdgeData, c.node, target.node, true)
	l, err := m.rec.AllocLong(provenance.KindLink)
	if err != nil {
		return nil
	}
	l.Link = provenance.LinkMeta{
		Name:  name,
		Dir:   provenance.Endpoint{NodeID: dir.node.ID(), Version: dir.node.Version()},
		Task:  provenance.Endpoint{NodeID: c.node.ID(), Version: c.node.Version()},
		Inode: provenance.Endpoint{NodeID: target.node.ID(), Version: target.node.Version()},
	}
	m.rec.RecordLongEdge(provenance.EdgeNamed, target.node, l, true)
	m.rec.FreeLong(l)
	return nil
}
