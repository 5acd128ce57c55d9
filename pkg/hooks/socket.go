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
	"camflow.dev/camflow/pkg/provenance"
)

// A Sock is the security state attached to one host socket.
type Sock struct {
	// Family, Type and Protocol are unknown at allocation and filled in
	// by SocketPostCreate.
	Family   int32
	Type     int32
	Protocol int32

	// kern marks kernel-internal sockets, which bypass capture
	// entirely.
	kern bool

	inode *Inode
	node  *provenance.Record
}

// Node returns the socket node.
func (sk *Sock) Node() *provenance.Record {
	return sk.node
}

// Inode returns the socket's backing inode, if associated.
func (sk *Sock) Inode() *Inode {
	return sk.inode
}

// SockAlloc is invoked when the host allocates a socket. The socket's
// identity exists before its family or protocol are known.
func (m *Monitor) SockAlloc() (*Sock, error) {
	n, err := m.rec.AllocNode(provenance.KindSock)
	if err != nil {
		return nil, err
	}
	return &Sock{node: n}, nil
}

// SockFree is invoked when the host frees a socket.
func (m *Monitor) SockFree(sk *Sock) {
	if sk == nil {
		return
	}
	m.rec.FreeNode(sk.node)
	sk.node = nil
}

// repairSock allocates sk's node on demand, mirroring the inode repair
// discipline.
func (m *Monitor) repairSock(sk *Sock) bool {
	if sk.node != nil {
		return true
	}
	n, err := m.rec.AllocNode(provenance.KindSock)
	if err != nil {
		return false
	}
	sk.node = n
	return true
}

// SocketPostCreate is invoked once the host has created a socket and
// knows its family, type and protocol; the metadata missing at
// allocation is filled in here. Kernel-internal sockets are flagged and
// bypass capture from this point on. inode is the socket's backing
// inode.
func (m *Monitor) SocketPostCreate(c *Cred, sk *Sock, inode *Inode, family, typ, protocol int32, kern bool) error {
	if kern {
		sk.kern = true
		return nil
	}
	if !m.repairSock(sk) {
		return nil
	}
	sk.Family = family
	sk.Type = typ
	sk.Protocol = protocol
	sk.inode = inode
	sk.node.Sock = provenance.SockMeta{Family: family, Type: typ, Protocol: protocol}
	m.rec.RecordEdge(provenance.EdgeCreate, c.node, sk.node, true)
	if inode != nil && inode.node != nil {
		m.rec.RecordEdge(provenance.EdgeAssociate, sk.node, inode.node, true)
	}
	return nil
}

// recordAddress emits the socket's address once per socket lifetime,
// on whichever of bind or connect happens first.
func (m *Monitor) recordAddress(sk *Sock, address []byte) {
	if sk.node == nil || sk.node.NameRecorded() {
		return
	}
	l, err := m.rec.AllocLong(provenance.KindAddress)
	if err != nil {
		return
	}
	if !sk.node.BeginNameRecord() {
		m.rec.FreeLong(l)
		return
	}
	l.Address = append(l.Address, address...)
	m.rec.RecordLongEdge(provenance.EdgeNamed, sk.node, l, true)
	m.rec.FreeLong(l)
}

// SocketBind is invoked before a socket is bound. An opaque subject
// records nothing at all, and the operation still succeeds.
func (m *Monitor) SocketBind(c *Cred, sk *Sock, address []byte) error {
	if sk.kern || c.opaque() {
		return nil
	}
	if !m.repairSock(sk) {
		return nil
	}
	m.recordAddress(sk, address)
	m.rec.RecordEdge(provenance.EdgeBind, c.node, sk.node, true)
	return nil
}

// SocketConnect is invoked before a socket connects to a remote
// address. Same opacity and address-capture discipline as bind.
func (m *Monitor) SocketConnect(c *Cred, sk *Sock, address []byte) error {
	if sk.kern || c.opaque() {
		return nil
	}
	if !m.repairSock(sk) {
		return nil
	}
	m.recordAddress(sk, address)
	m.rec.RecordEdge(provenance.EdgeConnect, c.node, sk.node, true)
	return nil
}

// SocketListen is invoked before a socket is marked listening.
func (m *Monitor) SocketListen(c *Cred, sk *Sock) error {
	if sk.kern {
		return nil
	}
	m.rec.RecordEdge(provenance.EdgeListen, c.node, sk.node, true)
	return nil
}

// SocketSendmsg is invoked before a message is transmitted: a write
// through the socket's backing inode.
func (m *Monitor) SocketSendmsg(c *Cred, sk *Sock) error {
	if sk.kern {
		return nil
	}
	return m.InodePermission(c, sk.inode, MayWrite)
}

// SocketRecvmsg is invoked before a message is received: a read through
// the socket's backing inode.
func (m *Monitor) SocketRecvmsg(c *Cred, sk *Sock) error {
	if sk.kern {
		return nil
	}
	return m.InodePermission(c, sk.inode, MayRead)
}

// SocketAccept is invoked before a connection is accepted: the
// listening socket creates the new socket, and the new socket flows to
// the accepting subject.
func (m *Monitor) SocketAccept(c *Cred, sk, newsk *Sock) error {
	if sk.kern {
		return nil
	}
	if !m.repairSock(sk) || !m.repairSock(newsk) {
		return nil
	}
	m.rec.RecordEdge(provenance.EdgeCreate, sk.node, newsk.node, true)
	m.rec.RecordEdge(provenance.EdgeAccept, newsk.node, c.node, true)
	return nil
}

// UnixStreamConnect is invoked when a Unix stream connection is
// established between sk and other, with newsk the server-side socket
// created for it.
func (m *Monitor) UnixStreamConnect(c *Cred, sk, other, newsk *Sock) error {
	m.rec.RecordEdge(provenance.EdgeConnect, c.node, sk.node, true)
	m.rec.RecordEdge(provenance.EdgeAssociate, sk.node, newsk.node, true)
	m.rec.RecordEdge(provenance.EdgeAssociate, sk.node, other.node, true)
	return nil
}

// UnixMaySend is invoked before a datagram is sent from sk to other.
// The flow direction is known but its class is not.
func (m *Monitor) UnixMaySend(sk, other *Sock) error {
	m.rec.RecordEdge(provenance.EdgeUnknown, sk.node, other.node, true)
	return nil
}
