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
	"bytes"
	"testing"
)

func mustSock(t *testing.T, m *Monitor) *Sock {
	t.Helper()
	sk, err := m.SockAlloc()
	if err != nil {
		t.Fatalf("SockAlloc: %v", err)
	}
	return sk
}

func TestBindThenConnectAddressOnce(t *testing.T) {
	m, s := newTestMonitor(t, true)
	p := mustCred(t, m, 1000, 1000)
	sk := mustSock(t, m)
	if err := m.SocketPostCreate(p, sk, nil, 2, 1, 6, false); err != nil {
		t.Fatalf("SocketPostCreate: %v", err)
	}

	bindAddr := []byte{0x02, 0x00, 0x1f, 0x90}
	connAddr := []byte{0x02, 0x00, 0x00, 0x50}
	if err := m.SocketBind(p, sk, bindAddr); err != nil {
		t.Fatalf("SocketBind: %v", err)
	}
	if err := m.SocketConnect(p, sk, connAddr); err != nil {
		t.Fatalf("SocketConnect: %v", err)
	}

	// One address record per socket lifetime: whichever of bind or
	// connect runs first wins.
	longs := s.longs(t)
	if len(longs) != 1 {
		t.Fatalf("address records = %d, want 1", len(longs))
	}
	if longs[0].Kind != "address" || !bytes.Equal(longs[0].Address, bindAddr) {
		t.Errorf("address record = %+v, want bind address %v", longs[0], bindAddr)
	}

	edges := s.edges(t)
	if got := len(edgesOfType(edges, "bind")); got != 1 {
		t.Errorf("bind edges = %d, want 1", got)
	}
	if got := len(edgesOfType(edges, "connect")); got != 1 {
		t.Errorf("connect edges = %d, want 1", got)
	}
	if got := len(edgesOfType(edges, "named")); got != 1 {
		t.Errorf("named edges = %d, want 1", got)
	}

	// The untracked socket still has its address captured.
	if sk.Node().Tracked() {
		t.Error("unlabelled socket node tracked")
	}
	if !sk.Node().NameRecorded() {
		t.Error("socket address not marked recorded")
	}
}

func TestOpaqueSubjectRecordsNothing(t *testing.T) {
	m, s := newTestMonitor(t, true)
	p := mustCred(t, m, 1000, 1000)
	sk := mustSock(t, m)
	if err := m.SocketPostCreate(p, sk, nil, 2, 2, 17, false); err != nil {
		t.Fatalf("SocketPostCreate: %v", err)
	}

	p.SetOpaque(true)
	before := s.len()
	if err := m.SocketBind(p, sk, []byte{0x02, 0x00}); err != nil {
		t.Fatalf("SocketBind: %v", err)
	}
	if err := m.SocketConnect(p, sk, []byte{0x02, 0x01}); err != nil {
		t.Fatalf("SocketConnect: %v", err)
	}
	if s.len() != before {
		t.Error("opaque subject's socket operations emitted records")
	}
	if sk.Node().NameRecorded() {
		t.Error("opaque subject's bind captured the address")
	}

	// Dropping opacity restores capture.
	p.SetOpaque(false)
	if err := m.SocketBind(p, sk, []byte{0x02, 0x00}); err != nil {
		t.Fatalf("SocketBind after unsetting opaque: %v", err)
	}
	if s.len() == before {
		t.Error("capture did not resume after opacity was cleared")
	}
}

func TestKernSocketBypass(t *testing.T) {
	m, s := newTestMonitor(t, false)
	p := mustCred(t, m, 0, 0)
	sk := mustSock(t, m)

	before := s.len()
	if err := m.SocketPostCreate(p, sk, nil, 1, 1, 0, true); err != nil {
		t.Fatalf("SocketPostCreate(kern): %v", err)
	}
	if err := m.SocketBind(p, sk, []byte{0x01}); err != nil {
		t.Fatalf("SocketBind: %v", err)
	}
	if err := m.SocketListen(p, sk); err != nil {
		t.Fatalf("SocketListen: %v", err)
	}
	if err := m.SocketSendmsg(p, sk); err != nil {
		t.Fatalf("SocketSendmsg: %v", err)
	}
	if err := m.SocketRecvmsg(p, sk); err != nil {
		t.Fatalf("SocketRecvmsg: %v", err)
	}
	if s.len() != before {
		t.Error("kernel socket operations emitted records")
	}
}

func TestSocketListenAccept(t *testing.T) {
	m, s := newTestMonitor(t, false)
	p := mustCred(t, m, 0, 0)
	sk := mustSock(t, m)
	if err := m.SocketPostCreate(p, sk, nil, 2, 1, 6, false); err != nil {
		t.Fatalf("SocketPostCreate: %v", err)
	}
	if err := m.SocketListen(p, sk); err != nil {
		t.Fatalf("SocketListen: %v", err)
	}

	newsk := mustSock(t, m)
	if err := m.SocketAccept(p, sk, newsk); err != nil {
		t.Fatalf("SocketAccept: %v", err)
	}

	edges := s.edges(t)
	if got := len(edgesOfType(edges, "listen")); got != 1 {
		t.Errorf("listen edges = %d, want 1", got)
	}
	accepts := edgesOfType(edges, "accept")
	if len(accepts) != 1 {
		t.Fatalf("accept edges = %d, want 1", len(accepts))
	}
	if accepts[0].From.ID != newsk.Node().ID().ID || accepts[0].To.ID != p.Node().ID().ID {
		t.Error("accept edge does not run new socket -> subject")
	}

	// The listening socket creates the accepted one.
	var created bool
	for _, e := range edgesOfType(edges, "create") {
		if e.From.ID == sk.Node().ID().ID && e.To.ID == newsk.Node().ID().ID {
			created = true
		}
	}
	if !created {
		t.Error("missing create edge listening socket -> accepted socket")
	}
}

func TestSocketSendRecvUseInode(t *testing.T) {
	m, s := newTestMonitor(t, false)
	p := mustCred(t, m, 0, 0)
	i, err := m.InodeAlloc(p, nil, 77, 0, 0, 0600, nil)
	if err != nil {
		t.Fatalf("InodeAlloc: %v", err)
	}
	sk := mustSock(t, m)
	if err := m.SocketPostCreate(p, sk, i, 2, 1, 6, false); err != nil {
		t.Fatalf("SocketPostCreate: %v", err)
	}

	if err := m.SocketSendmsg(p, sk); err != nil {
		t.Fatalf("SocketSendmsg: %v", err)
	}
	if err := m.SocketRecvmsg(p, sk); err != nil {
		t.Fatalf("SocketRecvmsg: %v", err)
	}

	edges := s.edges(t)
	writes := edgesOfType(edges, "write")
	reads := edgesOfType(edges, "read")
	if len(writes) != 1 || writes[0].To.ID != 77 {
		t.Errorf("sendmsg did not write into the backing inode: %+v", writes)
	}
	if len(reads) != 1 || reads[0].From.ID != 77 {
		t.Errorf("recvmsg did not read from the backing inode: %+v", reads)
	}

	// The socket is associated with its backing inode at creation.
	if got := len(edgesOfType(edges, "associate")); got != 1 {
		t.Errorf("associate edges = %d, want 1", got)
	}
}

func TestUnixStreamConnect(t *testing.T) {
	m, s := newTestMonitor(t, false)
	p := mustCred(t, m, 0, 0)
	sk := mustSock(t, m)
	other := mustSock(t, m)
	newsk := mustSock(t, m)

	if err := m.UnixStreamConnect(p, sk, other, newsk); err != nil {
		t.Fatalf("UnixStreamConnect: %v", err)
	}
	edges := s.edges(t)
	if got := len(edgesOfType(edges, "connect")); got != 1 {
		t.Errorf("connect edges = %d, want 1", got)
	}
	if got := len(edgesOfType(edges, "associate")); got != 2 {
		t.Errorf("associate edges = %d, want 2", got)
	}
}

func TestUnixMaySend(t *testing.T) {
	m, s := newTestMonitor(t, false)
	sk := mustSock(t, m)
	other := mustSock(t, m)
	if err := m.UnixMaySend(sk, other); err != nil {
		t.Fatalf("UnixMaySend: %v", err)
	}
	unknowns := edgesOfType(s.edges(t), "unknown")
	if len(unknowns) != 1 {
		t.Fatalf("unknown edges = %d, want 1", len(unknowns))
	}
	if unknowns[0].From.ID != sk.Node().ID().ID || unknowns[0].To.ID != other.Node().ID().ID {
		t.Error("datagram edge does not run sender -> receiver")
	}
}
