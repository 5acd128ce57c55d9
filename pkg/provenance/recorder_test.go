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
	"testing"

	"gvisor.dev/gvisor/pkg/errors/linuxerr"
	"gvisor.dev/gvisor/pkg/sync"
)

// captured is one record, snapshotted at Write time. Write must not
// retain the message itself, since node records return to the arena.
type captured struct {
	typ  MessageType
	data []byte
}

// testSink records everything written to it.
type testSink struct {
	mu   sync.Mutex
	msgs []captured
}

// Name implements Sink.Name.
func (*testSink) Name() string { return "test" }

// Write implements Sink.Write.
func (s *testSink) Write(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, captured{typ: m.MessageType(), data: data})
	return nil
}

// Close implements Sink.Close.
func (*testSink) Close() error { return nil }

func (s *testSink) count(typ MessageType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.msgs {
		if m.typ == typ {
			n++
		}
	}
	return n
}

func (s *testSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

// edgeJSON mirrors the emitted edge form for decoding in tests.
type edgeJSON struct {
	Type string `json:"type"`
	From struct {
		ID      uint64 `json:"id"`
		Version uint32 `json:"version"`
	} `json:"from"`
	To struct {
		ID      uint64 `json:"id"`
		Version uint32 `json:"version"`
	} `json:"to"`
	Allowed bool `json:"allowed"`
}

func (s *testSink) edges(t *testing.T) []edgeJSON {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []edgeJSON
	for _, m := range s.msgs {
		if m.typ != MessageEdge {
			continue
		}
		var e edgeJSON
		if err := json.Unmarshal(m.data, &e); err != nil {
			t.Fatalf("decoding edge %s: %v", m.data, err)
		}
		out = append(out, e)
	}
	return out
}

func newTestRecorder(t *testing.T) (*Recorder, *testSink) {
	t.Helper()
	s := &testSink{}
	return New(Options{Sink: s, MachineID: 7}), s
}

func TestAllocNodeUniqueIDs(t *testing.T) {
	r, _ := newTestRecorder(t)
	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		n, err := r.AllocNode(KindTask)
		if err != nil {
			t.Fatalf("AllocNode: %v", err)
		}
		id := n.ID()
		if id.ID == 0 {
			t.Fatal("node identifier is zero")
		}
		if seen[id.ID] {
			t.Fatalf("identifier %d issued twice", id.ID)
		}
		if id.Machine != 7 {
			t.Errorf("machine id = %d, want 7", id.Machine)
		}
		if id.Boot != r.BootID() {
			t.Errorf("boot id = %d, want %d", id.Boot, r.BootID())
		}
		seen[id.ID] = true
	}
}

func TestAllocNodeRejectsLongKinds(t *testing.T) {
	r, _ := newTestRecorder(t)
	for _, kind := range []Kind{KindFileName, KindAddress, KindLink} {
		if _, err := r.AllocNode(kind); err != linuxerr.EINVAL {
			t.Errorf("AllocNode(%v) = %v, want EINVAL", kind, err)
		}
	}
	if _, err := r.AllocLong(KindTask); err != linuxerr.EINVAL {
		t.Errorf("AllocLong(KindTask) = %v, want EINVAL", err)
	}
}

func TestArenaExhaustion(t *testing.T) {
	s := &testSink{}
	r := New(Options{Sink: s, MaxRecords: 2, MaxLongRecords: 1})

	a, err := r.AllocNode(KindTask)
	if err != nil {
		t.Fatalf("AllocNode #1: %v", err)
	}
	if _, err := r.AllocNode(KindTask); err != nil {
		t.Fatalf("AllocNode #2: %v", err)
	}
	if _, err := r.AllocNode(KindTask); err != linuxerr.ENOMEM {
		t.Fatalf("AllocNode #3 = %v, want ENOMEM", err)
	}

	// Freeing makes room again.
	r.FreeNode(a)
	if _, err := r.AllocNode(KindTask); err != nil {
		t.Fatalf("AllocNode after free: %v", err)
	}

	l, err := r.AllocLong(KindFileName)
	if err != nil {
		t.Fatalf("AllocLong: %v", err)
	}
	if _, err := r.AllocLong(KindAddress); err != linuxerr.ENOMEM {
		t.Fatalf("AllocLong #2 = %v, want ENOMEM", err)
	}
	r.FreeLong(l)
	if _, err := r.AllocLong(KindAddress); err != nil {
		t.Fatalf("AllocLong after free: %v", err)
	}
}

func TestFreeNodeIdempotent(t *testing.T) {
	r := New(Options{MaxRecords: 4})

	n, err := r.AllocNode(KindTask)
	if err != nil {
		t.Fatalf("AllocNode: %v", err)
	}
	r.FreeNode(n)
	r.FreeNode(n)
	r.FreeNode(nil)

	// A double free must not corrupt the arena accounting.
	for i := 0; i < 4; i++ {
		if _, err := r.AllocNode(KindTask); err != nil {
			t.Fatalf("AllocNode #%d after double free: %v", i, err)
		}
	}
	if _, err := r.AllocNode(KindTask); err != linuxerr.ENOMEM {
		t.Fatalf("AllocNode beyond bound = %v, want ENOMEM", err)
	}
}

func TestRecordEdgeEmitsNodesOnce(t *testing.T) {
	r, s := newTestRecorder(t)
	a, _ := r.AllocNode(KindTask)
	b, _ := r.AllocNode(KindInode)

	r.RecordEdge(EdgeWrite, a, b, true)
	r.RecordEdge(EdgeRead, b, a, true)

	if got := s.count(MessageNode); got != 2 {
		t.Errorf("node snapshots emitted = %d, want 2", got)
	}
	if got := s.count(MessageEdge); got != 2 {
		t.Errorf("edges emitted = %d, want 2", got)
	}
}

func TestRecordEdgeDropsDeadEndpoints(t *testing.T) {
	r, s := newTestRecorder(t)
	a, _ := r.AllocNode(KindTask)
	b, _ := r.AllocNode(KindInode)

	r.RecordEdge(EdgeRead, nil, a, true)
	r.RecordEdge(EdgeRead, a, nil, true)
	r.FreeNode(b)
	r.RecordEdge(EdgeRead, a, b, true)

	if got := s.len(); got != 0 {
		t.Errorf("records emitted for dead endpoints = %d, want 0", got)
	}
}

func TestUpdateVersionStampsEndpoints(t *testing.T) {
	r, s := newTestRecorder(t)
	a, _ := r.AllocNode(KindTask)
	b, _ := r.AllocNode(KindInode)

	r.RecordEdge(EdgeWrite, a, b, true)
	r.UpdateVersion(b)
	r.RecordEdge(EdgeRead, b, a, true)

	edges := s.edges(t)
	if len(edges) != 2 {
		t.Fatalf("edges emitted = %d, want 2", len(edges))
	}
	if got := edges[0].To.Version; got != 0 {
		t.Errorf("first edge saw version %d, want 0", got)
	}
	if got := edges[1].From.Version; got != 1 {
		t.Errorf("second edge saw version %d, want 1", got)
	}
	if b.Version() != 1 {
		t.Errorf("Version() = %d, want 1", b.Version())
	}
}

func TestImportLabel(t *testing.T) {
	r, _ := newTestRecorder(t)

	n, _ := r.AllocNode(KindTask)
	r.ImportLabel(n, labelFunc(func() (Label, bool) {
		return Label{Secrecy: []uint64{5}}, true
	}))
	if !n.Tracked() {
		t.Error("labelled node not tracked")
	}
	if got := n.Label().Secrecy; len(got) != 1 || got[0] != 5 {
		t.Errorf("label secrecy = %v, want [5]", got)
	}

	m, _ := r.AllocNode(KindTask)
	r.ImportLabel(m, labelFunc(func() (Label, bool) {
		return Label{}, false
	}))
	if m.Tracked() {
		t.Error("unlabelled node marked tracked")
	}
	r.ImportLabel(m, nil)
}

// labelFunc adapts a function to LabelProvider.
type labelFunc func() (Label, bool)

// ProvenanceLabel implements LabelProvider.ProvenanceLabel.
func (f labelFunc) ProvenanceLabel() (Label, bool) { return f() }

func TestBeginNameRecordOnce(t *testing.T) {
	r, _ := newTestRecorder(t)
	n, _ := r.AllocNode(KindInode)
	if !n.BeginNameRecord() {
		t.Fatal("first BeginNameRecord lost")
	}
	if n.BeginNameRecord() {
		t.Error("second BeginNameRecord won")
	}
	if !n.NameRecorded() {
		t.Error("NameRecorded() = false after transition")
	}
}

func TestRecordLongEdge(t *testing.T) {
	r, s := newTestRecorder(t)
	n, _ := r.AllocNode(KindInode)
	l, err := r.AllocLong(KindFileName)
	if err != nil {
		t.Fatalf("AllocLong: %v", err)
	}
	l.FileName = "/etc/passwd"
	r.RecordLongEdge(EdgeNamed, n, l, true)
	r.FreeLong(l)

	if got := s.count(MessageNode); got != 1 {
		t.Errorf("node snapshots = %d, want 1", got)
	}
	if got := s.count(MessageLong); got != 1 {
		t.Errorf("long records = %d, want 1", got)
	}
	edges := s.edges(t)
	if len(edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(edges))
	}
	if edges[0].Type != "named" {
		t.Errorf("edge type = %q, want %q", edges[0].Type, "named")
	}
	if edges[0].From.ID != n.ID().ID {
		t.Errorf("edge from node %d, want %d", edges[0].From.ID, n.ID().ID)
	}
}

func TestTransferFrom(t *testing.T) {
	r, _ := newTestRecorder(t)
	src, _ := r.AllocNode(KindTask)
	src.Task = TaskMeta{UID: 1000, GID: 1000}
	r.UpdateVersion(src)
	r.ImportLabel(src, labelFunc(func() (Label, bool) {
		return Label{Integrity: []uint64{9}}, true
	}))

	dst, _ := r.AllocNode(KindTask)
	dst.TransferFrom(src)
	if dst.ID() != src.ID() {
		t.Errorf("TransferFrom id = %v, want %v", dst.ID(), src.ID())
	}
	if dst.Version() != src.Version() {
		t.Errorf("TransferFrom version = %d, want %d", dst.Version(), src.Version())
	}
	if !dst.Tracked() {
		t.Error("TransferFrom dropped the tracked flag")
	}
	if dst.Task != src.Task {
		t.Errorf("TransferFrom meta = %+v, want %+v", dst.Task, src.Task)
	}
}

func TestSinkFailureSwallowed(t *testing.T) {
	r := New(Options{Sink: failSink{}})
	a, _ := r.AllocNode(KindTask)
	b, _ := r.AllocNode(KindInode)
	// Must not panic or propagate.
	r.RecordEdge(EdgeRead, b, a, true)
}

type failSink struct{}

// Name implements Sink.Name.
func (failSink) Name() string { return "fail" }

// Write implements Sink.Write.
func (failSink) Write(Message) error { return linuxerr.EAGAIN }

// Close implements Sink.Close.
func (failSink) Close() error { return nil }

func TestCreateSinkUnregistered(t *testing.T) {
	if _, err := CreateSink(SinkConfig{Name: "no-such-sink"}); err == nil {
		t.Error("CreateSink of unregistered name succeeded")
	}
}

func init() {
	RegisterSink(SinkDesc{
		Name: "capture",
		New: func(map[string]any) (Sink, error) {
			return &testSink{}, nil
		},
	})
}

func TestCreateSession(t *testing.T) {
	s, err := CreateSession(SessionConfig{
		Name: "test",
		Sinks: []SinkConfig{
			{Name: "capture"},
			{Name: "capture"},
		},
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	defer s.Close()

	ms, ok := s.(*multiSink)
	if !ok {
		t.Fatalf("CreateSession returned %T, want *multiSink", s)
	}
	if err := s.Write(&Edge{Type: EdgeRead, Allowed: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for i, sink := range ms.sinks {
		if got := sink.(*testSink).count(MessageEdge); got != 1 {
			t.Errorf("sink %d received %d edges, want 1", i, got)
		}
	}
}

func TestCreateSessionEmpty(t *testing.T) {
	s, err := CreateSession(SessionConfig{})
	if err != nil {
		t.Fatalf("CreateSession(empty): %v", err)
	}
	if s != nil {
		t.Errorf("empty session = %v, want nil", s)
	}
}

func TestCreateSessionUnknownSink(t *testing.T) {
	_, err := CreateSession(SessionConfig{
		Sinks: []SinkConfig{{Name: "capture"}, {Name: "no-such-sink"}},
	})
	if err == nil {
		t.Error("session with an unregistered sink succeeded")
	}
}
