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

// Package hooks is the mediation layer between a host kernel's object
// lifecycle and the IFC and provenance subsystems.
//
// The host invokes one hook, synchronously, for every mediated
// operation: credential allocation and duplication, inode and file
// access, IPC, sockets and exec. Hooks translate host objects into
// provenance nodes, repair nodes that are missing (a permission check
// may race ahead of the allocation hook), and record the edges implied
// by the operation's direction. Hooks never block, and with one
// exception never fail the mediated operation: credential allocation
// propagates resource exhaustion, because a credential without a
// security context is not allowed to exist.
//
// Host objects are represented by wrapper types owned by this package
// (Cred, Inode, File, Msg, Shm, Sock, Superblock); the embedder creates
// them through the allocation hooks and destroys them through the free
// hooks, mirroring its own object lifecycle.
package hooks

import (
	"camflow.dev/camflow/pkg/ifc"
	"camflow.dev/camflow/pkg/provenance"
)

// Options configures a Monitor.
type Options struct {
	// EnableIFC attaches an information flow control context to every
	// credential. When false, provenance still records but no object is
	// ever labelled or tracked.
	EnableIFC bool
}

// A Monitor holds the state shared by all hooks: the provenance
// recorder and the IFC configuration. All hooks are safe for concurrent
// use under the host's own per-object serialization.
type Monitor struct {
	rec  *provenance.Recorder
	opts Options
}

// New creates a Monitor recording through rec.
func New(rec *provenance.Recorder, opts Options) *Monitor {
	return &Monitor{rec: rec, opts: opts}
}

// Recorder returns the monitor's recorder.
func (m *Monitor) Recorder() *provenance.Recorder {
	return m.rec
}

// contextLabel converts an IFC context into a provenance label snapshot.
func contextLabel(ctx *ifc.Context) (provenance.Label, bool) {
	if ctx == nil || !ctx.IsLabelled() {
		return provenance.Label{}, false
	}
	snap := ctx.Snapshot()
	return provenance.Label{Secrecy: snap.Secrecy, Integrity: snap.Integrity}, true
}
