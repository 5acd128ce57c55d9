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

// Package remote defines a provenance.Sink that serializes records to a
// remote process over a SOCK_SEQPACKET Unix-domain socket. Each message
// is one JSON-serialized record preceded by a wire.Header. If a record
// cannot be sent, e.g. the buffer is full, it is dropped on the floor to
// avoid delaying the mediated operation; the drop count is reported in
// the next header.
package remote

import (
	"encoding/json"
	"fmt"

	"camflow.dev/camflow/pkg/provenance"
	"camflow.dev/camflow/pkg/provenance/sinks/remote/wire"
	"golang.org/x/sys/unix"
	"gvisor.dev/gvisor/pkg/atomicbitops"
	"gvisor.dev/gvisor/pkg/log"
)

const name = "remote"

func init() {
	provenance.RegisterSink(provenance.SinkDesc{
		Name: name,
		New:  new,
	})
}

// sink sends framed records to a connected seqpacket socket.
type sink struct {
	fd           int
	droppedCount atomicbitops.Uint32
}

var _ provenance.Sink = (*sink)(nil)

func new(config map[string]any) (provenance.Sink, error) {
	addrOpaque, ok := config["endpoint"]
	if !ok {
		return nil, fmt.Errorf("endpoint not present in configuration")
	}
	addr, ok := addrOpaque.(string)
	if !ok {
		return nil, fmt.Errorf("endpoint %q is not a string", addrOpaque)
	}
	return Connect(addr)
}

// Connect dials the remote endpoint at path.
func Connect(path string) (provenance.Sink, error) {
	log.Debugf("Remote sink connecting to %q", path)
	socket, err := unix.Socket(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("socket(AF_UNIX, SOCK_SEQPACKET, 0): %w", err)
	}
	addr := unix.SockaddrUnix{Name: path}
	if err := unix.Connect(socket, &addr); err != nil {
		unix.Close(socket)
		return nil, fmt.Errorf("connect(%q): %w", path, err)
	}
	return &sink{fd: socket}, nil
}

// Name implements provenance.Sink.Name.
func (*sink) Name() string {
	return name
}

// Write implements provenance.Sink.Write.
func (s *sink) Write(m provenance.Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	hdr := wire.Header{
		HeaderSize:   wire.HeaderStructSize,
		MessageType:  uint16(m.MessageType()),
		DroppedCount: s.droppedCount.Load(),
	}
	msg := hdr.Encode(make([]byte, 0, wire.HeaderStructSize+len(payload)))
	msg = append(msg, payload...)
	if _, err := unix.Write(s.fd, msg); err != nil {
		// The record is dropped; the count reaches the remote in the
		// next successful header.
		s.droppedCount.Add(1)
		return fmt.Errorf("write: %w", err)
	}
	s.droppedCount.Store(0)
	return nil
}

// Close implements provenance.Sink.Close.
func (s *sink) Close() error {
	return unix.Close(s.fd)
}
