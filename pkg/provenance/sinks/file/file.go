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

// Package file defines a provenance.Sink that appends records to a file
// as JSON lines. Each line is a self-describing envelope:
//
//	{"type":"edge","record":{...}}
package file

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"camflow.dev/camflow/pkg/provenance"
	"gvisor.dev/gvisor/pkg/sync"
)

const name = "file"

func init() {
	provenance.RegisterSink(provenance.SinkDesc{
		Name: name,
		New:  new,
	})
}

// envelope is the emitted wire form.
type envelope struct {
	Type   string             `json:"type"`
	Record provenance.Message `json:"record"`
}

// sink writes JSON-line envelopes to an io.Writer.
type sink struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

var _ provenance.Sink = (*sink)(nil)

func new(config map[string]any) (provenance.Sink, error) {
	pathOpaque, ok := config["path"]
	if !ok {
		return nil, fmt.Errorf("path not present in configuration")
	}
	path, ok := pathOpaque.(string)
	if !ok {
		return nil, fmt.Errorf("path %q is not a string", pathOpaque)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	return &sink{w: f, c: f}, nil
}

// NewWriter returns a file sink emitting to w, for embedders that manage
// the destination themselves.
func NewWriter(w io.Writer) provenance.Sink {
	return &sink{w: w}
}

// Name implements provenance.Sink.Name.
func (*sink) Name() string {
	return name
}

// Write implements provenance.Sink.Write.
func (s *sink) Write(m provenance.Message) error {
	line, err := json.Marshal(envelope{
		Type:   m.MessageType().String(),
		Record: m,
	})
	if err != nil {
		return err
	}
	line = append(line, '\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(line)
	return err
}

// Close implements provenance.Sink.Close.
func (s *sink) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}
