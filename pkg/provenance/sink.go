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
	"fmt"

	"gvisor.dev/gvisor/pkg/sync"
)

// MessageType discriminates the records a sink receives.
type MessageType int

const (
	// MessageNode is a node snapshot.
	MessageNode MessageType = iota + 1

	// MessageEdge is an edge.
	MessageEdge

	// MessageLong is a long-form auxiliary record.
	MessageLong
)

// String implements fmt.Stringer.String.
func (t MessageType) String() string {
	switch t {
	case MessageNode:
		return "node"
	case MessageEdge:
		return "edge"
	case MessageLong:
		return "long"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// A Message is one finished record: a node snapshot, an edge or a
// long-form record. All messages marshal to JSON.
type Message interface {
	// MessageType identifies the concrete record type.
	MessageType() MessageType
}

// A Sink accepts finished records for durable emission. Write must not
// retain m after it returns; the record's resources may be released
// immediately. Emission is fire-and-forget: the recorder logs and
// swallows sink errors, so a failing sink can never fail the mediated
// operation that triggered recording.
//
// Write may be called concurrently.
type Sink interface {
	// Name identifies the sink for configuration and diagnostics.
	Name() string

	// Write emits one record.
	Write(m Message) error

	// Close releases the sink's resources.
	Close() error
}

// SinkDesc describes a registered sink implementation.
type SinkDesc struct {
	// Name is the unique name the sink is configured by.
	Name string

	// New creates an instance of the sink from its configuration.
	New func(config map[string]any) (Sink, error)
}

var (
	sinksMu sync.Mutex
	sinks   = make(map[string]SinkDesc)
)

// RegisterSink makes a sink implementation available to configuration.
// It panics if the name is already taken; registration happens from
// init functions.
func RegisterSink(desc SinkDesc) {
	sinksMu.Lock()
	defer sinksMu.Unlock()
	if _, ok := sinks[desc.Name]; ok {
		panic(fmt.Sprintf("sink %q registered twice", desc.Name))
	}
	sinks[desc.Name] = desc
}

// SinkConfig selects and configures one registered sink.
type SinkConfig struct {
	Name   string         `json:"name,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// SessionConfig configures a recording session: the set of sinks the
// recorder emits to.
type SessionConfig struct {
	Name  string       `json:"name,omitempty"`
	Sinks []SinkConfig `json:"sinks,omitempty"`
}

// CreateSink instantiates the sink named by config.
func CreateSink(config SinkConfig) (Sink, error) {
	sinksMu.Lock()
	desc, ok := sinks[config.Name]
	sinksMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sink %q not registered", config.Name)
	}
	return desc.New(config.Config)
}

// multiSink fans every record out to all of a session's sinks.
type multiSink struct {
	sinks []Sink
}

// Name implements Sink.Name.
func (*multiSink) Name() string { return "session" }

// Write implements Sink.Write.
func (s *multiSink) Write(m Message) error {
	var first error
	for _, sink := range s.sinks {
		if err := sink.Write(m); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close implements Sink.Close.
func (s *multiSink) Close() error {
	var first error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CreateSession instantiates every sink config names and returns one
// Sink fanning records out to all of them. An empty session returns nil,
// which the recorder treats as discard.
func CreateSession(config SessionConfig) (Sink, error) {
	if len(config.Sinks) == 0 {
		return nil, nil
	}
	if len(config.Sinks) == 1 {
		return CreateSink(config.Sinks[0])
	}
	ms := &multiSink{}
	for _, sc := range config.Sinks {
		s, err := CreateSink(sc)
		if err != nil {
			ms.Close()
			return nil, fmt.Errorf("session %q: %w", config.Name, err)
		}
		ms.sinks = append(ms.sinks, s)
	}
	return ms, nil
}
