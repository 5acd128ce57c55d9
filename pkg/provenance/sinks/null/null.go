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

// Package null defines a provenance.Sink that discards all records, akin
// to /dev/null.
package null

import (
	"camflow.dev/camflow/pkg/provenance"
)

const name = "null"

func init() {
	provenance.RegisterSink(provenance.SinkDesc{
		Name: name,
		New:  new,
	})
}

// null discards all records.
type null struct{}

var _ provenance.Sink = (*null)(nil)

func new(_ map[string]any) (provenance.Sink, error) {
	return &null{}, nil
}

// Name implements provenance.Sink.Name.
func (*null) Name() string {
	return name
}

// Write implements provenance.Sink.Write.
func (*null) Write(provenance.Message) error {
	return nil
}

// Close implements provenance.Sink.Close.
func (*null) Close() error {
	return nil
}
