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

// A Label is a point-in-time snapshot of an object's information flow
// control label. The provenance layer treats it as opaque data to stamp
// on node records.
type Label struct {
	Secrecy   []uint64 `json:"secrecy,omitempty"`
	Integrity []uint64 `json:"integrity,omitempty"`
}

// Empty returns true if the label carries no tags.
func (l Label) Empty() bool {
	return len(l.Secrecy) == 0 && len(l.Integrity) == 0
}

// A LabelProvider is implemented by host objects that may carry an IFC
// label. Provenance consults it exactly once, at node allocation, to
// decide whether the node is tracked and to snapshot the label into the
// node's metadata. A host without IFC simply never supplies a provider.
type LabelProvider interface {
	// ProvenanceLabel returns the object's current label and true, or
	// false if the object is unlabelled.
	ProvenanceLabel() (Label, bool)
}
