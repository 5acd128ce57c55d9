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

package ifc

import (
	"gvisor.dev/gvisor/pkg/errors/linuxerr"
)

// MaxSetSize is the capacity of a TagSet. Tag sets annotate every
// credential in the system, so they are kept small and inline.
const MaxSetSize = 32

// A TagSet is a bounded, unordered, duplicate-free collection of tags.
//
// TagSet has value semantics: assignment produces an independent copy, which
// is what credential duplication relies on. The zero value is an empty set.
type TagSet struct {
	tags [MaxSetSize]Tag
	size int
}

// Len returns the number of tags in the set.
func (s *TagSet) Len() int {
	return s.size
}

// Contains returns true if t is a member of the set.
func (s *TagSet) Contains(t Tag) bool {
	for i := 0; i < s.size; i++ {
		if s.tags[i] == t {
			return true
		}
	}
	return false
}

// Add inserts t if absent. It returns linuxerr.EINVAL if t is the invalid
// sentinel and linuxerr.ENOMEM if the set is full; inserting a tag that is
// already present succeeds without effect.
func (s *TagSet) Add(t Tag) error {
	if !t.Valid() {
		return linuxerr.EINVAL
	}
	if s.Contains(t) {
		return nil
	}
	if s.size == MaxSetSize {
		return linuxerr.ENOMEM
	}
	s.tags[s.size] = t
	s.size++
	return nil
}

// Remove deletes t if present. Removing an absent tag is a no-op.
func (s *TagSet) Remove(t Tag) {
	for i := 0; i < s.size; i++ {
		if s.tags[i] == t {
			s.size--
			s.tags[i] = s.tags[s.size]
			s.tags[s.size] = InvalidTag
			return
		}
	}
}

// Tags returns the members of the set as a fresh slice.
func (s *TagSet) Tags() []Tag {
	if s.size == 0 {
		return nil
	}
	out := make([]Tag, s.size)
	copy(out, s.tags[:s.size])
	return out
}

// values returns the members as raw integers, for snapshots.
func (s *TagSet) values() []uint64 {
	if s.size == 0 {
		return nil
	}
	out := make([]uint64, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = uint64(s.tags[i])
	}
	return out
}
