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

// Intent is the set of access capabilities a mediated operation
// requests. It is the boundary translation of the host's richer
// permission mask; the edge-recording logic depends only on Intent,
// never on the host's native bit layout.
type Intent uint8

const (
	// MayExec requests execute access.
	MayExec Intent = 0x1

	// MayWrite requests write access.
	MayWrite Intent = 0x2

	// MayRead requests read access.
	MayRead Intent = 0x4

	// MayAppend requests append access.
	MayAppend Intent = 0x8

	intentMask = MayExec | MayWrite | MayRead | MayAppend
)

// Has returns true if i includes any capability in want.
func (i Intent) Has(want Intent) bool {
	return i&want != 0
}

// Host permission mask bits, as passed to inode_permission.
const (
	hostMayExec   = 0x1
	hostMayWrite  = 0x2
	hostMayRead   = 0x4
	hostMayAppend = 0x8
)

// Host mmap protection bits.
const (
	hostProtRead  = 0x1
	hostProtWrite = 0x2
	hostProtExec  = 0x4
)

// IntentFromMask classifies a host permission mask. Bits beyond
// read/write/exec/append are discarded.
func IntentFromMask(mask uint32) Intent {
	var i Intent
	if mask&hostMayExec != 0 {
		i |= MayExec
	}
	if mask&hostMayWrite != 0 {
		i |= MayWrite
	}
	if mask&hostMayRead != 0 {
		i |= MayRead
	}
	if mask&hostMayAppend != 0 {
		i |= MayAppend
	}
	return i & intentMask
}

// IntentFromProt classifies a host mmap protection word.
func IntentFromProt(prot uint32) Intent {
	var i Intent
	if prot&hostProtRead != 0 {
		i |= MayRead
	}
	if prot&hostProtWrite != 0 {
		i |= MayWrite
	}
	if prot&hostProtExec != 0 {
		i |= MayExec
	}
	return i
}
