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

// Package wire defines the message framing for the remote sink.
package wire

import (
	"encoding/binary"
)

// CurrentVersion is the current wire protocol version.
const CurrentVersion = 1

// HeaderStructSize is the size of Header in bytes.
const HeaderStructSize = 8

// Header precedes every record sent to the remote process.
//
//	0 --------- 16 ---------- 32 ----------- 64 -----------+
//	| HeaderSize | MessageType | DroppedCount | Payload... |
//	+---- 16 ----+---- 16 -----+----- 32 -----+------------+
type Header struct {
	// HeaderSize is the size of the header in bytes. The payload comes
	// immediately after the header. The length lets the header grow
	// without breaking remotes that do not understand new fields.
	HeaderSize uint16

	// MessageType is the provenance.MessageType of the payload.
	MessageType uint16

	// DroppedCount is the number of records that could not be written
	// and were dropped since the last successful write. It wraps around
	// after max(uint32).
	DroppedCount uint32
}

// Encode appends the header's wire form to b.
func (h *Header) Encode(b []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, h.HeaderSize)
	b = binary.LittleEndian.AppendUint16(b, h.MessageType)
	b = binary.LittleEndian.AppendUint32(b, h.DroppedCount)
	return b
}

// Decode parses a header from b.
func (h *Header) Decode(b []byte) {
	h.HeaderSize = binary.LittleEndian.Uint16(b[0:2])
	h.MessageType = binary.LittleEndian.Uint16(b[2:4])
	h.DroppedCount = binary.LittleEndian.Uint32(b[4:8])
}
