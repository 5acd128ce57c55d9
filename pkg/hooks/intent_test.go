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

import (
	"testing"
)

func TestIntentFromMask(t *testing.T) {
	for _, test := range []struct {
		mask uint32
		want Intent
	}{
		{0, 0},
		{hostMayRead, MayRead},
		{hostMayWrite | hostMayAppend, MayWrite | MayAppend},
		{hostMayExec | hostMayRead, MayExec | MayRead},
		// Bits beyond the four capabilities are discarded.
		{0xf0, 0},
		{0xff, MayExec | MayWrite | MayRead | MayAppend},
	} {
		if got := IntentFromMask(test.mask); got != test.want {
			t.Errorf("IntentFromMask(%#x) = %#x, want %#x", test.mask, got, test.want)
		}
	}
}

func TestIntentFromProt(t *testing.T) {
	for _, test := range []struct {
		prot uint32
		want Intent
	}{
		{0, 0},
		{hostProtRead, MayRead},
		{hostProtWrite, MayWrite},
		{hostProtRead | hostProtExec, MayRead | MayExec},
	} {
		if got := IntentFromProt(test.prot); got != test.want {
			t.Errorf("IntentFromProt(%#x) = %#x, want %#x", test.prot, got, test.want)
		}
	}
}

func TestIntentHas(t *testing.T) {
	i := MayRead | MayWrite
	if !i.Has(MayRead) || !i.Has(MayWrite) {
		t.Error("Has missed a present capability")
	}
	if i.Has(MayExec) {
		t.Error("Has reported an absent capability")
	}
	// Has is an any-of test across a combined mask.
	if !i.Has(MayWrite | MayAppend) {
		t.Error("Has missed a partially present mask")
	}
}
