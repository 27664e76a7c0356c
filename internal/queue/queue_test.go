// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

package queue

import (
	"testing"

	"github.com/holiman/uint256"

	"vsa/internal/model"
	"vsa/internal/relayer"
)

func signedIntent(id string) model.Intent {
	return model.Intent{ID: id, Amount: uint256.NewInt(1), Signature: []byte("sig")}
}

func TestSubmitRejectsUnsigned(t *testing.T) {
	q := New(10, 5)
	err := q.Submit(model.Intent{ID: "unsigned"})
	if relayer.KindOf(err) != relayer.KindInvalidSignature {
		t.Errorf("Submit() unsigned error kind = %v, want KindInvalidSignature", relayer.KindOf(err))
	}
}

func TestSubmitRejectsOverCapacity(t *testing.T) {
	q := New(2, 0)
	if err := q.Submit(signedIntent("a")); err != nil {
		t.Fatalf("Submit(a) unexpected error: %v", err)
	}
	if err := q.Submit(signedIntent("b")); err != nil {
		t.Fatalf("Submit(b) unexpected error: %v", err)
	}
	err := q.Submit(signedIntent("c"))
	if relayer.KindOf(err) != relayer.KindInvalidIntent {
		t.Errorf("Submit() over capacity error kind = %v, want KindInvalidIntent", relayer.KindOf(err))
	}
}

func TestDrainAllReturnsAllAndResets(t *testing.T) {
	q := New(10, 0)
	q.Submit(signedIntent("a"))
	q.Submit(signedIntent("b"))

	if got := q.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	drained := q.DrainAll()
	if len(drained) != 2 {
		t.Errorf("DrainAll() returned %d intents, want 2", len(drained))
	}
	if got := q.Len(); got != 0 {
		t.Errorf("Len() after drain = %d, want 0", got)
	}

	if got := q.DrainAll(); got != nil {
		t.Errorf("DrainAll() on empty queue = %v, want nil", got)
	}
}

func TestHighWaterSignalEdgeTriggered(t *testing.T) {
	q := New(10, 2)
	q.Submit(signedIntent("a"))
	select {
	case <-q.HighWaterSignal():
		t.Fatalf("signaled before reaching high water mark")
	default:
	}

	q.Submit(signedIntent("b"))
	select {
	case <-q.HighWaterSignal():
	default:
		t.Fatalf("did not signal at high water mark")
	}

	q.Submit(signedIntent("c"))
	select {
	case <-q.HighWaterSignal():
		t.Fatalf("signaled again without an intervening drain (edge should coalesce)")
	default:
	}

	q.DrainAll()
	q.Submit(signedIntent("d"))
	q.Submit(signedIntent("e"))
	select {
	case <-q.HighWaterSignal():
	default:
		t.Fatalf("did not re-signal after drain reset the edge")
	}
}
