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

package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"vsa/internal/model"
	"vsa/internal/relayer"
)

// fakeEvaler simulates Redis SETNX semantics: the first Eval for a key
// returns 1 (claimed), every subsequent Eval for the same key returns 0.
type fakeEvaler struct {
	claimed map[string]bool
}

func newFakeEvaler() *fakeEvaler {
	return &fakeEvaler{claimed: make(map[string]bool)}
}

func (f *fakeEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	key := keys[0]
	if f.claimed[key] {
		return int64(0), nil
	}
	f.claimed[key] = true
	return int64(1), nil
}

func TestRedisDedupClaimsOnce(t *testing.T) {
	inner := NewDirectAdapter(NewMockRPCClient(1, model.Address{0x01}))
	evaler := newFakeEvaler()
	dedup := NewRedisDedup(inner, evaler, time.Hour)

	batch := testBatch(5, 2)
	batch.EstimatedSavings = uint256.NewInt(100)

	if _, err := dedup.Submit(context.Background(), batch); err != nil {
		t.Fatalf("first Submit() unexpected error: %v", err)
	}

	_, err := dedup.Submit(context.Background(), batch)
	if relayer.KindOf(err) != relayer.KindBatchProcessing {
		t.Errorf("second Submit() error kind = %v, want KindBatchProcessing", relayer.KindOf(err))
	}
}

func TestRedisDedupDifferentBatchIDsBothSucceed(t *testing.T) {
	inner := NewDirectAdapter(NewMockRPCClient(1, model.Address{0x01}))
	evaler := newFakeEvaler()
	dedup := NewRedisDedup(inner, evaler, 0)

	b1 := testBatch(1, 1)
	b2 := testBatch(2, 1)

	if _, err := dedup.Submit(context.Background(), b1); err != nil {
		t.Fatalf("Submit(b1) unexpected error: %v", err)
	}
	if _, err := dedup.Submit(context.Background(), b2); err != nil {
		t.Fatalf("Submit(b2) unexpected error: %v", err)
	}
}

func TestDedupMarkerKey(t *testing.T) {
	got := DedupMarkerKey(42)
	want := "fisher:submitted:42"
	if got != want {
		t.Errorf("DedupMarkerKey(42) = %q, want %q", got, want)
	}
}
