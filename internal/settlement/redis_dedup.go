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
	"fmt"
	"time"

	"vsa/internal/model"
	"vsa/internal/relayer"
)

// RedisEvaler abstracts the minimal surface needed from a Redis client:
// script evaluation. Implementations typically wrap go-redis's
// Cmdable.Eval.
type RedisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// dedupLuaScript marks a batch id as submitted exactly once. It returns 1 if
// this call claimed the marker (the caller should submit), or 0 if a prior
// call already claimed it (the caller should skip submission).
const dedupLuaScript = `
local markerKey = KEYS[1]
local ttlSeconds = tonumber(ARGV[1])
local set = redis.call('SETNX', markerKey, 1)
if set == 1 then
  if ttlSeconds and ttlSeconds > 0 then
    redis.call('EXPIRE', markerKey, ttlSeconds)
  end
  return 1
else
  return 0
end
`

// DedupMarkerKey returns the Redis key used to guard a given batch id
// against duplicate submission.
func DedupMarkerKey(batchID uint64) string {
	return fmt.Sprintf("fisher:submitted:%d", batchID)
}

// RedisDedup wraps any settlement Adapter and makes repeated submission
// attempts for the same batch id a no-op, guarding against the coalescing
// race where a pending-flush bit could otherwise resubmit a batch already
// in flight elsewhere.
type RedisDedup struct {
	inner     Adapter
	client    RedisEvaler
	markerTTL time.Duration
}

// NewRedisDedup wraps inner with a Redis-backed idempotency guard. A
// markerTTL <= 0 defaults to 24h.
func NewRedisDedup(inner Adapter, client RedisEvaler, markerTTL time.Duration) *RedisDedup {
	if markerTTL <= 0 {
		markerTTL = 24 * time.Hour
	}
	return &RedisDedup{inner: inner, client: client, markerTTL: markerTTL}
}

func (r *RedisDedup) ChainID() uint64              { return r.inner.ChainID() }
func (r *RedisDedup) AddressOfSelf() model.Address { return r.inner.AddressOfSelf() }

// Submit claims the batch id's dedup marker before delegating to inner. If
// the marker was already claimed, Submit returns an empty result and a
// BatchProcessing error rather than silently dropping the call, so the
// engine can log the skip instead of reporting a false success.
func (r *RedisDedup) Submit(ctx context.Context, batch model.Batch) (model.BatchResult, error) {
	reply, err := r.client.Eval(ctx, dedupLuaScript, []string{DedupMarkerKey(batch.ID)}, int(r.markerTTL.Seconds()))
	if err != nil {
		return model.BatchResult{}, relayer.Wrap(relayer.KindRPC, "dedup marker eval failed", err)
	}
	claimed, _ := reply.(int64)
	if claimed != 1 {
		return model.BatchResult{}, relayer.Errorf(relayer.KindBatchProcessing, "batch %d already submitted, skipping duplicate", batch.ID)
	}
	return r.inner.Submit(ctx, batch)
}
