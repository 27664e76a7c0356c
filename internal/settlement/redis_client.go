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
	"strconv"

	redis "github.com/redis/go-redis/v9"
)

// GoRedisEvaler is a production RedisEvaler backed by a go-redis Ring
// client: the dedup marker for a given batch id is consistently hashed
// across every configured endpoint, so the external dedup store can be
// sharded without every relayer instance agreeing on a single Redis node.
type GoRedisEvaler struct {
	ring *redis.Ring
}

// NewGoRedisEvaler builds a Ring client across addrs, keyed by a stable
// per-endpoint name (shard-a, shard-b, ...). Ring mode pulls in go-redis's
// rendezvous-hashing shard selector for consistent key placement as
// endpoints are added or removed.
func NewGoRedisEvaler(addrs []string) *GoRedisEvaler {
	shards := make(map[string]string, len(addrs))
	for i, addr := range addrs {
		shards[shardName(i)] = addr
	}
	ring := redis.NewRing(&redis.RingOptions{Addrs: shards})
	return &GoRedisEvaler{ring: ring}
}

func (g *GoRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return g.ring.Eval(ctx, script, keys, args...).Result()
}

// Close releases the underlying connection pool.
func (g *GoRedisEvaler) Close() error {
	return g.ring.Close()
}

func shardName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return "shard-" + string(letters[i])
	}
	return "shard-" + strconv.Itoa(i)
}
