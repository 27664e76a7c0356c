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

// Package config loads and validates the relayer's JSON configuration file.
package config

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"strings"

	"vsa/internal/model"
	"vsa/internal/relayer"
)

// Config is immutable after Load returns: queue thresholds, the chain
// addresses and RPC endpoint, feature flags, and an optional signing key.
type Config struct {
	RPCURL            string   `json:"rpc_url"`
	FisherAddress     string   `json:"fisher_address"`
	EVVMCoreAddress   string   `json:"evvm_core_address"`
	MinBatchSize      uint32   `json:"min_batch_size"`
	MaxBatchSize      uint32   `json:"max_batch_size"`
	BatchIntervalMs   uint64   `json:"batch_interval_ms"`
	EnableAttestation bool     `json:"enable_attestation"`
	EnableBlobs       bool     `json:"enable_blobs"`
	EnableRedisDedup  bool     `json:"enable_redis_dedup"`
	RedisAddrs        []string `json:"redis_addrs,omitempty"`
	RedisMarkerTTLMs  uint64   `json:"redis_marker_ttl_ms,omitempty"`
	PrivateKey        string   `json:"private_key,omitempty"`
}

// Default mirrors the reasonable defaults a fresh deployment starts from.
func Default() Config {
	return Config{
		RPCURL:            "http://localhost:8545",
		MinBatchSize:      10,
		MaxBatchSize:      1000,
		BatchIntervalMs:   5000,
		EnableAttestation: true,
		EnableBlobs:       true,
	}
}

// Load reads and parses the JSON config file at path, then validates it.
// PrivateKey is read in but MarshalJSON never serializes it back out.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Config{}, relayer.Wrap(relayer.KindConfig, "failed to read config", err)
	}
	var cfg Config
	if err := json.Unmarshal(contents, &cfg); err != nil {
		return Config{}, relayer.Wrap(relayer.KindConfig, "failed to parse config", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MarshalJSON never serializes PrivateKey back out, matching the config
// file contract's "never serialized back out" rule.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PrivateKey = ""
	return json.Marshal(a)
}

// Validate enforces the config file's documented invariants, returning a
// KindConfig error on the first violation found.
func Validate(cfg Config) error {
	if cfg.RPCURL == "" {
		return relayer.New(relayer.KindConfig, "empty rpc_url in config")
	}
	if _, err := parseAddress(cfg.FisherAddress); err != nil {
		return relayer.Wrap(relayer.KindConfig, "invalid fisher_address in config", err)
	}
	if _, err := parseAddress(cfg.EVVMCoreAddress); err != nil {
		return relayer.Wrap(relayer.KindConfig, "invalid evvm_core_address in config", err)
	}
	if cfg.MinBatchSize == 0 {
		return relayer.New(relayer.KindConfig, "min_batch_size must be > 0")
	}
	if cfg.MaxBatchSize < cfg.MinBatchSize {
		return relayer.New(relayer.KindConfig, "max_batch_size must be >= min_batch_size")
	}
	if cfg.EnableRedisDedup && len(cfg.RedisAddrs) == 0 {
		return relayer.New(relayer.KindConfig, "enable_redis_dedup requires at least one redis_addrs entry")
	}
	return nil
}

// parseAddress decodes a "0x"-prefixed 20-byte hex address.
func parseAddress(s string) (model.Address, error) {
	var addr model.Address
	trimmed := strings.TrimPrefix(s, "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, err
	}
	if len(decoded) != len(addr) {
		return addr, relayer.Errorf(relayer.KindConfig, "address must be %d bytes, got %d", len(addr), len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}

// MaskRPCURL redacts any credential embedded in the last path segment of an
// RPC URL (e.g. an API key), keeping only its first and last four
// characters, for safe inclusion in logs.
func MaskRPCURL(url string) string {
	hostStart := 0
	if i := strings.Index(url, "://"); i >= 0 {
		hostStart = i + 3
	}
	pos := strings.LastIndex(url[hostStart:], "/")
	if pos < 0 {
		return url
	}
	pos += hostStart
	base, key := url[:pos+1], url[pos+1:]
	if len(key) <= 8 {
		return url
	}
	return base + key[:4] + "..." + key[len(key)-4:]
}
