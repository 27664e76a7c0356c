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

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vsa/internal/relayer"
)

func validConfig() Config {
	c := Default()
	c.FisherAddress = "0x1111111111111111111111111111111111111111"
	c.EVVMCoreAddress = "0x2222222222222222222222222222222222222222"
	return c
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidateRejectsEmptyRPCURL(t *testing.T) {
	c := validConfig()
	c.RPCURL = ""
	err := Validate(c)
	if relayer.KindOf(err) != relayer.KindConfig {
		t.Errorf("Validate() error kind = %v, want KindConfig", relayer.KindOf(err))
	}
}

func TestValidateRejectsBadAddress(t *testing.T) {
	c := validConfig()
	c.FisherAddress = "not-hex"
	err := Validate(c)
	if relayer.KindOf(err) != relayer.KindConfig {
		t.Errorf("Validate() error kind = %v, want KindConfig", relayer.KindOf(err))
	}
}

func TestValidateRejectsZeroMinBatchSize(t *testing.T) {
	c := validConfig()
	c.MinBatchSize = 0
	if err := Validate(c); relayer.KindOf(err) != relayer.KindConfig {
		t.Errorf("Validate() error kind = %v, want KindConfig", relayer.KindOf(err))
	}
}

func TestValidateRejectsMaxLessThanMin(t *testing.T) {
	c := validConfig()
	c.MinBatchSize = 100
	c.MaxBatchSize = 10
	if err := Validate(c); relayer.KindOf(err) != relayer.KindConfig {
		t.Errorf("Validate() error kind = %v, want KindConfig", relayer.KindOf(err))
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	c := validConfig()
	c.PrivateKey = "should-not-matter-on-read"
	data, err := json.Marshal(struct {
		RPCURL            string `json:"rpc_url"`
		FisherAddress     string `json:"fisher_address"`
		EVVMCoreAddress   string `json:"evvm_core_address"`
		MinBatchSize      uint32 `json:"min_batch_size"`
		MaxBatchSize      uint32 `json:"max_batch_size"`
		BatchIntervalMs   uint64 `json:"batch_interval_ms"`
		EnableAttestation bool   `json:"enable_attestation"`
		EnableBlobs       bool   `json:"enable_blobs"`
		PrivateKey        string `json:"private_key"`
	}{c.RPCURL, c.FisherAddress, c.EVVMCoreAddress, c.MinBatchSize, c.MaxBatchSize, c.BatchIntervalMs, c.EnableAttestation, c.EnableBlobs, c.PrivateKey})
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if loaded.RPCURL != c.RPCURL {
		t.Errorf("RPCURL = %q, want %q", loaded.RPCURL, c.RPCURL)
	}
	if loaded.PrivateKey != c.PrivateKey {
		t.Errorf("PrivateKey = %q, want %q (Load itself must not scrub it)", loaded.PrivateKey, c.PrivateKey)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.json")
	if relayer.KindOf(err) != relayer.KindConfig {
		t.Errorf("Load() error kind = %v, want KindConfig", relayer.KindOf(err))
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"rpc_url": ""}`), 0600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := Load(path)
	if relayer.KindOf(err) != relayer.KindConfig {
		t.Errorf("Load() error kind = %v, want KindConfig", relayer.KindOf(err))
	}
}

func TestMarshalJSONScrubsPrivateKey(t *testing.T) {
	c := validConfig()
	c.PrivateKey = "super-secret"

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}
	if strings.Contains(string(data), "super-secret") {
		t.Errorf("MarshalJSON() leaked private_key: %s", data)
	}
}

func TestMaskRPCURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"http://localhost:8545", "http://localhost:8545"},
		{"https://eth.example.com/v1/abcdefghijklmnop", "https://eth.example.com/v1/abcd...mnop"},
		{"https://eth.example.com/v1/short", "https://eth.example.com/v1/short"},
	}
	for _, c := range cases {
		if got := MaskRPCURL(c.url); got != c.want {
			t.Errorf("MaskRPCURL(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}
