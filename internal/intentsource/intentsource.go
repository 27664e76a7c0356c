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

// Package intentsource is an optional HTTP pull-client for a third-party
// intent source: a fishing-spot-style API where users submit intents
// gaslessly and the relayer polls for and acknowledges them.
package intentsource

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/holiman/uint256"

	"vsa/internal/model"
	"vsa/internal/relayer"
)

// Config configures a Client.
type Config struct {
	Endpoint     string
	PollInterval time.Duration
	MaxBatchSize int
	AuthToken    string
}

// DefaultConfig mirrors a reasonable out-of-the-box polling cadence.
func DefaultConfig() Config {
	return Config{
		Endpoint:     "https://fishing-spot.evvm.io",
		PollInterval: time.Second,
		MaxBatchSize: 1000,
	}
}

// Client pulls pending intents from a third-party source over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a Client with a 10-second request timeout, matching the
// original fishing-spot client's transport budget.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type pendingIntentsResponse struct {
	Intents      []wireIntent `json:"intents"`
	TotalPending uint64       `json:"total_pending"`
	Timestamp    uint64       `json:"timestamp"`
}

// wireIntent is the JSON shape exchanged with the third-party source; it
// intentionally mirrors model.Intent's fields rather than reusing the type
// directly, since the wire format is owned by an external collaborator.
type wireIntent struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Priority  bool   `json:"priority"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
}

// CollectIntents polls GET /api/v1/pending-intents?limit=N and returns the
// decoded intents plus the source's reported total_pending count.
func (c *Client) CollectIntents(ctx context.Context) ([]model.Intent, uint64, error) {
	url := fmt.Sprintf("%s/api/v1/pending-intents?limit=%d", c.cfg.Endpoint, c.cfg.MaxBatchSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, relayer.Wrap(relayer.KindRPC, "building pending-intents request", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, relayer.Wrap(relayer.KindRPC, "connecting to intent source", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, relayer.Errorf(relayer.KindRPC, "intent source returned status %d", resp.StatusCode)
	}

	var data pendingIntentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, 0, relayer.Wrap(relayer.KindSerialization, "parsing pending-intents response", err)
	}

	intents := make([]model.Intent, 0, len(data.Intents))
	for _, wi := range data.Intents {
		intent, err := decodeWireIntent(wi)
		if err != nil {
			continue
		}
		intents = append(intents, intent)
	}
	return intents, data.TotalPending, nil
}

// AcknowledgeIntents posts processed intent ids to /api/v1/acknowledge. A
// non-2xx response is logged by the caller but is not treated as fatal,
// since acknowledgement is best-effort.
func (c *Client) AcknowledgeIntents(ctx context.Context, intentIDs []string) error {
	payload, err := json.Marshal(struct {
		IntentIDs []string `json:"intent_ids"`
	}{IntentIDs: intentIDs})
	if err != nil {
		return relayer.Wrap(relayer.KindSerialization, "encoding acknowledge payload", err)
	}

	url := fmt.Sprintf("%s/api/v1/acknowledge", c.cfg.Endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return relayer.Wrap(relayer.KindRPC, "building acknowledge request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return relayer.Wrap(relayer.KindRPC, "acknowledging intents", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return relayer.Errorf(relayer.KindRPC, "acknowledge returned status %d", resp.StatusCode)
	}
	return nil
}

// Stats is the shape returned by GET /api/v1/stats.
type Stats struct {
	TotalReceived   uint64 `json:"total_received"`
	TotalAcked      uint64 `json:"total_acked"`
	CurrentlyPending uint64 `json:"currently_pending"`
}

// GetStats fetches the source's reported statistics.
func (c *Client) GetStats(ctx context.Context) (Stats, error) {
	url := fmt.Sprintf("%s/api/v1/stats", c.cfg.Endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Stats{}, relayer.Wrap(relayer.KindRPC, "building stats request", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Stats{}, relayer.Wrap(relayer.KindRPC, "fetching stats", err)
	}
	defer resp.Body.Close()

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return Stats{}, relayer.Wrap(relayer.KindSerialization, "parsing stats response", err)
	}
	return stats, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}
}

func decodeWireIntent(wi wireIntent) (model.Intent, error) {
	from, err := decodeAddress(wi.From)
	if err != nil {
		return model.Intent{}, err
	}
	to, err := decodeAddress(wi.To)
	if err != nil {
		return model.Intent{}, err
	}
	amount, err := uint256.FromHex(wi.Amount)
	if err != nil {
		amount = new(uint256.Int)
	}
	return model.Intent{
		ID:        wi.ID,
		From:      from,
		To:        to,
		Amount:    amount,
		Priority:  wi.Priority,
		Nonce:     wi.Nonce,
		Signature: []byte(wi.Signature),
		Timestamp: wi.Timestamp,
	}, nil
}

func decodeAddress(s string) (model.Address, error) {
	var addr model.Address
	if len(s) >= 2 && s[:2] == "0x" {
		s = s[2:]
	}
	decoded, err := hex.DecodeString(s)
	if err != nil || len(decoded) != len(addr) {
		return addr, relayer.New(relayer.KindSerialization, "malformed address in wire intent")
	}
	copy(addr[:], decoded)
	return addr, nil
}
