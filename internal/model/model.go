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

// Package model defines the core data types of the relayer: the immutable
// Intent a caller submits, the Batch snapshot the engine assembles from a
// drain, the BatchResult a settlement attempt produces, and the Metrics the
// aggregator folds results into.
package model

import (
	"time"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Address is a 20-byte account identifier.
type Address [20]byte

// Intent is an immutable, off-chain, signed request to transfer value. Once
// constructed it must not be mutated; the fields are copied by value on
// every hand-off between queue, engine, and adapter.
type Intent struct {
	ID          string
	From        Address
	To          Address
	Amount      *uint256.Int
	Priority    bool
	Nonce       uint64
	Signature   []byte
	Timestamp   int64 // seconds since epoch, stamped at intake
	MaxGasPrice *uint256.Int // nil if absent
}

// NewIntent stamps Timestamp at construction time. Signature is not
// validated here — see HasSignature and spec §9 on deferred verification.
func NewIntent(id string, from, to Address, amount *uint256.Int, priority bool, nonce uint64, signature []byte) Intent {
	return Intent{
		ID:        id,
		From:      from,
		To:        to,
		Amount:    amount,
		Priority:  priority,
		Nonce:     nonce,
		Signature: signature,
		Timestamp: time.Now().Unix(),
	}
}

// HasSignature reports whether the intent carries a non-empty signature.
// This is a presence check only; semantic signature verification is
// deferred (spec §9 open item).
func (i Intent) HasSignature() bool {
	return len(i.Signature) > 0
}

// Fingerprint returns a 32-byte Keccak-256 digest over (id, from, to,
// amount, nonce). The engine's ordering does not use it: ties there are
// broken by timestamp, then id.
func (i Intent) Fingerprint() [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(i.ID))
	h.Write(i.From[:])
	h.Write(i.To[:])
	if i.Amount != nil {
		b := i.Amount.Bytes32()
		h.Write(b[:])
	} else {
		var zero [32]byte
		h.Write(zero[:])
	}
	var nonceBuf [8]byte
	for n, shift := i.Nonce, 0; shift < 8; shift++ {
		nonceBuf[shift] = byte(n)
		n >>= 8
	}
	h.Write(nonceBuf[:])
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// AgeSeconds returns how long ago, in seconds, the intent was stamped
// relative to now. Never negative.
func (i Intent) AgeSeconds(now time.Time) uint64 {
	age := now.Unix() - i.Timestamp
	if age < 0 {
		return 0
	}
	return uint64(age)
}

// Batch is an immutable snapshot built from a contiguous drain of the
// intake queue. It is discarded once a BatchResult has been produced.
type Batch struct {
	ID                 uint64
	Intents            []Intent
	ChunkSize          uint64
	PhiScore           float64
	EstimatedGas       *uint256.Int
	EstimatedSavings   *uint256.Int
	CreatedAt          int64
}

// SavingsPercent returns the estimated savings as a percentage of total
// estimated cost (gas + savings). Returns 0 if EstimatedGas is zero/nil.
func (b Batch) SavingsPercent() float64 {
	if b.EstimatedGas == nil || b.EstimatedGas.IsZero() {
		return 0.0
	}
	total := new(uint256.Int).Add(b.EstimatedGas, b.EstimatedSavings)
	if total.IsZero() {
		return 0.0
	}
	savingsF, _ := new(uint256.Int).Set(b.EstimatedSavings).ToBig().Float64()
	totalF, _ := total.ToBig().Float64()
	if totalF == 0 {
		return 0.0
	}
	return savingsF / totalF * 100.0
}

// BatchResult is the outcome of one settlement attempt. len(Successes)
// must equal len(batch.Intents).
type BatchResult struct {
	BatchID          uint64
	TxHash           string
	GasUsed          *uint256.Int
	GasSaved         *uint256.Int
	ProcessingTimeMs uint64
	UsedBlob         bool
	BlobGasSaved     *uint256.Int
	Successes        []bool
}

// Metrics holds process-lifetime aggregates. All counters and running means
// are owned exclusively by the metrics aggregator; this type is the
// copy-on-read snapshot shape.
type Metrics struct {
	TotalBatches   uint64
	TotalIntents   uint64
	TotalGasSaved  *uint256.Int
	BlobBatches    uint64

	AvgBatchSize         float64
	AvgSavingsPercent    float64
	AvgWilliamsSavings   float64
	AvgPhiSavings        float64
	AvgBlobSavings       float64
	AvgProcessingTimeMs  float64
}
