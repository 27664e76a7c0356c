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
	"os"
	"time"

	"github.com/holiman/uint256"

	"vsa/internal/model"
	"vsa/internal/relayer"
)

// PaymentRecord is the on-chain shape the direct-call path submits:
// {from, to, amount, priority_flag, nonce}.
type PaymentRecord struct {
	From     model.Address
	To       model.Address
	Amount   *uint256.Int
	Priority bool
	Nonce    uint64
}

// Log is a single receipt log entry. Topics follow the standard EVM log
// layout: topic[0] is the event signature hash; subsequent topics are
// indexed event parameters.
type Log struct {
	Topics [][]byte
	Data   []byte
}

// Receipt is the minimal transaction receipt shape the direct-call path
// needs: the transaction hash, total gas used, and the emitted logs.
type Receipt struct {
	TxHash  string
	GasUsed uint64
	Logs    []Log
}

// RPCClient is the out-of-scope blockchain transport: it signs, broadcasts,
// and polls receipts for the submitBatchOptimized(payments[], signatures[])
// operation. The engine never talks to it directly; only a settlement
// Adapter does.
type RPCClient interface {
	ChainID() uint64
	AddressOfSelf() model.Address
	SubmitBatchOptimized(ctx context.Context, records []PaymentRecord, signatures [][]byte) (txHash string, err error)
	WaitReceipt(ctx context.Context, txHash string) (Receipt, error)
}

// DirectAdapter submits a batch as one calldata transaction against
// submitBatchOptimized and polls for its receipt.
type DirectAdapter struct {
	client RPCClient
}

// NewDirectAdapter wraps an RPCClient as a settlement Adapter.
func NewDirectAdapter(client RPCClient) *DirectAdapter {
	return &DirectAdapter{client: client}
}

func (a *DirectAdapter) ChainID() uint64              { return a.client.ChainID() }
func (a *DirectAdapter) AddressOfSelf() model.Address { return a.client.AddressOfSelf() }

// Submit encodes the batch as payment records plus a parallel signature
// array, submits, and polls for a receipt. Per-intent success flags are
// parsed from the receipt's logs; on a parse failure it defaults every
// intent to successful and returns the result with no error, since the
// transaction itself confirmed.
func (a *DirectAdapter) Submit(ctx context.Context, batch model.Batch) (model.BatchResult, error) {
	start := time.Now()

	records := make([]PaymentRecord, len(batch.Intents))
	signatures := make([][]byte, len(batch.Intents))
	for i, intent := range batch.Intents {
		records[i] = PaymentRecord{
			From:     intent.From,
			To:       intent.To,
			Amount:   intent.Amount,
			Priority: intent.Priority,
			Nonce:    intent.Nonce,
		}
		signatures[i] = intent.Signature
	}

	txHash, err := a.client.SubmitBatchOptimized(ctx, records, signatures)
	if err != nil {
		return model.BatchResult{}, relayer.Wrap(relayer.KindRPC, "submitBatchOptimized failed", err)
	}

	receipt, err := a.client.WaitReceipt(ctx, txHash)
	if err != nil {
		return model.BatchResult{}, relayer.Wrap(relayer.KindRPC, "receipt polling failed", err)
	}

	successes, warned := parseSuccesses(receipt, len(batch.Intents))
	if warned {
		fmt.Fprintf(os.Stderr, "%s WARN settlement: could not parse per-intent success flags for batch %d, defaulting to all-true\n",
			time.Now().Format(time.RFC3339), batch.ID)
	}

	estimatedGas, estimatedSavings := batch.EstimatedGas, batch.EstimatedSavings
	gasUsed := uint256.NewInt(receipt.GasUsed)
	gasSaved := new(uint256.Int)
	if estimatedGas != nil && estimatedSavings != nil {
		gasSaved.Set(estimatedSavings)
	}

	return model.BatchResult{
		BatchID:          batch.ID,
		TxHash:           receipt.TxHash,
		GasUsed:          gasUsed,
		GasSaved:         gasSaved,
		ProcessingTimeMs: uint64(time.Since(start).Milliseconds()),
		UsedBlob:         false,
		Successes:        successes,
	}, nil
}

// parseSuccesses extracts per-intent success flags from a receipt's logs.
// The expected event carries one boolean per intent, packed one per 32-byte
// topic following the event signature topic. If the log shape does not
// match (wrong topic count, or absent entirely), every intent is marked
// successful and the caller is told to warn.
func parseSuccesses(receipt Receipt, n int) (successes []bool, warnedFallback bool) {
	for _, log := range receipt.Logs {
		if len(log.Topics) != n+1 {
			continue
		}
		out := make([]bool, n)
		for i := 0; i < n; i++ {
			topic := log.Topics[i+1]
			out[i] = len(topic) > 0 && topic[len(topic)-1] != 0
		}
		return out, false
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out, true
}
