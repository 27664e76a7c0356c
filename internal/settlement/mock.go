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
	"sync/atomic"

	"vsa/internal/model"
)

// NewMockRPCClient creates an RPCClient that simulates submission by
// fabricating a tx hash and a receipt that carries no logs, without talking
// to a real chain; adapters therefore take their all-true success fallback. Used for demonstration and tests, the
// same way the teacher's mock persister stands in for a real database.
func NewMockRPCClient(chainID uint64, self model.Address) RPCClient {
	return &mockRPCClient{chainID: chainID, self: self}
}

type mockRPCClient struct {
	chainID uint64
	self    model.Address
	seq     atomic.Uint64
}

func (m *mockRPCClient) ChainID() uint64              { return m.chainID }
func (m *mockRPCClient) AddressOfSelf() model.Address { return m.self }

func (m *mockRPCClient) SubmitBatchOptimized(ctx context.Context, records []PaymentRecord, signatures [][]byte) (string, error) {
	n := m.seq.Add(1)
	return fmt.Sprintf("0xmock%016x", n), nil
}

func (m *mockRPCClient) WaitReceipt(ctx context.Context, txHash string) (Receipt, error) {
	return Receipt{TxHash: txHash, GasUsed: 14000}, nil
}
