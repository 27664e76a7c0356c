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

// Package settlement turns an assembled Batch into an on-chain transaction
// and a BatchResult. It is the abstract boundary over a signer and an RPC
// transport; two concrete adapters are provided (direct-call and blob), plus
// a dedup decorator guarding against duplicate resubmission.
package settlement

import (
	"context"

	"vsa/internal/model"
)

// Adapter is the capability set the batching engine drives a settlement
// through. Submit may suspend on network I/O and receipt polling; it
// returns only after confirmation or a terminal error.
type Adapter interface {
	Submit(ctx context.Context, batch model.Batch) (model.BatchResult, error)
	ChainID() uint64
	AddressOfSelf() model.Address
}
