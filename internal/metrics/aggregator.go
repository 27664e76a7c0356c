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

// Package metrics holds the process-lifetime Aggregator and its optional
// Prometheus-backed exporter.
package metrics

import (
	"sync"

	"github.com/holiman/uint256"

	"vsa/internal/chunkmath"
	"vsa/internal/model"
)

// Folder is anything the batching engine can fold a completed BatchResult
// into: a plain Aggregator, or a PrometheusExporter wrapping one.
type Folder interface {
	Fold(batch model.Batch, result model.BatchResult)
}

// Aggregator serializes updates to the relayer's running counters and
// moving averages. All writes are serialized by mu; snapshots are
// copy-on-read and require no lock during rendering.
type Aggregator struct {
	mu sync.Mutex

	totalBatches  uint64
	totalIntents  uint64
	totalGasSaved *uint256.Int
	blobBatches   uint64

	avgBatchSize        float64
	avgSavingsPercent   float64
	avgWilliamsSavings  float64
	avgPhiSavings       float64
	avgBlobSavings      float64
	avgProcessingTimeMs float64
}

// New returns an Aggregator with all counters zeroed.
func New() *Aggregator {
	return &Aggregator{totalGasSaved: new(uint256.Int)}
}

// Fold updates every counter and running mean from one completed batch's
// result. mean <- mean + (x - mean)/n_batches, per the update rule; the
// blob-savings mean is folded only from blob batches, so its n is blobBatches.
func (a *Aggregator) Fold(batch model.Batch, result model.BatchResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalBatches++
	a.totalIntents += uint64(len(batch.Intents))
	if result.GasSaved != nil {
		a.totalGasSaved = new(uint256.Int).Add(a.totalGasSaved, result.GasSaved)
	}
	if result.UsedBlob {
		a.blobBatches++
	}

	n := float64(a.totalBatches)
	a.avgBatchSize += (float64(len(batch.Intents)) - a.avgBatchSize) / n
	a.avgSavingsPercent += (batch.SavingsPercent() - a.avgSavingsPercent) / n
	a.avgWilliamsSavings += (chunkmath.MemorySavingsPercent(uint64(len(batch.Intents))) - a.avgWilliamsSavings) / n
	a.avgPhiSavings += (batch.PhiScore - a.avgPhiSavings) / n
	a.avgProcessingTimeMs += (float64(result.ProcessingTimeMs) - a.avgProcessingTimeMs) / n
	if result.UsedBlob && result.BlobGasSaved != nil {
		blobSaved, _ := result.BlobGasSaved.ToBig().Float64()
		a.avgBlobSavings += (blobSaved - a.avgBlobSavings) / float64(a.blobBatches)
	}
}

// Snapshot returns a copy-on-read view of the current metrics.
func (a *Aggregator) Snapshot() model.Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return model.Metrics{
		TotalBatches:        a.totalBatches,
		TotalIntents:        a.totalIntents,
		TotalGasSaved:       new(uint256.Int).Set(a.totalGasSaved),
		BlobBatches:         a.blobBatches,
		AvgBatchSize:        a.avgBatchSize,
		AvgSavingsPercent:   a.avgSavingsPercent,
		AvgWilliamsSavings:  a.avgWilliamsSavings,
		AvgPhiSavings:       a.avgPhiSavings,
		AvgBlobSavings:      a.avgBlobSavings,
		AvgProcessingTimeMs: a.avgProcessingTimeMs,
	}
}
