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

// Package engine owns the flush scheduler, the ordering/chunking pipeline,
// the submission serializer, and the metrics handoff. It is the part of the
// relayer where bounded-memory queue management, ordering fairness,
// deterministic chunk math, and concurrency discipline all meet.
package engine

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"vsa/internal/chunkmath"
	"vsa/internal/metrics"
	"vsa/internal/model"
	"vsa/internal/queue"
	"vsa/internal/relayer"
	"vsa/internal/settlement"
)

// State is one of the batching engine's explicit lifecycle states.
type State int

const (
	StateIdle State = iota
	StateDraining
	StateOrdering
	StateSubmitting
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateOrdering:
		return "ordering"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Engine drains the intake Queue on a schedule, orders and chunks the
// drained intents, submits the resulting Batch through a settlement
// Adapter, and folds the result into a metrics Aggregator.
type Engine struct {
	queue      *queue.Queue
	adapter    settlement.Adapter
	aggregator metrics.Folder

	minBatchSize uint64
	interval     time.Duration

	state atomic.Int32

	// pendingMu guards the coalescing pending-flush bit: a trigger that
	// arrives while a flush is running just sets pending and returns.
	pendingMu sync.Mutex
	pending   bool

	// runMu is the single-slot submission serializer: held for the full
	// duration of one flush (drain through fold), so at most one batch is
	// ever in flight.
	runMu sync.Mutex

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool

	batchCounter atomic.Uint64
}

// New constructs an Engine. minBatchSize and interval come from Config.
func New(q *queue.Queue, adapter settlement.Adapter, aggregator metrics.Folder, minBatchSize uint64, interval time.Duration) *Engine {
	return &Engine{
		queue:        q,
		adapter:      adapter,
		aggregator:   aggregator,
		minBatchSize: minBatchSize,
		interval:     interval,
		stopChan:     make(chan struct{}),
	}
}

// State returns the engine's current lifecycle state. Safe for concurrent
// use; intended for health checks and tests.
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

// Start launches the flush driver goroutine. Mirrors the two-long-lived-
// activities model: callers submit to the Queue directly; Start only owns
// the flush side.
func (e *Engine) Start() {
	fmt.Fprintf(os.Stdout, "%s engine: starting flush driver (interval=%s, min_batch_size=%d)\n",
		time.Now().Format(time.RFC3339), e.interval, e.minBatchSize)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.driveLoop()
	}()
}

// Stop signals the flush driver to finish any in-flight submission and not
// start a new one, then waits for it to exit. In-memory queued intents are
// lost, per the relayer's documented durability posture.
func (e *Engine) Stop() {
	if !e.stopped.CompareAndSwap(false, true) {
		return
	}
	fmt.Fprintf(os.Stdout, "%s engine: stopping flush driver\n", time.Now().Format(time.RFC3339))
	close(e.stopChan)
	e.wg.Wait()
}

// driveLoop is the flush driver: it suspends on the periodic ticker, the
// queue's high-water signal, or the stop channel. The ticker and the
// high-water signal both go through triggerFlush and its single-slot
// coalescing pending bit; the stop channel ends the loop.
func (e *Engine) driveLoop() {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.triggerFlush()
		case <-e.queue.HighWaterSignal():
			e.triggerFlush()
		case <-e.stopChan:
			return
		}
	}
}

// triggerFlush runs a flush if none is in flight, otherwise coalesces the
// request into the pending bit for the in-flight flush to pick up.
func (e *Engine) triggerFlush() {
	e.pendingMu.Lock()
	e.pending = true
	e.pendingMu.Unlock()
	e.runIfIdle()
}

// runIfIdle claims the single submission slot (runMu) and runs flushes
// until the pending bit is no longer set, so a trigger that arrives while a
// flush is running is serviced without a second concurrent flush ever being
// in flight.
func (e *Engine) runIfIdle() {
	if !e.runMu.TryLock() {
		return
	}
	defer e.runMu.Unlock()
	for {
		e.pendingMu.Lock()
		if !e.pending {
			e.pendingMu.Unlock()
			return
		}
		e.pending = false
		e.pendingMu.Unlock()

		e.runOnce()
	}
}

// runOnce executes the build pipeline exactly once: drain, order, plan,
// assemble, submit, fold.
func (e *Engine) runOnce() {
	e.setState(StateDraining)
	drained := e.queue.DrainAll()
	if uint64(len(drained)) < e.minBatchSize {
		e.setState(StateIdle)
		if len(drained) > 0 {
			fmt.Fprintf(os.Stderr, "%s engine: %v\n", time.Now().Format(time.RFC3339),
				relayer.Errorf(relayer.KindBatchProcessing, "queue too small (%d < %d), dropping drained intents", len(drained), e.minBatchSize))
		}
		return
	}

	e.setState(StateOrdering)
	batch := e.order(drained)

	e.setState(StateSubmitting)
	start := time.Now()
	result, err := e.adapter.Submit(context.Background(), batch)
	if err != nil {
		e.setState(StateFailure)
		fmt.Fprintf(os.Stderr, "%s engine: submission failed for batch %d: %v\n",
			time.Now().Format(time.RFC3339), batch.ID, err)
		e.setState(StateIdle)
		return
	}
	if result.ProcessingTimeMs == 0 {
		result.ProcessingTimeMs = uint64(time.Since(start).Milliseconds())
	}

	e.setState(StateSuccess)
	e.aggregator.Fold(batch, result)
	fmt.Fprintf(os.Stdout, "%s engine: batch %d settled (%d intents, tx=%s, savings=%.2f%%)\n",
		time.Now().Format(time.RFC3339), batch.ID, len(batch.Intents), result.TxHash, batch.SavingsPercent())
	e.setState(StateIdle)
}

// order sorts drained intents by descending priority score (stable, with
// the §4.1 tie-break of ascending timestamp then lexicographic id), then
// plans chunk size, phi score, and the gas estimate, and assembles the
// immutable Batch.
func (e *Engine) order(drained []model.Intent) model.Batch {
	now := time.Now()
	scores := make([]float64, len(drained))
	for i, intent := range drained {
		scores[i] = chunkmath.PriorityScore(intent.Priority, intent.AgeSeconds(now), intent.Amount)
	}

	idx := make([]int, len(drained))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		if drained[ia].Timestamp != drained[ib].Timestamp {
			return drained[ia].Timestamp < drained[ib].Timestamp
		}
		return drained[ia].ID < drained[ib].ID
	})

	ordered := make([]model.Intent, len(drained))
	orderedScores := make([]float64, len(drained))
	for i, j := range idx {
		ordered[i] = drained[j]
		orderedScores[i] = scores[j]
	}

	n := uint64(len(ordered))
	chunkSize := chunkmath.ChunkSize(n)
	phiScore := mean(orderedScores)
	estimatedGas, estimatedSavings := chunkmath.EstimateSavings(n)

	return model.Batch{
		ID:               e.nextBatchID(),
		Intents:          ordered,
		ChunkSize:        chunkSize,
		PhiScore:         phiScore,
		EstimatedGas:     estimatedGas,
		EstimatedSavings: estimatedSavings,
		CreatedAt:        now.Unix(),
	}
}

// nextBatchID derives a monotonic id from wall-clock epoch-seconds, nudged
// forward with a counter if two flushes land in the same second, so
// batch_id still increases monotonically per process.
func (e *Engine) nextBatchID() uint64 {
	sec := uint64(time.Now().Unix())
	for {
		prev := e.batchCounter.Load()
		next := sec
		if next <= prev {
			next = prev + 1
		}
		if e.batchCounter.CompareAndSwap(prev, next) {
			return next
		}
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
