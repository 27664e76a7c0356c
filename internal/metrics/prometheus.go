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

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vsa/internal/model"
)

var (
	totalBatchesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fisher_total_batches",
		Help: "Total number of batches successfully settled",
	})
	totalIntentsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fisher_total_intents",
		Help: "Total number of intents settled across all batches",
	})
	avgSavingsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fisher_avg_savings_percent",
		Help: "Running mean of estimated savings percent across settled batches",
	})
	avgBatchSizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fisher_avg_batch_size",
		Help: "Running mean of intents per settled batch",
	})
	intentsPerBatchHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fisher_intents_per_batch",
		Help:    "Distribution of intents per settled batch",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	processingTimeHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fisher_processing_time_ms",
		Help:    "Distribution of per-batch settlement processing time in milliseconds",
		Buckets: prometheus.ExponentialBuckets(10, 2, 12),
	})
	blobBatchesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fisher_blob_batches_total",
		Help: "Total number of batches settled via the blob path",
	})
)

func init() {
	prometheus.MustRegister(
		totalBatchesCounter,
		totalIntentsCounter,
		avgSavingsGauge,
		avgBatchSizeGauge,
		intentsPerBatchHistogram,
		processingTimeHistogram,
		blobBatchesCounter,
	)
}

// PrometheusExporter mirrors an Aggregator's state onto the package-level
// Prometheus collectors registered above, and optionally serves them over
// its own HTTP listener.
type PrometheusExporter struct {
	aggregator *Aggregator
}

// NewPrometheusExporter wraps an Aggregator for Prometheus export.
func NewPrometheusExporter(aggregator *Aggregator) *PrometheusExporter {
	return &PrometheusExporter{aggregator: aggregator}
}

// Fold records one completed batch's result into both the Aggregator and
// the Prometheus collectors. Implements Folder, so the engine can be handed
// either a plain Aggregator or a PrometheusExporter interchangeably.
func (e *PrometheusExporter) Fold(batch model.Batch, result model.BatchResult) {
	e.aggregator.Fold(batch, result)
	totalBatchesCounter.Inc()
	totalIntentsCounter.Add(float64(len(batch.Intents)))
	intentsPerBatchHistogram.Observe(float64(len(batch.Intents)))
	processingTimeHistogram.Observe(float64(result.ProcessingTimeMs))
	if result.UsedBlob {
		blobBatchesCounter.Inc()
	}
	snap := e.aggregator.Snapshot()
	avgSavingsGauge.Set(snap.AvgSavingsPercent)
	avgBatchSizeGauge.Set(snap.AvgBatchSize)
}

// ServeHTTP starts a dedicated metrics listener on addr, serving /metrics
// via promhttp.Handler. Intended to be run in its own goroutine.
func ServeHTTP(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return server.ListenAndServe()
}
