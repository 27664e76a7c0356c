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

// Command relayer runs the intent batching relayer: an intake queue, a
// batching engine, and a settlement adapter wired together per a JSON
// config file, exposing Prometheus metrics and handling graceful shutdown.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vsa/internal/config"
	"vsa/internal/engine"
	"vsa/internal/metrics"
	"vsa/internal/model"
	"vsa/internal/queue"
	"vsa/internal/relayer"
	"vsa/internal/settlement"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	noAttestation := flag.Bool("no-attestation", false, "Disable TDX attestation")
	healthCheck := flag.Bool("health-check", false, "Run health check only")
	metricsAddr := flag.String("metrics_addr", ":9090", "Address to serve Prometheus /metrics on")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s fatal: %v\n", time.Now().Format(time.RFC3339), err)
		return exitCodeFor(err)
	}
	if *noAttestation {
		cfg.EnableAttestation = false
	}

	if *verbose {
		fmt.Fprintf(os.Stdout, "%s config: rpc=%s min_batch_size=%d max_batch_size=%d interval_ms=%d blobs=%v attestation=%v\n",
			time.Now().Format(time.RFC3339), config.MaskRPCURL(cfg.RPCURL), cfg.MinBatchSize, cfg.MaxBatchSize, cfg.BatchIntervalMs, cfg.EnableBlobs, cfg.EnableAttestation)
	}

	if *healthCheck {
		return runHealthCheck(cfg)
	}

	fmt.Fprintf(os.Stdout, "%s relayer: initializing...\n", time.Now().Format(time.RFC3339))

	q := queue.New(int(cfg.MaxBatchSize)*4, int(cfg.MaxBatchSize))
	aggregator := metrics.New()
	exporter := metrics.NewPrometheusExporter(aggregator)

	var selfAddr model.Address
	rpcClient := settlement.NewMockRPCClient(1, selfAddr)

	var adapter settlement.Adapter = settlement.NewDirectAdapter(rpcClient)
	if cfg.EnableBlobs {
		adapter = settlement.NewBlobAdapter(rpcClient)
	}

	if cfg.EnableRedisDedup {
		evaler := settlement.NewGoRedisEvaler(cfg.RedisAddrs)
		defer evaler.Close()
		markerTTL := time.Duration(cfg.RedisMarkerTTLMs) * time.Millisecond
		adapter = settlement.NewRedisDedup(adapter, evaler, markerTTL)
		fmt.Fprintf(os.Stdout, "%s relayer: redis dedup enabled across %d endpoint(s)\n",
			time.Now().Format(time.RFC3339), len(cfg.RedisAddrs))
	}

	eng := engine.New(q, adapter, exporter, uint64(cfg.MinBatchSize), time.Duration(cfg.BatchIntervalMs)*time.Millisecond)
	eng.Start()

	go func() {
		fmt.Fprintf(os.Stdout, "%s relayer: metrics listening on %s\n", time.Now().Format(time.RFC3339), *metricsAddr)
		if err := metrics.ServeHTTP(*metricsAddr); err != nil {
			fmt.Fprintf(os.Stderr, "%s relayer: metrics server stopped: %v\n", time.Now().Format(time.RFC3339), err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Fprintf(os.Stdout, "\n%s relayer: shutting down...\n", time.Now().Format(time.RFC3339))
	eng.Stop()
	fmt.Fprintf(os.Stdout, "%s relayer: stopped cleanly\n", time.Now().Format(time.RFC3339))
	return 130
}

func runHealthCheck(cfg config.Config) int {
	fmt.Fprintf(os.Stdout, "%s health check: configuration valid\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(os.Stdout, "   rpc: %s\n", config.MaskRPCURL(cfg.RPCURL))
	fmt.Fprintf(os.Stdout, "   min_batch_size: %d, max_batch_size: %d\n", cfg.MinBatchSize, cfg.MaxBatchSize)
	fmt.Fprintf(os.Stdout, "%s health check: ok\n", time.Now().Format(time.RFC3339))
	return 0
}

// exitCodeFor maps a startup error to the CLI's documented exit codes: 1
// for an invalid config, 2 for any other startup failure.
func exitCodeFor(err error) int {
	if relayer.KindOf(err) == relayer.KindConfig {
		return 1
	}
	return 2
}
