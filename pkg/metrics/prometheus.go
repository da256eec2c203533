/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics exposes Prometheus instruments for the inventory poller.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carverauto/netinventory/pkg/logger"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netinventory_cycle_duration_seconds",
		Help:    "Duration of a full poll cycle",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s .. ~8.5m
	})

	DevicePollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netinventory_device_polls_total",
		Help: "Per device domain polls by result",
	}, []string{"domain", "result"})

	DevicePollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netinventory_device_poll_duration_seconds",
		Help:    "Duration of one domain poll for one device",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
	}, []string{"domain"})

	WalkFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netinventory_walk_failures_total",
		Help: "SNMP field reads that failed and were treated as empty",
	}, []string{"domain", "field"})

	RowsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netinventory_rows_written_total",
		Help: "Rows handed to the store",
	}, []string{"table"})

	StoreRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netinventory_store_retries_total",
		Help: "Store statements retried after a transient error",
	}, []string{"table", "sqlstate"})

	AdjacenciesDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netinventory_adjacencies_dropped_total",
		Help: "Neighbor observations dropped for lack of a local interface",
	}, []string{"protocol"})

	AdjacenciesResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netinventory_adjacencies_resolved_total",
		Help: "Neighbor observations by remote device resolution strategy",
	}, []string{"protocol", "strategy"})
)

// ObserveDevicePoll records the outcome of one domain poll for one device.
func ObserveDevicePoll(domain string, err error, elapsed time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}

	DevicePollsTotal.WithLabelValues(domain, result).Inc()
	DevicePollDuration.WithLabelValues(domain).Observe(elapsed.Seconds())
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
