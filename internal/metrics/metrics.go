// Package metrics exposes per-chain prometheus gauges/counters for the
// indexer's hot path. Grounded on okx-cdk-erigon's zk/metrics/metrics_xlayer.go:
// package-level prometheus.New* vars, an Init() that registers them, and
// setter functions that log alongside setting the metric.
package metrics

import (
	"fmt"
	"time"

	"github.com/ledgerwatch/log/v3"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CheckpointHeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "indexer_checkpoint_height",
			Help: "last block height committed per chain",
		},
		[]string{"chain_id"},
	)

	LogsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_logs_processed_total",
			Help: "logs successfully decoded per chain",
		},
		[]string{"chain_id"},
	)

	LogsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_logs_dropped_total",
			Help: "logs dropped by a soft decode error, per chain and reason",
		},
		[]string{"chain_id", "reason"},
	)

	BatchFlushDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "indexer_batch_flush_duration_seconds",
			Help: "time spent decoding and committing one batch",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.99: 0.001,
			},
		},
		[]string{"chain_id"},
	)

	LiveReconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_live_reconnects_total",
			Help: "live subscription reconnect attempts per chain",
		},
		[]string{"chain_id"},
	)
)

// Init registers every metric above with the default prometheus registry.
func Init() {
	prometheus.MustRegister(CheckpointHeight)
	prometheus.MustRegister(LogsProcessed)
	prometheus.MustRegister(LogsDropped)
	prometheus.MustRegister(BatchFlushDuration)
	prometheus.MustRegister(LiveReconnects)
}

// SetCheckpointHeight records chainID's new checkpoint, logging alongside.
func SetCheckpointHeight(logger log.Logger, chainID string, height uint64) {
	logger.Info(fmt.Sprintf("[checkpoint] chain=%s height=%d", chainID, height))
	CheckpointHeight.WithLabelValues(chainID).Set(float64(height))
}

// ObserveBatchFlush records how long a batch flush took for chainID.
func ObserveBatchFlush(chainID string, d time.Duration) {
	BatchFlushDuration.WithLabelValues(chainID).Observe(d.Seconds())
}
