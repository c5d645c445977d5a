// Package metrics exposes Prometheus instrumentation for the enhancement
// engine: frame throughput, processing latency, and segmental SNR, scoped
// per enhancer/estimator pair so a dashboard can compare algorithms.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the engine updates while
// streaming. A nil *Metrics is valid and every method is a no-op on it, so
// callers that don't wire a registry (the batch CLI, most unit tests) don't
// need to special-case metrics calls.
type Metrics struct {
	framesProcessed  *prometheus.CounterVec
	frameLatency     *prometheus.HistogramVec
	segmentalSNRDB   *prometheus.GaugeVec
	streamsCompleted prometheus.Counter
	streamErrors     *prometheus.CounterVec
}

// New registers and returns the engine's Prometheus collectors.
func New() *Metrics {
	m := &Metrics{
		framesProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sndenhance_frames_processed_total",
				Help: "Total number of frames processed, by enhancer and noise estimator",
			},
			[]string{"enhancer", "noise_est"},
		),
		frameLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sndenhance_frame_duration_seconds",
				Help:    "Per-frame processing latency in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"enhancer"},
		),
		segmentalSNRDB: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sndenhance_segmental_snr_db",
				Help: "Most recent segmental SNR in dB, by channel",
			},
			[]string{"channel"},
		),
		streamsCompleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sndenhance_streams_completed_total",
				Help: "Total number of audio streams enhanced successfully",
			},
		),
		streamErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sndenhance_stream_errors_total",
				Help: "Total number of streams that aborted with a fatal error, by kind",
			},
			[]string{"kind"},
		),
	}

	log.Println("sndenhance: Prometheus metrics registered")
	return m
}

// RecordFrame accounts for one processed frame and its latency.
func (m *Metrics) RecordFrame(enhancer, noiseEst string, seconds float64) {
	if m == nil {
		return
	}
	m.framesProcessed.WithLabelValues(enhancer, noiseEst).Inc()
	m.frameLatency.WithLabelValues(enhancer).Observe(seconds)
}

// RecordSegmentalSNR updates the latest segmental SNR gauge for a channel.
func (m *Metrics) RecordSegmentalSNR(channel string, snrDB float64) {
	if m == nil {
		return
	}
	m.segmentalSNRDB.WithLabelValues(channel).Set(snrDB)
}

// RecordStreamCompleted marks one stream as having finished successfully.
func (m *Metrics) RecordStreamCompleted() {
	if m == nil {
		return
	}
	m.streamsCompleted.Inc()
}

// RecordStreamError marks one stream as having aborted, tagged by the
// caller-supplied kind label (e.g. "io_open", "empty_stream"). The label is
// recorded as given; it is not derived from or checked against the error
// values of package sndenhance.
func (m *Metrics) RecordStreamError(kind string) {
	if m == nil {
		return
	}
	m.streamErrors.WithLabelValues(kind).Inc()
}
