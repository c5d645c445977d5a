package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// one shared instance: promauto registers collectors against the global
// default registry, so constructing Metrics twice in one process panics
// with an AlreadyRegisteredError.
var shared = New()

func TestRecordFrameDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		shared.RecordFrame("specsub", "vad", 0.002)
	})
}

func TestRecordSegmentalSNRDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		shared.RecordSegmentalSNR("0", 12.5)
	})
}

func TestRecordStreamCompletedAndErrorDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		shared.RecordStreamCompleted()
		shared.RecordStreamError("empty_stream")
	})
}

func TestNilMetricsIsANoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFrame("specsub", "vad", 0.001)
		m.RecordSegmentalSNR("0", 10)
		m.RecordStreamCompleted()
		m.RecordStreamError("io_open")
	})
}
