package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDetection(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveDetection("http", 3, 7, 1)
	m.ObserveDetection("http", 0, 0, 0)
	m.ObserveDetection("stream", 2, 4, 2)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Detections.WithLabelValues("http")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Detections.WithLabelValues("stream")), 0)
	assert.InDelta(t, 11, testutil.ToFloat64(m.ObservationsProcessed), 0)
}

func TestCollectorsRegisterCleanly(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()

	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}
}
