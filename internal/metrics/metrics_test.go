package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("swap", "", time.Now())
	m.ObserveOperation("swap", "SlippageExceeded", time.Now())
	m.ObserveOperation("swap", "SlippageExceeded", time.Now())

	require.Equal(t, 1.0, testutil.ToFloat64(m.OperationsApplied.WithLabelValues("swap")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.OperationsRejected.WithLabelValues("swap", "SlippageExceeded")))

	m.ObserveOperation("swap", CodeInternal, time.Now())
	require.Equal(t, 1.0, testutil.ToFloat64(m.OperationsApplied.WithLabelValues("swap")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.OperationsRejected.WithLabelValues("swap", CodeInternal)))
}

func TestObserveSwap(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveSwap("0xpool", "0xa", 1_000_000, 3_000, 1, -10)

	require.Equal(t, 1_000_000.0, testutil.ToFloat64(m.SwapVolume.WithLabelValues("0xpool", "0xa")))
	require.Equal(t, -10.0, testutil.ToFloat64(m.ActiveBin.WithLabelValues("0xpool")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("swap", "", time.Now())
	m.ObserveSwap("p", "a", 1, 1, 1, 0)
	m.ObserveReversal()
}
