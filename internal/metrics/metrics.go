// Package metrics holds the Prometheus instruments for the engine and runner.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every instrument. A nil *Metrics records nothing.
type Metrics struct {
	OperationsApplied  *prometheus.CounterVec
	OperationsRejected *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	SwapVolume         *prometheus.CounterVec
	SwapFees           *prometheus.CounterVec
	SwapBinsVisited    prometheus.Histogram
	ActiveBin          *prometheus.GaugeVec
	CustodyReversals   prometheus.Counter
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "binflow_operations_applied_total",
			Help: "Operations committed to the ledger",
		}, []string{"op"}),

		OperationsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "binflow_operations_rejected_total",
			Help: "Operations aborted, by error code",
		}, []string{"op", "code"}),

		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "binflow_operation_duration_seconds",
			Help:    "Time to stage and commit one operation",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"op"}),

		SwapVolume: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "binflow_swap_volume_total",
			Help: "Swap input amount in base units",
		}, []string{"pool", "asset"}),

		SwapFees: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "binflow_swap_fees_total",
			Help: "Swap fees credited to bins in base units",
		}, []string{"pool", "asset"}),

		SwapBinsVisited: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "binflow_swap_bins_visited",
			Help:    "Bins walked by a single swap",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),

		ActiveBin: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "binflow_pool_active_bin",
			Help: "Active bin id per pool",
		}, []string{"pool"}),

		CustodyReversals: factory.NewCounter(prometheus.CounterOpts{
			Name: "binflow_custody_reversals_total",
			Help: "Transfers reversed after a failed ledger commit",
		}),
	}
}

// CodeInternal labels rejections that carry no domain error code, such as a
// failed store commit.
const CodeInternal = "Internal"

// ObserveOperation records the outcome of one operation. code is empty on
// success.
func (m *Metrics) ObserveOperation(op, code string, started time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	if code == "" {
		m.OperationsApplied.WithLabelValues(op).Inc()
		return
	}
	m.OperationsRejected.WithLabelValues(op, code).Inc()
}

// ObserveSwap records volume, fees and path length of a committed swap.
func (m *Metrics) ObserveSwap(pool, asset string, amountIn, fee uint64, binsVisited int, activeBin int32) {
	if m == nil {
		return
	}
	m.SwapVolume.WithLabelValues(pool, asset).Add(float64(amountIn))
	m.SwapFees.WithLabelValues(pool, asset).Add(float64(fee))
	m.SwapBinsVisited.Observe(float64(binsVisited))
	m.ActiveBin.WithLabelValues(pool).Set(float64(activeBin))
}

// ObserveReversal counts a custody compensation.
func (m *Metrics) ObserveReversal() {
	if m == nil {
		return
	}
	m.CustodyReversals.Inc()
}
