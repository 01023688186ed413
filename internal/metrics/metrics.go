package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamsnotify_records_total",
			Help: "Records routed to an outcome channel, by outcome and source",
		},
		[]string{"outcome", "source"}, // success|failure , http|kafka|redis|cli
	)

	DispatchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamsnotify_dispatch_errors_total",
			Help: "Webhook transport failures by error kind",
		},
		[]string{"kind"}, // encoding|connection|protocol
	)

	DispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "teamsnotify_dispatch_duration_seconds",
			Help:    "Duration of a single webhook POST",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	AuditFlushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamsnotify_audit_flushes_total",
			Help: "Delivery audit batch flushes by result",
		},
		[]string{"result"}, // ok|error
	)
)

var once sync.Once

// MustRegister registers all collectors once; later calls are no-ops.
func MustRegister(r prometheus.Registerer) {
	once.Do(func() {
		r.MustRegister(
			RecordsTotal,
			DispatchErrorsTotal,
			DispatchDuration,
			AuditFlushesTotal,
		)
	})
}
