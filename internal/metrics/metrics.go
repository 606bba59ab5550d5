package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics carries the reservation lifecycle instruments on a private registry
// so tests can construct isolated instances.
type Metrics struct {
	Registry *prometheus.Registry

	ReservationsCreated   prometheus.Counter
	ReservationsCommitted prometheus.Counter
	ReservationsReleased  prometheus.Counter
	ReservationsExpired   prometheus.Counter
	StockConflicts        prometheus.Counter
	SweepRuns             prometheus.Counter
	ActiveHolds           prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	return &Metrics{
		Registry: reg,
		ReservationsCreated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vendora_reservations_created_total",
			Help: "Holds granted.",
		}),
		ReservationsCommitted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vendora_reservations_committed_total",
			Help: "Holds converted into orders.",
		}),
		ReservationsReleased: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vendora_reservations_released_total",
			Help: "Holds released back to the pool.",
		}),
		ReservationsExpired: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vendora_reservations_expired_total",
			Help: "Holds reclaimed after their deadline.",
		}),
		StockConflicts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vendora_stock_conflicts_total",
			Help: "Create or commit attempts rejected for insufficient stock.",
		}),
		SweepRuns: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vendora_sweep_runs_total",
			Help: "Expiry sweeper iterations.",
		}),
		ActiveHolds: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vendora_reservations_active",
			Help: "Reservations currently holding stock.",
		}),
	}
}
