package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the lending workflow. Registered on the default registry and
// exposed via promhttp on /metrics.
var (
	BorrowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_borrows_total",
		Help: "Borrow operations processed, by result.",
	}, []string{"result"})

	ReturnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_returns_total",
		Help: "Return operations processed, by result.",
	}, []string{"result"})

	RenewalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "library_renewals_total",
		Help: "Renewal operations processed, by result.",
	}, []string{"result"})

	FinesAssessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_fines_assessed_total",
		Help: "Total fine amount charged at return time, in currency units.",
	})

	OverdueSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "library_overdue_swept_total",
		Help: "Ledger entries flipped to overdue by the sweeper.",
	})
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)
