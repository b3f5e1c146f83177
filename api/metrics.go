package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operational counters, exposed on /metrics.
var (
	dueGenerationRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trainer_due_generation_runs_total",
		Help: "Number of due generation passes executed.",
	})

	paymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trainer_payments_recorded_total",
		Help: "Number of dues transitioned to paid.",
	})

	receiptsLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trainer_receipts_logged_total",
		Help: "Number of one-off ledger receipts logged.",
	})
)
