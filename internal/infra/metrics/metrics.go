package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ShipmentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chuyenhang_shipments_created_total",
		Help: "Number of shipments registered via scan or API.",
	})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chuyenhang_status_transitions_total",
		Help: "Shipment status transitions by target status.",
	}, []string{"status"})

	NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chuyenhang_notify_failures_total",
		Help: "Telegram delivery failures (non-fatal).",
	})

	SheetPushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chuyenhang_sheet_pushes_total",
		Help: "Spreadsheet pushes by result.",
	}, []string{"result"})
)
