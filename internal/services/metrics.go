package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	completionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakura_ai_completions_total",
			Help: "Completion calls by backend and outcome",
		},
		[]string{"provider", "outcome"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakura_order_notifications_total",
			Help: "Order notifications by channel and result",
		},
		[]string{"channel", "result"},
	)
)
