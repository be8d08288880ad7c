package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storymagic_generation_requests_total",
		Help: "Total number of accepted story generation requests.",
	})

	statusUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storymagic_status_updates_total",
			Help: "Total number of inbound status webhook deliveries by status and result.",
		},
		[]string{"status", "result"},
	)

	imageUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storymagic_image_updates_total",
			Help: "Total number of inbound image webhook deliveries by status.",
		},
		[]string{"status"},
	)

	statusPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storymagic_status_polls_total",
		Help: "Total number of status poll requests.",
	})

	statusSubscriptionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storymagic_status_subscriptions_active",
		Help: "Currently open websocket status subscriptions.",
	})
)
