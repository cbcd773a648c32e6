package tracking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "influencerconnect",
		Subsystem: "tracking",
		Name:      "events_total",
		Help:      "Tracking events recorded, by type and channel.",
	}, []string{"event_type", "channel"})

	attributedRevenue = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "influencerconnect",
		Subsystem: "tracking",
		Name:      "attributed_revenue_total",
		Help:      "Revenue attributed through tracking codes, by channel.",
	}, []string{"channel"})
)
