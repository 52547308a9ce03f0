package port

import (
	"strconv"
	"sync"

	"linkport/core"

	"github.com/prometheus/client_golang/prometheus"
)

type portMetrics struct {
	messages     *prometheus.CounterVec
	swapFallback *prometheus.CounterVec
}

var (
	metricsOnce     sync.Once
	metricsRegistry *portMetrics
)

func metrics() *portMetrics {
	metricsOnce.Do(func() {
		metricsRegistry = &portMetrics{
			messages: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "linkport_messages_total",
				Help: "Cross-chain messages by chain, kind and result.",
			}, []string{"chain", "kind", "result"}),
			swapFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "linkport_swap_fallback_total",
				Help: "Bridge deliveries that fell back to the unswapped asset.",
			}, []string{"chain"}),
		}
		prometheus.MustRegister(
			metricsRegistry.messages,
			metricsRegistry.swapFallback,
		)
	})
	return metricsRegistry
}

func messagesTotal(chain uint64, kind core.MessageKind, result string) {
	metrics().messages.WithLabelValues(strconv.FormatUint(chain, 10), kind.String(), result).Inc()
}

func swapFallbackTotal(chain uint64) {
	metrics().swapFallback.WithLabelValues(strconv.FormatUint(chain, 10)).Inc()
}
