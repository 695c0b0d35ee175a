package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector tracks the realtime core's operational metrics.
type Collector struct {
	connectionsCurrent prometheus.Gauge
	connectionsTotal   prometheus.Counter
	eventsTotal        *prometheus.CounterVec
	fanOutTotal        *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
}

// NewCollector registers the core's metrics against the given registerer.
// Tests pass a private registry so collectors never collide.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		connectionsCurrent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "platewire_connections_current",
			Help: "Number of live socket connections",
		}),
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "platewire_connections_total",
			Help: "Total number of socket connections accepted",
		}),
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "platewire_events_total",
			Help: "Total number of inbound events dispatched",
		}, []string{"event"}),
		fanOutTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "platewire_fanout_deliveries_total",
			Help: "Total number of per-connection deliveries by event",
		}, []string{"event"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "platewire_event_errors_total",
			Help: "Total number of error envelopes returned to senders",
		}, []string{"code"}),
	}
}

func (c *Collector) ConnectionOpened() {
	c.connectionsCurrent.Inc()
	c.connectionsTotal.Inc()
}

func (c *Collector) ConnectionClosed() {
	c.connectionsCurrent.Dec()
}

func (c *Collector) EventReceived(event string) {
	c.eventsTotal.WithLabelValues(event).Inc()
}

func (c *Collector) FanOut(event string, deliveries int) {
	c.fanOutTotal.WithLabelValues(event).Add(float64(deliveries))
}

func (c *Collector) ErrorEmitted(code string) {
	c.errorsTotal.WithLabelValues(code).Inc()
}
