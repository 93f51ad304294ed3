package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Iron-Ham/drawbridge/internal/event"
)

const (
	namespace = "drawbridge"

	labelSpecies   = "species"
	labelDirection = "direction"

	directionRaised  = "raised"
	directionLowered = "lowered"
)

// Collector turns bus events into Prometheus metrics.
type Collector struct {
	reg *prometheus.Registry

	arrivals    *prometheus.CounterVec
	crossings   *prometheus.CounterVec
	withdrawals *prometheus.CounterVec
	transitions *prometheus.CounterVec
	waiting     *prometheus.GaugeVec
	raised      prometheus.Gauge
	waitSeconds *prometheus.HistogramVec

	mu   sync.Mutex
	bus  *event.Bus
	subs []string
}

// NewCollector creates a Collector with every metric registered in a fresh
// registry.
func NewCollector() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		arrivals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arrivals_total",
			Help:      "Actors that requested the crossing.",
		}, []string{labelSpecies}),
		crossings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crossings_total",
			Help:      "Completed crossings.",
		}, []string{labelSpecies}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawals_total",
			Help:      "Actors that stopped waiting before crossing.",
		}, []string{labelSpecies}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_transitions_total",
			Help:      "Bridge raises and lowers.",
		}, []string{labelDirection}),
		waiting: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "waiting",
			Help:      "Actors queued for the crossing, including the one on it.",
		}, []string{labelSpecies}),
		raised: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bridge_raised",
			Help:      "1 while the bridge is raised.",
		}),
		waitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wait_seconds",
			Help:      "Time from arrival until the actor took the crossing.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
		}, []string{labelSpecies}),
	}
	c.reg.MustRegister(
		c.arrivals,
		c.crossings,
		c.withdrawals,
		c.transitions,
		c.waiting,
		c.raised,
		c.waitSeconds,
	)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

// Attach subscribes the collector to bus. Attaching again moves it.
func (c *Collector) Attach(bus *event.Bus) {
	c.Detach()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus = bus
	c.subs = []string{bus.SubscribeAll(c.Observe)}
}

// Detach removes the collector's subscriptions.
func (c *Collector) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bus == nil {
		return
	}
	for _, id := range c.subs {
		c.bus.Unsubscribe(id)
	}
	c.bus = nil
	c.subs = nil
}

// Observe updates the metrics for a single event.
func (c *Collector) Observe(e event.Event) {
	switch ev := e.(type) {
	case *event.ActorArrivedEvent:
		c.arrivals.WithLabelValues(ev.Species).Inc()
		c.waiting.WithLabelValues(ev.Species).Set(float64(ev.Waiting))
	case *event.ActorWithdrawnEvent:
		c.withdrawals.WithLabelValues(ev.Species).Inc()
		c.waiting.WithLabelValues(ev.Species).Dec()
	case *event.CrossingEnteredEvent:
		c.waitSeconds.WithLabelValues(ev.Species).Observe(ev.Waited.Seconds())
	case *event.CrossingLeftEvent:
		c.crossings.WithLabelValues(ev.Species).Inc()
		c.waiting.WithLabelValues(ev.Species).Set(float64(ev.Waiting))
	case *event.BridgeRaisedEvent:
		c.transitions.WithLabelValues(directionRaised).Inc()
		c.raised.Set(1)
	case *event.BridgeLoweredEvent:
		c.transitions.WithLabelValues(directionLowered).Inc()
		c.raised.Set(0)
	}
}
