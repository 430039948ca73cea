// Package metrics exposes Prometheus collectors for the shortener.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shortlink"

// Redirect outcomes used as the "outcome" label value.
const (
	OutcomeRedirected = "redirected"
	OutcomeInvalid    = "invalid"
	OutcomeNotFound   = "not_found"
	OutcomeInactive   = "inactive"
	OutcomeError      = "error"
)

type Metrics struct {
	urlsCreated            prometheus.Counter
	shortCodeCollisions    prometheus.Counter
	redirects              *prometheus.CounterVec
	clickIncrementFailures prometheus.Counter
	clickEventsDropped     prometheus.Counter
	clickEventFailures     prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		urlsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "urls_created_total",
			Help:      "Number of short URLs created.",
		}),
		shortCodeCollisions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "short_code_collisions_total",
			Help:      "Number of generated short codes that were already taken.",
		}),
		redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Number of redirect lookups by outcome.",
		}, []string{"outcome"}),
		clickIncrementFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "click_increment_failures_total",
			Help:      "Number of click count increments that failed.",
		}),
		clickEventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "click_events_dropped_total",
			Help:      "Number of click events dropped because the tracker queue was full or closed.",
		}),
		clickEventFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "click_event_emit_failures_total",
			Help:      "Number of click events the analytics sink rejected.",
		}),
	}
}

func (m *Metrics) URLCreated() {
	if m == nil {
		return
	}
	m.urlsCreated.Inc()
}

func (m *Metrics) ShortCodeCollision() {
	if m == nil {
		return
	}
	m.shortCodeCollisions.Inc()
}

func (m *Metrics) Redirect(outcome string) {
	if m == nil {
		return
	}
	m.redirects.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ClickIncrementFailed() {
	if m == nil {
		return
	}
	m.clickIncrementFailures.Inc()
}

func (m *Metrics) ClickEventDropped() {
	if m == nil {
		return
	}
	m.clickEventsDropped.Inc()
}

func (m *Metrics) ClickEventFailed() {
	if m == nil {
		return
	}
	m.clickEventFailures.Inc()
}
