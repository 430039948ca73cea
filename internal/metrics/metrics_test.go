package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.URLCreated()
	m.URLCreated()
	m.ShortCodeCollision()
	m.Redirect(OutcomeRedirected)
	m.Redirect(OutcomeNotFound)
	m.Redirect(OutcomeRedirected)
	m.ClickIncrementFailed()
	m.ClickEventDropped()
	m.ClickEventFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.urlsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shortCodeCollisions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.redirects.WithLabelValues(OutcomeRedirected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.redirects.WithLabelValues(OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clickIncrementFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clickEventsDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clickEventFailures))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.URLCreated()
		m.ShortCodeCollision()
		m.Redirect(OutcomeError)
		m.ClickIncrementFailed()
		m.ClickEventDropped()
		m.ClickEventFailed()
	})
}
