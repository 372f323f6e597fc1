package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveScrape(t *testing.T) {
	m := New()

	m.ObserveScrape("yahoo", nil)
	m.ObserveScrape("yahoo", errors.New("status 503"))
	m.ObserveScrape("dataroma", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ScrapesTotal.WithLabelValues("yahoo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScrapeErrorsTotal.WithLabelValues("yahoo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScrapesTotal.WithLabelValues("dataroma")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ScrapeErrorsTotal.WithLabelValues("dataroma")))
}

func TestObserveScrapeNilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveScrape("yahoo", nil) })
}
