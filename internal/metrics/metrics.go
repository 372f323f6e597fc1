package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the aggregation pipeline.
type Metrics struct {
	ScrapesTotal      *prometheus.CounterVec
	ScrapeErrorsTotal *prometheus.CounterVec
	ReportCyclesTotal prometheus.Counter
	CycleDuration     prometheus.Histogram
	AlertsSentTotal   prometheus.Counter
	BotCommandsTotal  *prometheus.CounterVec
}

// ObserveScrape records one scrape attempt against a source, counting the
// error side too when err is non-nil. Safe on a nil receiver so callers
// without metrics wired can skip the guard.
func (m *Metrics) ObserveScrape(source string, err error) {
	if m == nil {
		return
	}
	m.ScrapesTotal.WithLabelValues(source).Inc()
	if err != nil {
		m.ScrapeErrorsTotal.WithLabelValues(source).Inc()
	}
}

// New registers the instruments on the default registry.
func New() *Metrics {
	return &Metrics{
		ScrapesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcompass_scrapes_total",
			Help: "Completed scrapes by source.",
		}, []string{"source"}),
		ScrapeErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcompass_scrape_errors_total",
			Help: "Failed scrapes by source.",
		}, []string{"source"}),
		ReportCyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketcompass_report_cycles_total",
			Help: "Completed scheduled report cycles.",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketcompass_cycle_duration_seconds",
			Help:    "Report cycle wall time.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		AlertsSentTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "marketcompass_alerts_sent_total",
			Help: "Filing and change alerts delivered.",
		}),
		BotCommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcompass_bot_commands_total",
			Help: "Telegram bot commands handled.",
		}, []string{"command"}),
	}
}
