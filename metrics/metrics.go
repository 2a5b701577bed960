// Package metrics exposes catalog traversal and HTTP metrics through
// Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/use-agent/shopcrawl/models"
)

const namespace = "catalog"

// Buckets for run duration. A full crawl walks dozens of pages, so the
// range reaches well past a minute.
var runBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600}

// Recorder implements catalog.Observer on top of Prometheus collectors.
type Recorder struct {
	pagesVisited      *prometheus.CounterVec
	productsExtracted *prometheus.CounterVec
	pagesRepeated     *prometheus.CounterVec
	runs              *prometheus.CounterVec
	runDuration       prometheus.Histogram
	httpDuration      *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		pagesVisited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_visited_total",
			Help:      "Listing pages extracted, by category.",
		}, []string{"category"}),
		productsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_extracted_total",
			Help:      "Product records extracted, by category.",
		}, []string{"category"}),
		pagesRepeated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_repeated_total",
			Help:      "Listing pages that carried the same cards as the page before.",
		}, []string{"category"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Aggregation runs, by result code (OK on success).",
		}, []string{"code"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of aggregation runs.",
			Buckets:   runBuckets,
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	for _, c := range []prometheus.Collector{
		r.pagesVisited, r.productsExtracted, r.pagesRepeated,
		r.runs, r.runDuration, r.httpDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// PageVisited implements catalog.Observer.
func (r *Recorder) PageVisited(category string, products int) {
	r.pagesVisited.WithLabelValues(category).Inc()
	r.productsExtracted.WithLabelValues(category).Add(float64(products))
}

// PageRepeated implements catalog.Observer.
func (r *Recorder) PageRepeated(category string) {
	r.pagesRepeated.WithLabelValues(category).Inc()
}

// RunFinished implements catalog.Observer.
func (r *Recorder) RunFinished(err error, elapsed time.Duration) {
	code := "OK"
	if err != nil {
		code = models.CodeOf(err)
	}
	r.runs.WithLabelValues(code).Inc()
	r.runDuration.Observe(elapsed.Seconds())
}

// ObserveHTTP records one served HTTP request.
func (r *Recorder) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	r.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// StatsFunc reports the live browser load.
type StatsFunc func() models.BrowserStats

// RegisterBrowserStats exposes browser load as gauges read at scrape time.
func RegisterBrowserStats(reg prometheus.Registerer, stats StatsFunc) error {
	sessions := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "browser_active_sessions",
		Help:      "Incognito browsing sessions currently open.",
	}, func() float64 { return float64(stats().ActiveSessions) })
	pages := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "browser_open_pages",
		Help:      "Browser pages currently open.",
	}, func() float64 { return float64(stats().OpenPages) })

	if err := reg.Register(sessions); err != nil {
		return err
	}
	return reg.Register(pages)
}
