package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hyperifyio/sitesum/internal/crawl"
)

// Metrics implements crawl.Observer on top of Prometheus collectors.
type Metrics struct {
	Fetches       *prometheus.CounterVec
	Failures      *prometheus.CounterVec
	Summaries     prometheus.Counter
	Crawls        *prometheus.CounterVec
	PagesPerCrawl prometheus.Histogram
	CrawlSeconds  prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitesum_fetches_total",
			Help: "Page fetches that reached the server, by HTTP status code.",
		}, []string{"status"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitesum_page_failures_total",
			Help: "Pages skipped, by the stage that failed.",
		}, []string{"stage"}),
		Summaries: f.NewCounter(prometheus.CounterOpts{
			Name: "sitesum_summaries_total",
			Help: "Pages summarized successfully.",
		}),
		Crawls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sitesum_crawls_total",
			Help: "Finished crawls, by result.",
		}, []string{"result"}),
		PagesPerCrawl: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitesum_crawl_visited_pages",
			Help:    "Visited pages per crawl.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		CrawlSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitesum_crawl_duration_seconds",
			Help:    "Wall time of a crawl.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

func (m *Metrics) PageFetched(_ string, status int) {
	m.Fetches.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (m *Metrics) PageFailed(_ string, stage crawl.Stage) {
	m.Failures.WithLabelValues(string(stage)).Inc()
}

func (m *Metrics) PageSummarized(string) {
	m.Summaries.Inc()
}

func (m *Metrics) CrawlFinished(o crawl.Outcome) {
	result := "ok"
	if o.Err != nil {
		result = "empty"
	}
	m.Crawls.WithLabelValues(result).Inc()
	m.PagesPerCrawl.Observe(float64(o.Visited))
	m.CrawlSeconds.Observe(o.Duration.Seconds())
}
