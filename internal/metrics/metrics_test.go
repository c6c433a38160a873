package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hyperifyio/sitesum/internal/crawl"
)

func TestMetrics_CountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	var _ crawl.Observer = m

	m.PageFetched("u", 200)
	m.PageFetched("u", 200)
	m.PageFetched("u", 404)
	m.PageFailed("u", crawl.StageStatus)
	m.PageFailed("u", crawl.StageFetch)
	m.PageSummarized("u")
	m.CrawlFinished(crawl.Outcome{Visited: 2, Duration: time.Second})
	m.CrawlFinished(crawl.Outcome{Err: crawl.ErrNoPages})

	if got := testutil.ToFloat64(m.Fetches.WithLabelValues("200")); got != 2 {
		t.Fatalf("200 fetches=%v", got)
	}
	if got := testutil.ToFloat64(m.Failures.WithLabelValues("fetch")); got != 1 {
		t.Fatalf("fetch failures=%v", got)
	}
	if got := testutil.ToFloat64(m.Summaries); got != 1 {
		t.Fatalf("summaries=%v", got)
	}
	if got := testutil.ToFloat64(m.Crawls.WithLabelValues("empty")); got != 1 {
		t.Fatalf("empty crawls=%v", got)
	}
	if n, err := testutil.GatherAndCount(reg, "sitesum_crawl_visited_pages"); err != nil || n != 1 {
		t.Fatalf("histogram count n=%d err=%v", n, err)
	}
}
