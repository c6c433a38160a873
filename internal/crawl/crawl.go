package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/sitesum/internal/extract"
	"github.com/hyperifyio/sitesum/internal/fetch"
	"github.com/hyperifyio/sitesum/internal/urlnorm"
)

var (
	// ErrNoPages is reported when a crawl ends with no results and no
	// page-level error was recorded along the way.
	ErrNoPages = errors.New("no pages could be crawled")
	// ErrNotConfigured is reported when the crawler lacks a fetcher or summarizer.
	ErrNotConfigured = errors.New("crawler not configured")
)

// Request describes one crawl. MaxPages caps how many pages get marked
// visited; the shell is expected to default it before calling.
type Request struct {
	StartURL string
	MaxPages int
}

// Outcome is what a crawl returns. Err is non-nil only when Results is empty.
type Outcome struct {
	Results *Results
	Err     error
	// Visited counts pages fetched with status 200 and parsed.
	Visited int
	// Attempts counts dequeued URLs that were not already visited.
	Attempts int
	Duration time.Duration
}

// Fetcher retrieves a page. A returned error is a transport failure; any
// HTTP status comes back in the Response.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Response, error)
}

// Summarizer turns page text into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string, sourceURL string) (string, error)
}

// Stage names the step a page failed in.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageStatus    Stage = "status"
	StageExtract   Stage = "extract"
	StageSummarize Stage = "summarize"
)

// Observer receives per-page events. Calls happen inline on the crawl
// goroutine.
type Observer interface {
	PageFetched(url string, status int)
	PageFailed(url string, stage Stage)
	PageSummarized(url string)
	CrawlFinished(o Outcome)
}

// Crawler runs a breadth-first crawl, one page at a time.
type Crawler struct {
	Fetcher    Fetcher
	Summarizer Summarizer
	// Extractor defaults to extract.HTMLExtractor.
	Extractor extract.Extractor
	Observer  Observer
}

// Run crawls from req.StartURL until the frontier is empty or MaxPages
// pages have been visited. Per-page failures never stop the crawl.
//
// Deduplication happens when a URL is dequeued, not when it is queued, so the
// frontier can hold repeats. Only a page fetched with status 200 and parsed
// is marked visited: a URL that failed to fetch or returned another status is
// fetched again each time it comes off the queue.
func (c *Crawler) Run(ctx context.Context, req Request) Outcome {
	started := time.Now()
	out := Outcome{Results: NewResults()}
	if c.Fetcher == nil || c.Summarizer == nil {
		out.Err = ErrNotConfigured
		return out
	}

	visited := make(map[string]struct{})
	frontier := []string{urlnorm.Normalize("", req.StartURL)}
	var lastErr error

	for len(frontier) > 0 && len(visited) < req.MaxPages {
		u := urlnorm.Normalize("", frontier[0])
		frontier = frontier[1:]
		if _, ok := visited[u]; ok {
			continue
		}
		out.Attempts++
		log.Info().Str("url", u).Int("visited", len(visited)).Int("queued", len(frontier)).Msg("crawling")

		links, ok, err := c.visit(ctx, u, out.Results)
		if err != nil {
			lastErr = err
		}
		if !ok {
			continue
		}
		for _, href := range links {
			frontier = append(frontier, urlnorm.Normalize(u, href))
		}
		visited[u] = struct{}{}
	}

	out.Visited = len(visited)
	out.Duration = time.Since(started)
	if out.Results.Len() == 0 {
		out.Err = lastErr
		if out.Err == nil {
			out.Err = ErrNoPages
		}
	}
	log.Info().
		Int("results", out.Results.Len()).
		Int("visited", out.Visited).
		Int("attempts", out.Attempts).
		Dur("took", out.Duration).
		AnErr("crawl_err", out.Err).
		Msg("crawl finished")
	if c.Observer != nil {
		c.Observer.CrawlFinished(out)
	}
	return out
}

// visit processes one URL. ok reports whether the page was fetched with
// status 200 and parsed, which is what marks it visited. A non-nil error is a
// page-level failure remembered for the crawl's final report; a non-200
// status yields neither ok nor an error.
func (c *Crawler) visit(ctx context.Context, u string, results *Results) (links []string, ok bool, err error) {
	resp, err := c.Fetcher.Fetch(ctx, u)
	if err != nil {
		log.Warn().Err(err).Str("url", u).Msg("fetch failed")
		c.failed(u, StageFetch)
		return nil, false, err
	}
	c.fetched(u, resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		log.Debug().Str("url", u).Int("status", resp.StatusCode).Msg("non-200 response; skipping")
		c.failed(u, StageStatus)
		return nil, false, nil
	}

	doc, err := c.extractor().Extract(resp.Body)
	if err != nil {
		log.Warn().Err(err).Str("url", u).Msg("extract failed")
		c.failed(u, StageExtract)
		return nil, false, fmt.Errorf("extract %s: %w", u, err)
	}

	summary, err := c.Summarizer.Summarize(ctx, doc.Text, u)
	if err != nil {
		log.Warn().Err(err).Str("url", u).Msg("summarize failed; keeping links")
		c.failed(u, StageSummarize)
	} else {
		results.Set(u, PageResult{Title: doc.Title, Summary: summary})
		if c.Observer != nil {
			c.Observer.PageSummarized(u)
		}
	}

	return doc.Links, true, nil
}

func (c *Crawler) extractor() extract.Extractor {
	if c.Extractor != nil {
		return c.Extractor
	}
	return extract.HTMLExtractor{}
}

func (c *Crawler) fetched(u string, status int) {
	if c.Observer != nil {
		c.Observer.PageFetched(u, status)
	}
}

func (c *Crawler) failed(u string, stage Stage) {
	if c.Observer != nil {
		c.Observer.PageFailed(u, stage)
	}
}
