package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/sitesum/internal/cache"
	"github.com/hyperifyio/sitesum/internal/crawl"
	"github.com/hyperifyio/sitesum/internal/extract"
	"github.com/hyperifyio/sitesum/internal/fetch"
	"github.com/hyperifyio/sitesum/internal/llm"
	"github.com/hyperifyio/sitesum/internal/metrics"
	"github.com/hyperifyio/sitesum/internal/report"
	"github.com/hyperifyio/sitesum/internal/store"
	"github.com/hyperifyio/sitesum/internal/summarize"
)

var (
	// ErrMissingURL is returned by RunCrawl when no start URL is given.
	ErrMissingURL = errors.New("start url is required")
	// ErrNoUsablePages is returned by Run when the crawl produced no
	// summaries. The CLI maps it to a non-zero exit.
	ErrNoUsablePages = errors.New("no usable pages")
)

// App wires configuration to the crawler and its outputs.
type App struct {
	cfg      Config
	ai       llm.Client
	crawler  *crawl.Crawler
	results  *store.JSONFile
	history  *store.History
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// Option customizes New.
type Option func(*App)

// WithLLMClient replaces the OpenAI-compatible client built from cfg.
func WithLLMClient(c llm.Client) Option {
	return func(a *App) { a.ai = c }
}

// WithRegistry registers crawl metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) { a.registry = reg }
}

// New builds an App. The LLM preflight is best-effort and never fails New.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.ai == nil {
		a.ai = llm.NewOpenAIProvider(llm.Options{
			APIKey:     cfg.LLMAPIKey,
			BaseURL:    cfg.LLMBaseURL,
			HTTPClient: newLLMHTTPClient(cfg.LLMTimeout),
		})
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}
	a.metrics = metrics.New(a.registry)

	fetcher := &fetch.Client{
		UserAgent:         cfg.UserAgent,
		PerRequestTimeout: cfg.FetchTimeout,
	}
	sum := summarize.New(a.ai, cfg.LLMModel)
	if cfg.MaxChars > 0 {
		sum.MaxChars = cfg.MaxChars
	}
	if cfg.MaxTokens > 0 {
		sum.MaxTokens = cfg.MaxTokens
	}
	if cfg.Temperature != nil {
		sum.Temperature = *cfg.Temperature
	}
	sum.SystemPrompt = cfg.SystemPrompt
	sum.Instructions = cfg.Instructions

	if cfg.CacheDir != "" {
		httpDir := filepath.Join(cfg.CacheDir, cache.HTTPSubdir)
		llmDir := filepath.Join(cfg.CacheDir, cache.LLMSubdir)
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			nh, _ := cache.PurgeHTTPCacheByAge(httpDir, cfg.CacheMaxAge)
			nl, _ := cache.PurgeLLMCacheByAge(llmDir, cfg.CacheMaxAge)
			log.Debug().Int("http", nh).Int("llm", nl).Msg("cache purged by age")
		}
		fetcher.Cache = &cache.HTTPCache{Dir: httpDir, StrictPerms: cfg.CacheStrictPerms}
		sum.Cache = &cache.LLMCache{Dir: llmDir, StrictPerms: cfg.CacheStrictPerms}
	}

	a.crawler = &crawl.Crawler{
		Fetcher:    fetcher,
		Summarizer: sum,
		Extractor:  extract.HTMLExtractor{},
		Observer:   a.metrics,
	}
	a.results = &store.JSONFile{Path: cfg.OutputPath}

	if cfg.DBPath != "" {
		h, err := store.OpenHistory(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.history = h
	}

	if !cfg.SkipPreflight {
		a.preflight(ctx)
	}
	return a, nil
}

// preflight lists models to surface connectivity problems early.
func (a *App) preflight(ctx context.Context) {
	lister, ok := a.ai.(llm.ModelLister)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) > 0 {
		log.Info().Int("count", len(models.Models)).Msg("LLM models available")
	} else {
		log.Warn().Msg("LLM returned zero models")
	}
}

// Registry exposes the metrics registry for the /metrics endpoint.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// History returns the crawl history store, or nil when DBPath is unset.
func (a *App) History() *store.History { return a.history }

func (a *App) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			log.Warn().Err(err).Msg("close history")
		}
	}
}

// RunCrawl crawls from startURL and persists the results. maxPages <= 0
// means DefaultMaxPages. The returned error covers validation and
// persistence only; a crawl that found nothing reports through Outcome.Err.
func (a *App) RunCrawl(ctx context.Context, startURL string, maxPages int) (crawl.Outcome, error) {
	startURL = strings.TrimSpace(startURL)
	if startURL == "" {
		return crawl.Outcome{Results: crawl.NewResults()}, ErrMissingURL
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	req := crawl.Request{StartURL: startURL, MaxPages: maxPages}
	startedAt := time.Now()
	out := a.crawler.Run(ctx, req)

	log.Info().
		Str("url", startURL).
		Int("visited", out.Visited).
		Int("pages", out.Results.Len()).
		Dur("took", out.Duration).
		AnErr("crawl_err", out.Err).
		Msg("crawl finished")

	return out, a.persist(ctx, req, startedAt, out)
}

func (a *App) persist(ctx context.Context, req crawl.Request, startedAt time.Time, out crawl.Outcome) error {
	if err := a.results.Write(out.Results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	log.Info().Str("path", a.cfg.OutputPath).Msg("results written")

	if a.history != nil {
		id, err := a.history.Record(ctx, req, startedAt, out)
		if err != nil {
			return fmt.Errorf("record history: %w", err)
		}
		log.Debug().Int64("crawl_id", id).Msg("history recorded")
	}

	if a.cfg.OutputPDFPath != "" {
		if err := writePDFFile(a.cfg.OutputPDFPath, report.Meta{StartURL: req.StartURL, GeneratedAt: startedAt}, out.Results); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("path", a.cfg.OutputPDFPath).Msg("pdf written")
	}
	return nil
}

func writePDFFile(path string, meta report.Meta, results *crawl.Results) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WritePDF(f, meta, results); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Run performs the one-shot crawl configured by cfg.StartURL.
func (a *App) Run(ctx context.Context) error {
	out, err := a.RunCrawl(ctx, a.cfg.StartURL, a.cfg.MaxPages)
	if err != nil {
		return err
	}
	if out.Err != nil {
		return fmt.Errorf("%w: %w", ErrNoUsablePages, out.Err)
	}
	return nil
}
