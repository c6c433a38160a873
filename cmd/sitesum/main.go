package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/sitesum/internal/app"
	"github.com/hyperifyio/sitesum/internal/web"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := app.LoadEnvFiles(".env"); err != nil {
		log.Warn().Err(err).Msg("load .env")
	}

	cfg, configPath, showVersion := parseFlags(flag.CommandLine, os.Args[1:])
	if showVersion {
		fmt.Println(app.VersionString())
		return
	}

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("load config file")
		}
		app.ApplyFileConfig(&cfg, fc)
		app.ApplyEnvOverrides(&cfg)
		// Flags beat env: re-apply whatever was passed explicitly.
		reapplyExplicitFlags(flag.CommandLine, &cfg)
	} else {
		app.ApplyEnvToConfig(&cfg)
	}
	app.ApplyDefaults(&cfg)

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if cfg.ServeAddr != "" {
		err = serve(ctx, cfg)
	} else {
		err = run(ctx, cfg)
	}
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// exitCode maps "nothing could be summarized" to 2 and every other failure to 1.
func exitCode(err error) int {
	if errors.Is(err, app.ErrNoUsablePages) {
		return 2
	}
	return 1
}

func parseFlags(fs *flag.FlagSet, args []string) (app.Config, string, bool) {
	var (
		cfg         app.Config
		configPath  string
		showVersion bool
		temperature float64
	)
	fs.StringVar(&cfg.StartURL, "url", "", "Start URL to crawl")
	fs.IntVar(&cfg.MaxPages, "max.pages", 0, "Maximum number of pages to visit (0 = 10)")
	fs.StringVar(&cfg.OutputPath, "output", "", "Path to write the JSON summaries (default page_summaries.json)")
	fs.StringVar(&cfg.OutputPDFPath, "output.pdf", "", "Optional path to write a PDF report")
	fs.StringVar(&cfg.DBPath, "db", "", "Optional SQLite database for crawl history")
	fs.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	fs.StringVar(&cfg.LLMModel, "llm.model", "", "Model name (default gpt-3.5-turbo)")
	fs.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for the OpenAI-compatible server")
	fs.DurationVar(&cfg.LLMTimeout, "llm.timeout", 0, "Timeout for one completion call (0 = 2m)")
	fs.IntVar(&cfg.MaxChars, "summarize.maxChars", 0, "Characters of page text sent for summarization (0 = 3000)")
	fs.IntVar(&cfg.MaxTokens, "summarize.maxTokens", 0, "Completion token limit (0 = 300)")
	fs.Float64Var(&temperature, "summarize.temperature", 0, "Sampling temperature 0-2; 0 is honoured (default 0.5 when unset)")
	fs.StringVar(&cfg.SystemPrompt, "summarize.systemPrompt", "", "Override the summarizer system prompt")
	fs.DurationVar(&cfg.FetchTimeout, "fetch.timeout", 0, "Per-request fetch timeout (0 = 8s)")
	fs.StringVar(&cfg.UserAgent, "fetch.ua", "", "User-Agent header for page fetches (default: Go's)")
	fs.StringVar(&cfg.CacheDir, "cache.dir", "", "Cache directory; empty disables HTTP and LLM caching")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this at startup; 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.StringVar(&cfg.ServeAddr, "serve", "", "Serve the web front end on this address instead of crawling once, e.g. :8080")
	fs.BoolVar(&cfg.SkipPreflight, "skip.preflight", false, "Skip listing models at startup")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	fs.StringVar(&configPath, "config", "", "Optional YAML or JSON config file")
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	_ = fs.Parse(args)

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "summarize.temperature" {
			t := float32(temperature)
			cfg.Temperature = &t
		}
	})
	if cfg.StartURL == "" && fs.NArg() > 0 {
		cfg.StartURL = fs.Arg(0)
	}
	return cfg, configPath, showVersion
}

// reapplyExplicitFlags restores values the user set on the command line after
// file and env overlays.
func reapplyExplicitFlags(fs *flag.FlagSet, cfg *app.Config) {
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "llm.base":
			cfg.LLMBaseURL = v
		case "llm.model":
			cfg.LLMModel = v
		case "llm.key":
			cfg.LLMAPIKey = v
		case "output":
			cfg.OutputPath = v
		case "cache.dir":
			cfg.CacheDir = v
		case "db":
			cfg.DBPath = v
		case "max.pages":
			if g, ok := f.Value.(flag.Getter); ok {
				cfg.MaxPages, _ = g.Get().(int)
			}
		case "fetch.timeout":
			if g, ok := f.Value.(flag.Getter); ok {
				cfg.FetchTimeout, _ = g.Get().(time.Duration)
			}
		case "summarize.temperature":
			if g, ok := f.Value.(flag.Getter); ok {
				if t, ok := g.Get().(float64); ok {
					ft := float32(t)
					cfg.Temperature = &ft
				}
			}
		case "v":
			cfg.Verbose = v == "true"
		}
	})
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}

func serve(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	s := &web.Server{
		Runner:          a,
		DefaultMaxPages: cfg.MaxPages,
		Gatherer:        a.Registry(),
		CrawlTimeout:    10 * time.Minute,
	}
	if h := a.History(); h != nil {
		s.History = h
	}
	srv := &http.Server{
		Addr:              cfg.ServeAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.ServeAddr).Msg("serving web front end")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
