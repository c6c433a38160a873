package app

import (
	"time"

	"github.com/hyperifyio/sitesum/internal/store"
)

// Defaults shared by flags, the config file overlay and the web front end.
const (
	DefaultMaxPages   = 10
	DefaultOutputPath = store.DefaultJSONPath
)

// Config holds runtime configuration for the application.
type Config struct {
	// Crawl
	StartURL string
	MaxPages int

	// Outputs. OutputPath is always written; the others only when set.
	OutputPath    string
	OutputPDFPath string
	DBPath        string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	// LLMTimeout bounds one completion call. Zero means two minutes.
	LLMTimeout time.Duration

	// Summarizer knobs; zero values fall back to the summarize package defaults.
	MaxChars  int
	MaxTokens int
	// Temperature is nil when unset, leaving the summarizer default of 0.5.
	// An explicit 0 is honoured.
	Temperature  *float32
	SystemPrompt string
	Instructions string

	// Fetching
	FetchTimeout time.Duration
	UserAgent    string

	// Cache. Empty CacheDir disables both HTTP and LLM caching.
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Web mode
	ServeAddr string

	Verbose       bool
	SkipPreflight bool
}

// ApplyDefaults fills whatever flags, env and file left unset.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
}
