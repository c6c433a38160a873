package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// apiKeyFromEnv prefers LLM_API_KEY and falls back to OPENAI_API_KEY.
func apiKeyFromEnv() string {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("OPENAI_API_KEY")
}

func envInt(key string) (int, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// envBool reports the parsed value and whether the variable was recognised.
func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = apiKeyFromEnv()
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = os.Getenv("OUTPUT")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("CACHE_DIR")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = os.Getenv("DB_PATH")
	}
	if cfg.MaxPages == 0 {
		if n, ok := envInt("MAX_PAGES"); ok {
			cfg.MaxPages = n
		}
	}
	if cfg.FetchTimeout == 0 {
		if d, ok := envDuration("FETCH_TIMEOUT"); ok {
			cfg.FetchTimeout = d
		}
	}
	if !cfg.Verbose {
		if v, ok := envBool("VERBOSE"); ok {
			cfg.Verbose = v
		}
	}
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// that are set. Used after the config file overlay so env beats file while
// flags stay highest.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := apiKeyFromEnv(); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("OUTPUT"); v != "" {
		cfg.OutputPath = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if n, ok := envInt("MAX_PAGES"); ok {
		cfg.MaxPages = n
	}
	if d, ok := envDuration("FETCH_TIMEOUT"); ok {
		cfg.FetchTimeout = d
	}
	if v, ok := envBool("VERBOSE"); ok {
		cfg.Verbose = v
	}
}
