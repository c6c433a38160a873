package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	URL       string `yaml:"url" json:"url"`
	MaxPages  int    `yaml:"maxPages" json:"maxPages"`
	Output    string `yaml:"output" json:"output"`
	OutputPDF string `yaml:"outputPDF" json:"outputPDF"`
	DB        string `yaml:"db" json:"db"`

	LLM struct {
		BaseURL string        `yaml:"base" json:"base"`
		Model   string        `yaml:"model" json:"model"`
		APIKey  string        `yaml:"key" json:"key"`
		Timeout time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"llm" json:"llm"`

	Summarize struct {
		MaxChars         int      `yaml:"maxChars" json:"maxChars"`
		MaxTokens        int      `yaml:"maxTokens" json:"maxTokens"`
		Temperature      *float32 `yaml:"temperature" json:"temperature"`
		SystemPrompt     string   `yaml:"systemPrompt" json:"systemPrompt"`
		Instructions     string   `yaml:"instructions" json:"instructions"`
		InstructionsFile string   `yaml:"instructionsFile" json:"instructionsFile"`
	} `yaml:"summarize" json:"summarize"`

	Fetch struct {
		Timeout   time.Duration `yaml:"timeout" json:"timeout"`
		UserAgent string        `yaml:"userAgent" json:"userAgent"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Serve   string `yaml:"serve" json:"serve"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	if fc.Summarize.InstructionsFile != "" && fc.Summarize.Instructions == "" {
		p := fc.Summarize.InstructionsFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		ib, err := os.ReadFile(p)
		if err != nil {
			return fc, fmt.Errorf("read instructions file: %w", err)
		}
		fc.Summarize.Instructions = string(ib)
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for fields that are unset
// or still at their flag default, so explicit flags win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.StartURL == "" && fc.URL != "" {
		cfg.StartURL = fc.URL
	}
	if (cfg.MaxPages == 0 || cfg.MaxPages == DefaultMaxPages) && fc.MaxPages > 0 {
		cfg.MaxPages = fc.MaxPages
	}
	if (cfg.OutputPath == "" || cfg.OutputPath == DefaultOutputPath) && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.OutputPDFPath == "" && fc.OutputPDF != "" {
		cfg.OutputPDFPath = fc.OutputPDF
	}
	if cfg.DBPath == "" && fc.DB != "" {
		cfg.DBPath = fc.DB
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if cfg.LLMTimeout == 0 && fc.LLM.Timeout > 0 {
		cfg.LLMTimeout = fc.LLM.Timeout
	}

	if cfg.MaxChars == 0 && fc.Summarize.MaxChars > 0 {
		cfg.MaxChars = fc.Summarize.MaxChars
	}
	if cfg.MaxTokens == 0 && fc.Summarize.MaxTokens > 0 {
		cfg.MaxTokens = fc.Summarize.MaxTokens
	}
	if cfg.Temperature == nil && fc.Summarize.Temperature != nil {
		v := *fc.Summarize.Temperature
		cfg.Temperature = &v
	}
	if cfg.SystemPrompt == "" && fc.Summarize.SystemPrompt != "" {
		cfg.SystemPrompt = fc.Summarize.SystemPrompt
	}
	if cfg.Instructions == "" && fc.Summarize.Instructions != "" {
		cfg.Instructions = fc.Summarize.Instructions
	}

	if cfg.FetchTimeout == 0 && fc.Fetch.Timeout > 0 {
		cfg.FetchTimeout = fc.Fetch.Timeout
	}
	if cfg.UserAgent == "" && fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}

	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if cfg.ServeAddr == "" && fc.Serve != "" {
		cfg.ServeAddr = fc.Serve
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal validation of required settings. A start
// URL is only required for one-shot runs; web mode takes it per request.
func ValidateConfig(cfg Config) error {
	if cfg.ServeAddr == "" {
		if strings.TrimSpace(cfg.StartURL) == "" {
			return errors.New("config: url is required (or use -serve)")
		}
		u, err := url.Parse(cfg.StartURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: url %q must be an absolute http(s) URL", cfg.StartURL)
		}
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return errors.New("config: output path is required")
	}
	if cfg.MaxPages < 0 || cfg.MaxChars < 0 || cfg.MaxTokens < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if t := cfg.Temperature; t != nil && (*t < 0 || *t > 2) {
		return errors.New("config: temperature must be between 0 and 2")
	}
	return nil
}
