package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// unsetenv clears keys for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unset %s: %v", k, err)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	unsetenv(t, "FOO", "BAR", "QUOTED", "EXPORTED")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	writeFile(t, envPath, "\n# sample dotenv file\nFOO=alpha\nBAR = beta\nQUOTED=\"a=b c\"\nexport EXPORTED=yes\nnot a pair\n")

	if err := LoadEnvFiles(envPath); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	want := map[string]string{"FOO": "alpha", "BAR": "beta", "QUOTED": "a=b c", "EXPORTED": "yes"}
	for k, v := range want {
		if got := os.Getenv(k); got != v {
			t.Fatalf("%s=%q, want %q", k, got, v)
		}
	}
}

func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	unsetenv(t, "K")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	writeFile(t, a, "K=first\n")
	writeFile(t, b, "K=second\n")

	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

func TestLoadEnvFiles_ProcessEnvWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-process")
	p := filepath.Join(t.TempDir(), ".env")
	writeFile(t, p, "OPENAI_API_KEY=from-file\n")
	if err := LoadEnvFiles(p); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("OPENAI_API_KEY"); got != "from-process" {
		t.Fatalf("OPENAI_API_KEY=%q, want from-process", got)
	}
}

func TestLoadEnvFiles_MissingFileIgnored(t *testing.T) {
	if err := LoadEnvFiles(filepath.Join(t.TempDir(), "nope.env"), ""); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}

func TestApplyEnvToConfig_FromEnv(t *testing.T) {
	unsetenv(t, "LLM_API_KEY")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	t.Setenv("LLM_BASE_URL", "http://localhost:1234/v1")
	t.Setenv("CACHE_DIR", "/tmp/sitesum-cache")
	t.Setenv("MAX_PAGES", "4")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("VERBOSE", "yes")

	cfg := Config{LLMModel: "explicit"}
	t.Setenv("LLM_MODEL", "from-env")
	ApplyEnvToConfig(&cfg)

	if cfg.LLMAPIKey != "sk-fallback" {
		t.Fatalf("LLMAPIKey=%q, want OPENAI_API_KEY fallback", cfg.LLMAPIKey)
	}
	if cfg.LLMModel != "explicit" {
		t.Fatalf("explicit value should win, got %q", cfg.LLMModel)
	}
	if cfg.LLMBaseURL != "http://localhost:1234/v1" || cfg.CacheDir != "/tmp/sitesum-cache" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.MaxPages != 4 || cfg.FetchTimeout != 3*time.Second || !cfg.Verbose {
		t.Fatalf("numeric/bool env not applied: %+v", cfg)
	}
}

func TestApplyEnvOverrides_ReplacesSetValues(t *testing.T) {
	t.Setenv("LLM_API_KEY", "primary")
	t.Setenv("OPENAI_API_KEY", "secondary")
	t.Setenv("OUTPUT", "out.json")
	t.Setenv("MAX_PAGES", "not-a-number")
	t.Setenv("VERBOSE", "off")

	cfg := Config{LLMAPIKey: "file", OutputPath: "file.json", MaxPages: 7, Verbose: true}
	ApplyEnvOverrides(&cfg)
	if cfg.LLMAPIKey != "primary" {
		t.Fatalf("LLM_API_KEY should take priority, got %q", cfg.LLMAPIKey)
	}
	if cfg.OutputPath != "out.json" {
		t.Fatalf("OutputPath=%q", cfg.OutputPath)
	}
	if cfg.MaxPages != 7 {
		t.Fatalf("invalid MAX_PAGES must be ignored, got %d", cfg.MaxPages)
	}
	if cfg.Verbose {
		t.Fatalf("VERBOSE=off should disable verbose")
	}
}
