package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
)

// Subdirectories used under a shared cache root.
const (
	HTTPSubdir = "http"
	LLMSubdir  = "llm"
)

// store is the on-disk location shared by both cache kinds.
type store struct {
	dir string
	// strict enforces 0700 on directories and 0600 on files.
	strict bool
}

func (s store) ensure() error {
	if s.dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if s.strict {
		perm = 0o700
	}
	if err := os.MkdirAll(s.dir, perm); err != nil {
		return err
	}
	// If directory already existed and strict is on, tighten perms
	if s.strict {
		if info, err := os.Stat(s.dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(s.dir, 0o700)
		}
	}
	return nil
}

func (s store) fileMode() os.FileMode {
	if s.strict {
		return 0o600
	}
	return 0o644
}

// writeAtomic writes via a temp file and rename so readers never see a
// partially written entry.
func (s store) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, s.fileMode()); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func digest(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// KeyFrom builds an LLM cache key from model and full prompt text.
func KeyFrom(model string, prompt string) string {
	return digest(model + "\n\n" + prompt)
}
