package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newRouter(model)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newRouter(model string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	r.Post("/v1/chat/completions", handleChat)
	return r
}

func handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	var sys, user string
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			sys = strings.TrimSpace(m.Content)
		case "user":
			user = m.Content
		}
	}
	if !strings.Contains(sys, "summarizer") {
		http.Error(w, "unexpected system", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{
		"id":     "stub-" + time.Now().UTC().Format("20060102150405"),
		"object": "chat.completion",
		"model":  req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": stubSummary(user)},
		}},
	})
}

// stubSummary builds a deterministic summary from the URL line and the first
// words of the page content.
func stubSummary(user string) string {
	var pageURL, content string
	if i := strings.Index(user, "URL: "); i >= 0 {
		pageURL, _, _ = strings.Cut(user[i+len("URL: "):], "\n")
	}
	if i := strings.Index(user, "Webpage Content:\n"); i >= 0 {
		content = user[i+len("Webpage Content:\n"):]
	}
	words := strings.Fields(content)
	if len(words) > 12 {
		words = words[:12]
	}
	if len(words) == 0 {
		return "The page at " + strings.TrimSpace(pageURL) + " has no readable content."
	}
	return "The page at " + strings.TrimSpace(pageURL) + " begins: " + strings.Join(words, " ") + "."
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
