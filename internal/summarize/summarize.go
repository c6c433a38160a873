package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/sitesum/internal/budget"
	"github.com/hyperifyio/sitesum/internal/cache"
	"github.com/hyperifyio/sitesum/internal/llm"
)

const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultMaxChars    = 3000
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.5

	DefaultSystemPrompt = "You are a helpful summarizer."

	// DefaultInstructions opens the user message; the URL and page text follow it.
	DefaultInstructions = `You are an expert web content summarizer. Your goal is to read the following webpage content and produce a concise, readable summary in 5–7 sentences.`

	defaultGuidelines = `Instructions:
- Capture the main purpose of the webpage.
- Highlight key services, ideas, or features mentioned.
- Omit repetitive, promotional, or legal content.
- Avoid listing navigation/menu items or unrelated side info.
- Use clear, human-like language.`
)

var (
	// ErrNotConfigured is returned when no client or model is set.
	ErrNotConfigured = errors.New("summarizer not configured")
	// ErrEmptySummary means the service answered without usable text.
	ErrEmptySummary = errors.New("empty summary")
)

// Summarizer produces a short prose summary of one page through a chat
// completion call. It makes exactly one call per page and never retries.
type Summarizer struct {
	Client llm.Client
	Model  string
	// MaxChars caps the page text sent, counted in characters. Zero means DefaultMaxChars.
	MaxChars int
	// MaxTokens bounds the completion. Zero means DefaultMaxTokens.
	MaxTokens int
	// Temperature is sent as given, including 0. New sets DefaultTemperature.
	Temperature float32
	// SystemPrompt and Instructions override the defaults when non-empty.
	SystemPrompt string
	Instructions string
	// Optional response cache keyed by model and full prompt.
	Cache *cache.LLMCache
}

// New returns a Summarizer with the default sampling settings.
func New(client llm.Client, model string) *Summarizer {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Summarizer{
		Client:      client,
		Model:       model,
		MaxChars:    DefaultMaxChars,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// Summarize returns the trimmed content of the first completion choice for
// the page at sourceURL.
func (s *Summarizer) Summarize(ctx context.Context, text string, sourceURL string) (string, error) {
	if s == nil || s.Client == nil || strings.TrimSpace(s.Model) == "" {
		return "", ErrNotConfigured
	}
	system := s.systemPrompt()
	user := s.userMessage(text, sourceURL)

	var key string
	if s.Cache != nil {
		key = cache.KeyFrom(s.Model, system+"\n\n"+user)
		if raw, ok, _ := s.Cache.Get(ctx, key); ok {
			var hit struct {
				Summary string `json:"summary"`
			}
			if err := json.Unmarshal(raw, &hit); err == nil && strings.TrimSpace(hit.Summary) != "" {
				return hit.Summary, nil
			}
		}
	}

	est := budget.ForChat(s.Model, system, user, s.maxTokens())
	if !est.Fits() {
		log.Warn().Str("url", sourceURL).Str("model", s.Model).
			Int("prompt_tokens", est.PromptTokens).Int("context_tokens", est.ContextTokens).
			Msg("prompt may exceed model context")
	}

	resp, err := s.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: wireTemperature(s.Temperature),
		MaxTokens:   s.maxTokens(),
		N:           1,
	})
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", sourceURL, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarize %s: no choices: %w", sourceURL, ErrEmptySummary)
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("summarize %s: %w", sourceURL, ErrEmptySummary)
	}
	if s.Cache != nil {
		payload, _ := json.Marshal(map[string]string{"summary": out})
		_ = s.Cache.Save(ctx, key, payload)
	}
	return out, nil
}

// wireTemperature maps 0 to the smallest positive float32. go-openai omits a
// zero temperature from the request, which would leave the server default.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func (s *Summarizer) systemPrompt() string {
	if strings.TrimSpace(s.SystemPrompt) != "" {
		return s.SystemPrompt
	}
	return DefaultSystemPrompt
}

func (s *Summarizer) maxTokens() int {
	if s.MaxTokens > 0 {
		return s.MaxTokens
	}
	return DefaultMaxTokens
}

func (s *Summarizer) maxChars() int {
	if s.MaxChars > 0 {
		return s.MaxChars
	}
	return DefaultMaxChars
}

func (s *Summarizer) userMessage(text, sourceURL string) string {
	instructions := DefaultInstructions
	if strings.TrimSpace(s.Instructions) != "" {
		instructions = s.Instructions
	}
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\nURL: ")
	sb.WriteString(sourceURL)
	sb.WriteString("\n\n")
	sb.WriteString(defaultGuidelines)
	sb.WriteString("\n\nWebpage Content:\n")
	sb.WriteString(Truncate(text, s.maxChars()))
	return sb.String()
}

// Truncate returns the first n characters of s. It cuts on rune boundaries
// only; no attempt is made to end on a word or sentence.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
