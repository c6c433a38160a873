// Package budget estimates whether a chat prompt fits a model's context
// window. Estimates are heuristic; nothing here tokenizes.
package budget

import (
	"math"
	"strings"
	"unicode/utf8"
)

// DefaultContextTokens is assumed for models missing from the table.
const DefaultContextTokens = 8192

// EstimateTokens approximates the token count of s at four characters per
// token, rounded up.
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return int(math.Ceil(float64(n) / 4.0))
}

// ModelContextTokens returns the context window for model, matching the
// table first and then common size suffixes like "-32k".
func ModelContextTokens(model string) int {
	name := strings.ToLower(strings.TrimSpace(model))
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for _, s := range suffixSizes {
		if strings.HasSuffix(name, s.suffix) {
			return s.tokens
		}
	}
	return DefaultContextTokens
}

// Estimate is the sizing of one completion request.
type Estimate struct {
	PromptTokens  int
	OutputTokens  int
	ContextTokens int
}

// Fits reports whether prompt plus reserved output stays inside the window.
func (e Estimate) Fits() bool {
	return e.PromptTokens+e.OutputTokens <= e.ContextTokens
}

// ForChat sizes a system+user message pair against model.
func ForChat(model, system, user string, maxOutput int) Estimate {
	if maxOutput < 0 {
		maxOutput = 0
	}
	return Estimate{
		PromptTokens:  EstimateTokens(system) + EstimateTokens(user),
		OutputTokens:  maxOutput,
		ContextTokens: ModelContextTokens(model),
	}
}

var knownModelMax = map[string]int{
	"gpt-3.5-turbo":      16_385,
	"gpt-3.5-turbo-0613": 4_096,
	"gpt-4":              8_192,
	"gpt-4-turbo":        128_000,
	"gpt-4o":             128_000,
	"gpt-4o-mini":        128_000,
	"llama-3":            8_192,
	"llama-3.1":          128_000,
	"gpt-oss-20b":        4_096,
}

var suffixSizes = []struct {
	suffix string
	tokens int
}{
	{"128k", 128_000},
	{"32k", 32_768},
	{"16k", 16_384},
	{"8k", 8_192},
	{"4k", 4_096},
}
