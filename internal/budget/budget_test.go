package budget

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"ääää", 1}, // counted in characters, not bytes
		{strings.Repeat("x", 400), 100},
	}
	for _, c := range cases {
		if got := EstimateTokens(c.in); got != c.want {
			t.Fatalf("EstimateTokens(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestModelContextTokens(t *testing.T) {
	if got := ModelContextTokens(" GPT-3.5-Turbo "); got != 16_385 {
		t.Fatalf("gpt-3.5-turbo = %d", got)
	}
	if got := ModelContextTokens("mistral-7b-32k"); got != 32_768 {
		t.Fatalf("suffix heuristic = %d", got)
	}
	if got := ModelContextTokens("something-new"); got != DefaultContextTokens {
		t.Fatalf("unknown model = %d", got)
	}
}

func TestForChat_Fits(t *testing.T) {
	e := ForChat("gpt-4", "sys", strings.Repeat("y", 4000), 300)
	if e.PromptTokens != 1001 || e.OutputTokens != 300 || !e.Fits() {
		t.Fatalf("unexpected estimate %+v", e)
	}
	e = ForChat("gpt-oss-20b", "", strings.Repeat("z", 16_000), 300)
	if e.Fits() {
		t.Fatalf("expected overflow for %+v", e)
	}
}
