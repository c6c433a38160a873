package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestOpenAIProvider_UsesBaseURLAndKey(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "done"}},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Options{APIKey: "secret", BaseURL: srv.URL + "/v1", HTTPClient: srv.Client()})
	resp, err := p.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model:    "m",
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "done" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization=%q", gotAuth)
	}
	if !strings.HasSuffix(gotPath, "/v1/chat/completions") {
		t.Fatalf("path=%q", gotPath)
	}
}

func TestOpenAIProvider_ImplementsModelLister(t *testing.T) {
	var c Client = NewOpenAIProvider(Options{})
	if _, ok := c.(ModelLister); !ok {
		t.Fatalf("expected OpenAIProvider to implement ModelLister")
	}
}
