package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperifyio/sitesum/internal/llm"
	"github.com/hyperifyio/sitesum/internal/summarize"
)

func TestStub_ServesSummarizer(t *testing.T) {
	srv := httptest.NewServer(newRouter("stub-model"))
	defer srv.Close()

	client := llm.NewOpenAIProvider(llm.Options{APIKey: "x", BaseURL: srv.URL + "/v1"})
	models, err := client.ListModels(context.Background())
	if err != nil || len(models.Models) != 1 || models.Models[0].ID != "stub-model" {
		t.Fatalf("models=%+v err=%v", models, err)
	}

	s := summarize.New(client, "stub-model")
	got, err := s.Summarize(context.Background(), "Hi x hello", "https://example.com")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !strings.Contains(got, "https://example.com") || !strings.Contains(got, "Hi x hello") {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestStubSummary_EmptyContent(t *testing.T) {
	got := stubSummary("intro\n\nURL: https://a.example\n\nWebpage Content:\n")
	if got != "The page at https://a.example has no readable content." {
		t.Fatalf("got %q", got)
	}
}
