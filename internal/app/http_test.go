package app

import (
	"net/http"
	"testing"
	"time"
)

func TestNewLLMHTTPClient(t *testing.T) {
	c := newLLMHTTPClient(0)
	if c.Timeout != defaultLLMTimeout {
		t.Fatalf("Timeout=%v, want default", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", c.Transport)
	}
	if tr == http.DefaultTransport {
		t.Fatalf("transport must be a clone")
	}
	if tr.Proxy == nil || tr.TLSHandshakeTimeout != 5*time.Second {
		t.Fatalf("unexpected transport settings")
	}
	if got := newLLMHTTPClient(30 * time.Second).Timeout; got != 30*time.Second {
		t.Fatalf("explicit timeout ignored: %v", got)
	}
}
