package app

import (
	"net"
	"net/http"
	"time"
)

// defaultLLMTimeout bounds one completion call; local models can be slow.
const defaultLLMTimeout = 2 * time.Minute

// newLLMHTTPClient clones the default transport with tighter dial and TLS
// handshake limits. timeout <= 0 means defaultLLMTimeout.
func newLLMHTTPClient(timeout time.Duration) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	tr.TLSHandshakeTimeout = 5 * time.Second
	tr.MaxIdleConnsPerHost = 16
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	return &http.Client{Transport: tr, Timeout: timeout}
}
