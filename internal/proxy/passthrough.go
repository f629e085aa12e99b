// Package proxy implements the local passthrough endpoint. Requests
// arrive rewritten by the executor with the true scheme+host carried in
// the X-Proxy-Target header; the passthrough relays them and copies the
// response back verbatim.
package proxy

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// TargetHeader names the side-channel header carrying scheme//host
const TargetHeader = "X-Proxy-Target"

// Passthrough relays requests to the target named in the header
type Passthrough struct {
	client *http.Client
}

// NewPassthrough creates a passthrough with a bounded upstream timeout
func NewPassthrough() *Passthrough {
	return &Passthrough{
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// ServeHTTP forwards the request to the header-named target and copies
// status, headers, and body of the response back to the caller
func (p *Passthrough) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := r.Header.Get(TargetHeader)
	if target == "" {
		http.Error(w, "missing "+TargetHeader+" header", http.StatusBadRequest)
		return
	}

	// Header carries "<scheme>//<host>"
	targetURL := strings.Replace(target, "//", "://", 1) + r.URL.RequestURI()

	upstream, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL, r.Body)
	if err != nil {
		http.Error(w, "invalid proxy target: "+err.Error(), http.StatusBadRequest)
		return
	}

	for key, values := range r.Header {
		if key == TargetHeader || strings.EqualFold(key, "Host") {
			continue
		}
		for _, value := range values {
			upstream.Header.Add(key, value)
		}
	}

	resp, err := p.client.Do(upstream)
	if err != nil {
		http.Error(w, "proxy request failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
