package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPassthrough_RelaysRequestAndResponse(t *testing.T) {
	var gotPath, gotHeader, gotProxyHeader string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotHeader = r.Header.Get("Authorization")
		gotProxyHeader = r.Header.Get(TargetHeader)
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("brewed"))
	}))
	defer upstream.Close()

	p := NewPassthrough()

	req := httptest.NewRequest("GET", "/pets?limit=5", nil)
	req.Header.Set(TargetHeader, strings.Replace(upstream.URL, "://", "//", 1))
	req.Header.Set("Authorization", "Bearer k")
	w := httptest.NewRecorder()

	p.ServeHTTP(w, req)

	if gotPath != "/pets?limit=5" {
		t.Errorf("Expected path+query forwarded, got %q", gotPath)
	}
	if gotHeader != "Bearer k" {
		t.Errorf("Expected Authorization forwarded, got %q", gotHeader)
	}
	if gotProxyHeader != "" {
		t.Error("Expected target header stripped before forwarding")
	}

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected upstream status relayed, got %d", w.Code)
	}
	if w.Header().Get("X-Upstream") != "yes" {
		t.Error("Expected upstream headers relayed")
	}
	body, _ := io.ReadAll(w.Body)
	if string(body) != "brewed" {
		t.Errorf("Expected upstream body relayed, got %q", body)
	}
}

func TestPassthrough_MissingTargetHeader(t *testing.T) {
	p := NewPassthrough()

	req := httptest.NewRequest("GET", "/pets", nil)
	w := httptest.NewRecorder()

	p.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestPassthrough_UnreachableTarget(t *testing.T) {
	p := NewPassthrough()

	req := httptest.NewRequest("GET", "/pets", nil)
	req.Header.Set(TargetHeader, "http//127.0.0.1:1")
	w := httptest.NewRecorder()

	p.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}
}
