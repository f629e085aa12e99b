// Package executor performs HTTP calls for resolved operations and
// classifies their outcomes. Failures never escape as Go errors; every
// outcome is captured in an ExecutionResult.
package executor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/zacpr/api-explorer/internal/models"
	"github.com/zacpr/api-explorer/internal/request"
)

// DefaultTimeoutMs is applied when no timeout is given
const DefaultTimeoutMs = 30000

// ProxyTargetHeader carries the true scheme+host through the passthrough
const ProxyTargetHeader = "X-Proxy-Target"

// Options control one execution
type Options struct {
	TimeoutMs int    `json:"timeoutMs,omitempty"`
	UseProxy  bool   `json:"useProxy,omitempty"`
	ProxyBase string `json:"proxyBase,omitempty"`
}

// Engine executes resolved requests
type Engine struct {
	client *http.Client
}

// NewEngine creates an execution engine
func NewEngine() *Engine {
	// Per-request deadlines come from the context; the client itself
	// carries no timeout so cancellation classification stays accurate
	return &Engine{client: &http.Client{}}
}

// ExecuteRequest issues the HTTP call described by cfg. The context carries
// the caller's cancellation signal; a timeout timer is layered on top of it.
// Both abort the transport-level call and yield a failure with no response,
// distinguishable by message.
func (e *Engine) ExecuteRequest(ctx context.Context, cfg models.RequestConfig, opts Options) *models.ExecutionResult {
	timeoutMs := opts.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = DefaultTimeoutMs
	}

	targetURL := cfg.URL
	headers := cfg.Headers
	if opts.UseProxy {
		rewritten, proxyHeaders, err := rewriteForProxy(targetURL, opts.ProxyBase, headers)
		if err != nil {
			return &models.ExecutionResult{Success: false, Error: fmt.Sprintf("invalid request URL: %v", err)}
		}
		targetURL = rewritten
		headers = proxyHeaders
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	var body io.Reader
	if cfg.Body != "" {
		body = strings.NewReader(cfg.Body)
	}

	req, err := http.NewRequestWithContext(reqCtx, cfg.Method, targetURL, body)
	if err != nil {
		return &models.ExecutionResult{Success: false, Error: fmt.Sprintf("invalid request: %v", err)}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return &models.ExecutionResult{Success: false, Error: classifyTransportError(ctx, err, timeoutMs)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.ExecutionResult{Success: false, Error: classifyTransportError(ctx, err, timeoutMs)}
	}

	elapsed := time.Since(start).Milliseconds()
	if elapsed == 0 {
		elapsed = 1
	}

	response := &models.ResponseData{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header,
		Body:       string(respBody),
		DurationMs: elapsed,
	}
	if isJSONContentType(resp.Header.Get("Content-Type")) && gjson.ValidBytes(respBody) {
		response.Data = gjson.ParseBytes(respBody).Value()
	}

	// A non-2xx response is a normal, fully populated result: callers
	// inspect status and body, they do not get a transport error
	return &models.ExecutionResult{
		Success:  resp.StatusCode >= 200 && resp.StatusCode < 300,
		Response: response,
	}
}

// ExecuteOperation resolves an operation with the given parameter values
// and executes it. A blank base URL fails fast without a network call.
func (e *Engine) ExecuteOperation(ctx context.Context, baseURL string, op *models.Operation, params models.OperationParams, opts Options) *models.ExecutionResult {
	if strings.TrimSpace(baseURL) == "" {
		return &models.ExecutionResult{
			Success: false,
			Error:   "no base URL configured: load a schema with a server URL or set one explicitly",
		}
	}

	targetURL := request.BuildRequestURL(baseURL, op.Path, params.Path, orderedQuery(op, params.Query))
	headers := request.BuildHeaders(params.Header, nil, params.Body != "")

	return e.ExecuteRequest(ctx, models.RequestConfig{
		Method:  op.Method,
		URL:     targetURL,
		Headers: headers,
		Body:    params.Body,
	}, opts)
}

// orderedQuery orders query values by the operation's declared parameter
// order, with undeclared extras appended in sorted order
func orderedQuery(op *models.Operation, query map[string]string) [][2]string {
	if len(query) == 0 {
		return nil
	}

	var entries [][2]string
	used := make(map[string]bool, len(query))

	for _, p := range op.Parameters {
		if p.In != "query" {
			continue
		}
		if value, ok := query[p.Name]; ok && !used[p.Name] {
			entries = append(entries, [2]string{p.Name, value})
			used[p.Name] = true
		}
	}

	var extras []string
	for key := range query {
		if !used[key] {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		entries = append(entries, [2]string{key, query[key]})
	}

	return entries
}

// AuthHeaders maps a decrypted credential to the headers it contributes
func AuthHeaders(cred *models.DecryptedCredential) map[string]string {
	if cred == nil {
		return nil
	}
	switch cred.AuthType {
	case models.AuthAPIKey:
		if cred.APIKey == "" {
			return nil
		}
		return map[string]string{"Authorization": "Bearer " + cred.APIKey}
	case models.AuthBasic:
		if cred.Username == "" && cred.Password == "" {
			return nil
		}
		raw := cred.Username + ":" + cred.Password
		return map[string]string{"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))}
	}
	return nil
}

// rewriteForProxy routes the target through the local passthrough,
// carrying the original scheme+host in a side-channel header
func rewriteForProxy(rawURL, proxyBase string, headers map[string]string) (string, map[string]string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", nil, fmt.Errorf("url %q has no scheme or host", rawURL)
	}

	rewritten := strings.TrimSuffix(proxyBase, "/") + parsed.RequestURI()

	withTarget := make(map[string]string, len(headers)+1)
	for key, value := range headers {
		withTarget[key] = value
	}
	withTarget[ProxyTargetHeader] = parsed.Scheme + "//" + parsed.Host

	return rewritten, withTarget, nil
}

// classifyTransportError turns a transport failure into a descriptive
// message: timeout and cancellation are distinguishable, everything else
// is a network failure with a remediation hint
func classifyTransportError(callerCtx context.Context, err error, timeoutMs int) string {
	if errors.Is(err, context.Canceled) || callerCtx.Err() == context.Canceled {
		return "request cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("request timed out after %dms", timeoutMs)
	}
	return fmt.Sprintf("network error: %v (check that the server is reachable, or try proxy mode for CORS-restricted targets)", err)
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}
