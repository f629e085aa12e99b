package models

import "time"

// RequestConfig describes a fully resolved HTTP request ready for execution
type RequestConfig struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// ResponseData is the normalized response from an executed request
type ResponseData struct {
	StatusCode int                 `json:"statusCode"`
	Status     string              `json:"status"`
	Headers    map[string][]string `json:"headers"`
	Body       string              `json:"body"`           // raw response text
	Data       interface{}         `json:"data,omitempty"` // parsed structure for JSON responses
	DurationMs int64               `json:"durationMs"`
}

// ExecutionResult is the outcome of executing a request. Exactly one of
// the three shapes holds: success with response, HTTP failure with response
// and no error, or transport failure with error and no response.
type ExecutionResult struct {
	Success  bool          `json:"success"`
	Response *ResponseData `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// OperationParams carries user-supplied values for one operation invocation
type OperationParams struct {
	Path   map[string]string `json:"path,omitempty"`
	Query  map[string]string `json:"query,omitempty"`
	Header map[string]string `json:"header,omitempty"`
	Body   string            `json:"body,omitempty"`
}

// ExecutionEvent is a summary of one completed execution, kept for the
// live event stream and the recent-executions ring
type ExecutionEvent struct {
	ID          string    `json:"id"`
	OperationID string    `json:"operationId,omitempty"`
	Method      string    `json:"method"`
	URL         string    `json:"url"`
	StatusCode  int       `json:"statusCode,omitempty"`
	DurationMs  int64     `json:"durationMs,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
