package models

import "time"

// UsageRecord is one append-only record of an operation invocation
type UsageRecord struct {
	ID             string    `json:"id"`
	BookmarkID     string    `json:"bookmarkId,omitempty"`
	InstanceID     string    `json:"instanceId"`
	OperationID    string    `json:"operationId"`
	Method         string    `json:"method"`
	Path           string    `json:"path"`
	StatusCode     int       `json:"statusCode,omitempty"`
	ResponseTimeMs int64     `json:"responseTimeMs,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Success        bool      `json:"success"`
}

// UsageQuery filters and paginates history reads
type UsageQuery struct {
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
	InstanceID  string `json:"instanceId,omitempty"`
	OperationID string `json:"operationId,omitempty"`
}

// UsageHistory is one page of usage records, newest first. Total is the
// filtered count before pagination.
type UsageHistory struct {
	Records []*UsageRecord `json:"records"`
	Total   int            `json:"total"`
}

// OperationStats aggregates the successful invocations of one operation
type OperationStats struct {
	OperationID       string    `json:"operationId"`
	Count             int64     `json:"count"`
	AvgResponseTimeMs int64     `json:"avgResponseTime"`
	LastUsedAt        time.Time `json:"lastUsedAt"`
}
