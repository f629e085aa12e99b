package models

import "time"

// BookmarkParameters captures the saved parameter values of a bookmark
type BookmarkParameters struct {
	Path    map[string]string `json:"path,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
	Header  map[string]string `json:"header,omitempty"`
	Body    string            `json:"body,omitempty"`
	SpaceID string            `json:"spaceId,omitempty"`
}

// Bookmark is a saved, reusable invocation of an operation
type Bookmark struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InstanceID  string             `json:"instanceId"`
	OperationID string             `json:"operationId"`
	Path        string             `json:"path"`
	Method      string             `json:"method"`
	Parameters  BookmarkParameters `json:"parameters"`
	Tags        []string           `json:"tags,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	LastUsedAt  *time.Time         `json:"lastUsedAt,omitempty"`
	UseCount    int64              `json:"useCount"`
}

// BookmarkInput represents input for creating or updating a bookmark
type BookmarkInput struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InstanceID  string             `json:"instanceId"`
	OperationID string             `json:"operationId"`
	Path        string             `json:"path"`
	Method      string             `json:"method"`
	Parameters  BookmarkParameters `json:"parameters"`
	Tags        []string           `json:"tags,omitempty"`
}
