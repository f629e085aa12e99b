package models

// Parameter represents a single operation parameter from an OpenAPI spec
type Parameter struct {
	Name        string      `json:"name"`
	In          string      `json:"in"` // path, query, header, cookie
	Required    bool        `json:"required"`
	Description string      `json:"description,omitempty"`
	Schema      interface{} `json:"schema,omitempty"`
}

// Operation represents an API operation extracted from an OpenAPI spec
type Operation struct {
	OperationID string                 `json:"operationId"`
	Method      string                 `json:"method"` // GET, POST, PUT, DELETE, PATCH, etc.
	Path        string                 `json:"path"`   // Path pattern e.g., /users/{id}
	Summary     string                 `json:"summary,omitempty"`
	Description string                 `json:"description,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Parameters  []Parameter            `json:"parameters,omitempty"`
	RequestBody interface{}            `json:"requestBody,omitempty"`
	Responses   map[string]interface{} `json:"responses,omitempty"`
}

// OperationSummary is a lightweight version for listings
type OperationSummary struct {
	OperationID string   `json:"operationId"`
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	Summary     string   `json:"summary,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Summarize converts an Operation to its listing form
func (o *Operation) Summarize() OperationSummary {
	return OperationSummary{
		OperationID: o.OperationID,
		Method:      o.Method,
		Path:        o.Path,
		Summary:     o.Summary,
		Tags:        o.Tags,
	}
}
