package models

// ParsedSchema represents a fully loaded and flattened OpenAPI specification
type ParsedSchema struct {
	Title      string       `json:"title,omitempty"`
	Version    string       `json:"version,omitempty"`
	BaseURL    string       `json:"baseUrl"`
	Operations []*Operation `json:"operations"`
	Tags       []string     `json:"tags"` // sorted, deduplicated across all operations
	Raw        string       `json:"-"`    // original document text
}

// SchemaInput represents input for loading a schema
type SchemaInput struct {
	Content string `json:"content"`
	BaseURL string `json:"baseUrl,omitempty"` // overrides the spec's first server URL
}
