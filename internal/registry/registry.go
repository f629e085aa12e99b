// Package registry parses the external schema registry document that
// lists downloadable OpenAPI specs. The registry is consumed, never
// produced, by this tool.
package registry

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry is one schema listed in a registry document
type Entry struct {
	Title           string `json:"title" yaml:"title"`
	DownloadsToFile string `json:"downloads_to_file" yaml:"downloads_to_file"`
	CanDownloadFrom string `json:"can_download_from" yaml:"can_download_from"`
	Example         bool   `json:"example,omitempty" yaml:"example,omitempty"`
}

// Registry is a parsed registry document
type Registry struct {
	Schemas []Entry `json:"schemas" yaml:"schemas"`
}

// Parse reads a registry document from JSON or YAML text
func Parse(content []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(content, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return &reg, nil
}

// Candidates returns the non-example entries, the ones offered for
// download in the schema picker
func (r *Registry) Candidates() []Entry {
	var result []Entry
	for _, entry := range r.Schemas {
		if entry.Example {
			continue
		}
		result = append(result, entry)
	}
	return result
}
