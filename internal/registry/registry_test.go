package registry

import "testing"

func TestParse_YAML(t *testing.T) {
	content := `
schemas:
  - title: Petstore
    downloads_to_file: petstore.yaml
    can_download_from: https://example.com/petstore.yaml
  - title: Sample
    downloads_to_file: sample.yaml
    can_download_from: https://example.com/sample.yaml
    example: true
`
	reg, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(reg.Schemas) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(reg.Schemas))
	}
	if reg.Schemas[0].Title != "Petstore" {
		t.Errorf("Expected first entry Petstore, got %q", reg.Schemas[0].Title)
	}
	if reg.Schemas[0].CanDownloadFrom != "https://example.com/petstore.yaml" {
		t.Errorf("Unexpected download URL %q", reg.Schemas[0].CanDownloadFrom)
	}
	if !reg.Schemas[1].Example {
		t.Error("Expected second entry flagged as example")
	}
}

func TestParse_JSON(t *testing.T) {
	content := `{"schemas":[{"title":"Billing","downloads_to_file":"billing.json","can_download_from":"https://example.com/billing.json"}]}`

	reg, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(reg.Schemas) != 1 || reg.Schemas[0].Title != "Billing" {
		t.Errorf("Expected Billing entry, got %v", reg.Schemas)
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("schemas: [unclosed")); err == nil {
		t.Error("Expected error for malformed document")
	}
}

func TestCandidates_ExcludesExamples(t *testing.T) {
	reg := &Registry{Schemas: []Entry{
		{Title: "Petstore"},
		{Title: "Sample", Example: true},
		{Title: "Billing"},
	}}

	candidates := reg.Candidates()
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Title != "Petstore" || candidates[1].Title != "Billing" {
		t.Errorf("Expected examples excluded in order, got %v", candidates)
	}
}

func TestCandidates_Empty(t *testing.T) {
	reg := &Registry{}
	if candidates := reg.Candidates(); len(candidates) != 0 {
		t.Errorf("Expected no candidates, got %v", candidates)
	}
}
