package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/zacpr/api-explorer/internal/models"
)

// DefaultBaseURL is used when a spec declares no servers
const DefaultBaseURL = "http://localhost"

var (
	// ErrParse indicates malformed JSON/YAML input
	ErrParse = errors.New("schema parse error")
	// ErrDereference indicates a $ref that could not be resolved.
	// Circular references are not dereference errors; they are tolerated.
	ErrDereference = errors.New("schema dereference error")
)

// Parser handles OpenAPI 3 specification parsing
type Parser struct{}

// NewParser creates a new OpenAPI parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses an OpenAPI 3 specification into a flattened schema.
// The loader resolves $refs and breaks reference cycles instead of
// recursing into them, so circular specs load without hanging.
func (p *Parser) Parse(content string) (*models.ParsedSchema, error) {
	// Distinguish malformed text from reference-resolution failures:
	// if the raw document does not even parse, the loader error is a
	// parse error, not a dereference error.
	var raw interface{}
	if err := yaml.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if _, ok := raw.(map[string]interface{}); !ok {
		return nil, fmt.Errorf("%w: document is not an object", ErrParse)
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromData([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDereference, err)
	}

	schema := &models.ParsedSchema{
		BaseURL: DefaultBaseURL,
		Raw:     content,
	}
	if doc.Info != nil {
		schema.Title = doc.Info.Title
		schema.Version = doc.Info.Version
	}
	if len(doc.Servers) > 0 && doc.Servers[0].URL != "" {
		schema.BaseURL = doc.Servers[0].URL
	}

	schema.Operations = p.extractOperations(doc)
	schema.Tags = collectTags(schema.Operations)

	return schema, nil
}

// extractOperations extracts all operations from the OpenAPI document
func (p *Parser) extractOperations(doc *openapi3.T) []*models.Operation {
	var operations []*models.Operation
	seen := make(map[string]int)

	for pathPattern, pathItem := range doc.Paths.Map() {
		if pathItem == nil {
			continue
		}

		// Process each HTTP method
		methods := map[string]*openapi3.Operation{
			"GET":     pathItem.Get,
			"POST":    pathItem.Post,
			"PUT":     pathItem.Put,
			"PATCH":   pathItem.Patch,
			"DELETE":  pathItem.Delete,
			"HEAD":    pathItem.Head,
			"OPTIONS": pathItem.Options,
		}

		for method, op := range methods {
			if op == nil {
				continue
			}

			operationID := op.OperationID
			if operationID == "" {
				// Synthesize an ID if the spec does not provide one
				operationID = fmt.Sprintf("%s_%s", method, sanitizePath(pathPattern))
			}
			// Keep IDs unique within a loaded schema
			if n, dup := seen[operationID]; dup {
				seen[operationID] = n + 1
				operationID = fmt.Sprintf("%s_%d", operationID, n+1)
			} else {
				seen[operationID] = 1
			}

			operation := &models.Operation{
				OperationID: operationID,
				Method:      method,
				Path:        pathPattern,
				Summary:     op.Summary,
				Description: op.Description,
				Tags:        op.Tags,
				Parameters:  mergeParameters(pathItem.Parameters, op.Parameters),
				RequestBody: describeRequestBody(op.RequestBody),
				Responses:   describeResponses(op.Responses),
			}

			operations = append(operations, operation)
		}
	}

	// Paths.Map iteration order is random; keep listings stable
	sort.Slice(operations, func(i, j int) bool {
		if operations[i].Path != operations[j].Path {
			return operations[i].Path < operations[j].Path
		}
		return operations[i].Method < operations[j].Method
	})

	return operations
}

// mergeParameters merges path-level and operation-level parameters,
// deduplicating by (location, name) with the operation level winning
func mergeParameters(pathLevel, opLevel openapi3.Parameters) []models.Parameter {
	type key struct{ in, name string }

	merged := make(map[key]models.Parameter)
	var order []key

	add := func(params openapi3.Parameters) {
		for _, ref := range params {
			if ref == nil || ref.Value == nil {
				continue
			}
			p := ref.Value
			k := key{in: p.In, name: p.Name}
			if _, exists := merged[k]; !exists {
				order = append(order, k)
			}
			merged[k] = models.Parameter{
				Name:        p.Name,
				In:          p.In,
				Required:    p.Required,
				Description: p.Description,
				Schema:      describeSchema(p.Schema),
			}
		}
	}

	add(pathLevel)
	add(opLevel)

	if len(order) == 0 {
		return nil
	}

	result := make([]models.Parameter, 0, len(order))
	for _, k := range order {
		result = append(result, merged[k])
	}
	return result
}

// describeSchema flattens a schema ref to a shallow map. The full kin-openapi
// structure can contain reference cycles, which must not leak into values
// that get marshaled to JSON later.
func describeSchema(ref *openapi3.SchemaRef) interface{} {
	if ref == nil || ref.Value == nil {
		return nil
	}
	s := ref.Value

	desc := make(map[string]interface{})
	if t := s.Type; t != nil && len(t.Slice()) > 0 {
		desc["type"] = t.Slice()[0]
	}
	if s.Format != "" {
		desc["format"] = s.Format
	}
	if len(s.Enum) > 0 {
		desc["enum"] = s.Enum
	}
	if s.Default != nil {
		desc["default"] = s.Default
	}
	if s.Example != nil {
		desc["example"] = s.Example
	}
	if len(desc) == 0 {
		return nil
	}
	return desc
}

// describeRequestBody flattens a request body to its content types
func describeRequestBody(ref *openapi3.RequestBodyRef) interface{} {
	if ref == nil || ref.Value == nil {
		return nil
	}
	body := map[string]interface{}{
		"required": ref.Value.Required,
	}
	if ref.Value.Description != "" {
		body["description"] = ref.Value.Description
	}
	var types []string
	for mediaType := range ref.Value.Content {
		types = append(types, mediaType)
	}
	sort.Strings(types)
	if len(types) > 0 {
		body["contentTypes"] = types
	}
	return body
}

// describeResponses flattens declared responses to status -> description
func describeResponses(responses *openapi3.Responses) map[string]interface{} {
	if responses == nil || responses.Len() == 0 {
		return nil
	}
	result := make(map[string]interface{})
	for status, ref := range responses.Map() {
		if ref == nil || ref.Value == nil {
			continue
		}
		desc := ""
		if ref.Value.Description != nil {
			desc = *ref.Value.Description
		}
		result[status] = map[string]interface{}{"description": desc}
	}
	return result
}

// collectTags gathers a sorted, deduplicated tag list across operations
func collectTags(operations []*models.Operation) []string {
	set := make(map[string]struct{})
	for _, op := range operations {
		for _, tag := range op.Tags {
			set[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// sanitizePath converts a path to a valid identifier
func sanitizePath(pathPattern string) string {
	var b strings.Builder
	for _, r := range pathPattern {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if s := b.String(); len(s) == 0 || s[len(s)-1] != '_' {
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// SearchOperations filters operations by a case-insensitive substring match
// against id, summary, description, path, and tags. A blank query returns
// the input unfiltered.
func SearchOperations(operations []*models.Operation, query string) []*models.Operation {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return operations
	}

	var result []*models.Operation
	for _, op := range operations {
		haystack := strings.ToLower(strings.Join(append([]string{
			op.OperationID,
			op.Summary,
			op.Description,
			op.Path,
		}, op.Tags...), " "))
		if strings.Contains(haystack, query) {
			result = append(result, op)
		}
	}
	return result
}

// FilterByTag returns only operations carrying the exact tag
func FilterByTag(operations []*models.Operation, tag string) []*models.Operation {
	var result []*models.Operation
	for _, op := range operations {
		for _, t := range op.Tags {
			if t == tag {
				result = append(result, op)
				break
			}
		}
	}
	return result
}

// FilterByMethod returns only operations with the exact HTTP method
func FilterByMethod(operations []*models.Operation, method string) []*models.Operation {
	var result []*models.Operation
	for _, op := range operations {
		if op.Method == method {
			result = append(result, op)
		}
	}
	return result
}
