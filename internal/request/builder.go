// Package request resolves operations and parameter values into concrete
// HTTP request parts. All functions are pure.
package request

import (
	"net/url"
	"strings"
)

// BuildRequestURL substitutes path parameters into the template and appends
// a query string. Missing path parameters leave the literal placeholder in
// place. Query entries with empty values are skipped. Query entries keep
// their insertion order.
func BuildRequestURL(base, pathTemplate string, pathParams map[string]string, queryParams [][2]string) string {
	resolved := pathTemplate
	for name, value := range pathParams {
		placeholder := "{" + name + "}"
		resolved = strings.ReplaceAll(resolved, placeholder, url.PathEscape(value))
	}

	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(resolved, "/") {
		resolved = "/" + resolved
	}

	var query strings.Builder
	for _, entry := range queryParams {
		key, value := entry[0], entry[1]
		if value == "" {
			continue
		}
		if query.Len() > 0 {
			query.WriteByte('&')
		}
		query.WriteString(url.QueryEscape(key))
		query.WriteByte('=')
		query.WriteString(url.QueryEscape(value))
	}

	result := base + resolved
	if query.Len() > 0 {
		result += "?" + query.String()
	}
	return result
}

// QueryParams converts a map to ordered query entries. Map iteration order
// is not defined, so callers that need a specific order should build the
// entries directly.
func QueryParams(params map[string]string) [][2]string {
	if len(params) == 0 {
		return nil
	}
	entries := make([][2]string, 0, len(params))
	for key, value := range params {
		entries = append(entries, [2]string{key, value})
	}
	return entries
}

// BuildHeaders starts from the defaults, overlays non-empty header
// parameters, and sets Content-Type to application/json only when a body
// is present and neither layer already set one. An explicit Content-Type
// from either layer is never overridden.
func BuildHeaders(headerParams, defaultHeaders map[string]string, hasBody bool) map[string]string {
	headers := make(map[string]string, len(defaultHeaders)+len(headerParams))
	for key, value := range defaultHeaders {
		headers[key] = value
	}
	for key, value := range headerParams {
		if value == "" {
			// Empty values are dropped, not forwarded as empty headers
			continue
		}
		headers[key] = value
	}

	if hasBody && !hasContentType(headers) {
		headers["Content-Type"] = "application/json"
	}
	return headers
}

func hasContentType(headers map[string]string) bool {
	for key := range headers {
		if strings.EqualFold(key, "Content-Type") {
			return true
		}
	}
	return false
}
