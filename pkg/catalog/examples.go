package catalog

import (
	"encoding/json"
	"strings"

	"github.com/platinummonkey/symbolgraph/pkg/openapi"
)

// maxExampleDepth bounds nested objects in synthesized samples
const maxExampleDepth = 6

// ExampleGenerator synthesizes sample payloads for schemas that carry no
// explicit example. References are resolved against the document.
type ExampleGenerator struct {
	doc *openapi.Document
}

// NewExampleGenerator creates a generator for doc
func NewExampleGenerator(doc *openapi.Document) *ExampleGenerator {
	return &ExampleGenerator{doc: doc}
}

// Sample returns a sample value for s
func (g *ExampleGenerator) Sample(s *openapi.Schema) any {
	return g.sample("", s, 0, map[string]bool{})
}

// SampleJSON returns an indented JSON sample for s, or "" when none can be built
func (g *ExampleGenerator) SampleJSON(s *openapi.Schema) string {
	v := g.Sample(s)
	if v == nil {
		return ""
	}
	return renderJSON(v)
}

func (g *ExampleGenerator) sample(name string, s *openapi.Schema, depth int, visiting map[string]bool) any {
	if s == nil || depth > maxExampleDepth {
		return nil
	}
	if s.Example != nil {
		return s.Example
	}
	if s.Default != nil {
		return s.Default
	}
	if len(s.Enum) > 0 {
		return s.Enum[0]
	}

	switch s.Kind {
	case openapi.KindRef:
		if visiting[s.RefName] || g.doc == nil {
			return nil
		}
		named := g.doc.FindSchema(s.RefName)
		if named == nil || named.Schema == nil {
			return nil
		}
		visiting[s.RefName] = true
		defer delete(visiting, s.RefName)
		return g.sample(name, named.Schema, depth+1, visiting)
	case openapi.KindString:
		return sampleString(name, s.Format)
	case openapi.KindInteger:
		if s.Minimum != nil {
			return int64(*s.Minimum)
		}
		return 42
	case openapi.KindNumber:
		if s.Minimum != nil {
			return *s.Minimum
		}
		return 3.14
	case openapi.KindBoolean:
		return true
	case openapi.KindArray:
		item := g.sample(name, s.Items, depth+1, visiting)
		if item == nil {
			return []any{}
		}
		return []any{item}
	case openapi.KindObject:
		return g.properties(s, depth, visiting, nil)
	case openapi.KindAllOf:
		merged := make(map[string]any)
		for _, m := range s.Members {
			if obj, ok := g.sample(name, m, depth+1, visiting).(map[string]any); ok {
				for k, v := range obj {
					merged[k] = v
				}
			}
		}
		return g.properties(s, depth, visiting, merged)
	case openapi.KindAnyOf, openapi.KindOneOf:
		for _, m := range s.Members {
			if v := g.sample(name, m, depth+1, visiting); v != nil {
				return v
			}
		}
	}
	return nil
}

// properties samples the declared properties of s into obj
func (g *ExampleGenerator) properties(s *openapi.Schema, depth int, visiting map[string]bool, obj map[string]any) map[string]any {
	if obj == nil {
		obj = make(map[string]any, len(s.Properties))
	}
	for _, p := range s.Properties {
		if v := g.sample(p.Name, p.Schema, depth+1, visiting); v != nil {
			obj[p.Name] = v
		}
	}
	return obj
}

// sampleString picks a value from the format first, then from field name
// heuristics.
func sampleString(fieldName, format string) string {
	switch format {
	case "date":
		return "2024-01-15"
	case "date-time":
		return "2024-01-15T09:30:00Z"
	case "uri", "url":
		return "https://example.com/resource"
	case "uuid":
		return "3fa85f64-5717-4562-b3fc-2c963f66afa6"
	case "email":
		return "user@example.com"
	case "byte":
		return "ZXhhbXBsZQ=="
	case "binary":
		return "<binary>"
	case "password":
		return "********"
	}

	lower := strings.ToLower(fieldName)
	switch {
	case strings.Contains(lower, "email"):
		return "user@example.com"
	case strings.Contains(lower, "name"):
		return "Example Name"
	case strings.HasSuffix(lower, "id"):
		return "example-id-123"
	case strings.Contains(lower, "url"):
		return "https://example.com"
	}
	return "example value"
}

func renderJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
