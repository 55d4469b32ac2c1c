package openapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxSchemaDepth bounds nesting so pathological inputs cannot exhaust the stack
const maxSchemaDepth = 64

// pair is one key/value entry of a mapping node, in document order
type pair struct {
	key   string
	value *yaml.Node
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isMapping(n *yaml.Node) bool {
	n = resolve(n)
	return n != nil && n.Kind == yaml.MappingNode
}

func isNull(n *yaml.Node) bool {
	n = resolve(n)
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// pairs returns the entries of a mapping node. Merge keys (<<) are expanded.
func pairs(n *yaml.Node) []pair {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], resolve(n.Content[i+1])
		if k.Tag == "!!merge" {
			out = append(out, pairs(v)...)
			continue
		}
		out = append(out, pair{key: k.Value, value: v})
	}
	return out
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	for _, p := range pairs(n) {
		if p.key == key {
			return p.value
		}
	}
	return nil
}

func items(n *yaml.Node) []*yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]*yaml.Node, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, resolve(c))
	}
	return out
}

func scalar(n *yaml.Node, field string) (string, error) {
	n = resolve(n)
	if n == nil || isNull(n) {
		return "", nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%s must be a scalar", field)
	}
	return n.Value, nil
}

func boolValue(n *yaml.Node, field string) (bool, error) {
	s, err := scalar(n, field)
	if err != nil || s == "" {
		return false, err
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", field)
	}
	return b, nil
}

func intValue(n *yaml.Node, field string) (int, error) {
	s, err := scalar(n, field)
	if err != nil || s == "" {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", field)
	}
	return int(f), nil
}

func floatValue(n *yaml.Node, field string) (*float64, error) {
	s, err := scalar(n, field)
	if err != nil || s == "" {
		return nil, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", field)
	}
	return &f, nil
}

func stringList(n *yaml.Node, field string) ([]string, error) {
	n = resolve(n)
	if n == nil || isNull(n) {
		return nil, nil
	}
	if n.Kind == yaml.ScalarNode {
		return []string{n.Value}, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%s must be a list", field)
	}
	var out []string
	for _, c := range items(n) {
		if c.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%s entries must be scalars", field)
		}
		out = append(out, c.Value)
	}
	return out, nil
}

// value decodes an arbitrary node into plain Go values
func value(n *yaml.Node) any {
	n = resolve(n)
	if n == nil {
		return nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return n.Value
	}
	return normalizeValue(v)
}

// normalizeValue turns map[any]any produced by non-string keys into
// map[string]any so the value can be encoded as JSON.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeValue(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeValue(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalizeValue(e)
		}
		return t
	default:
		return v
	}
}

// DecodeSchema converts a raw schema node into a typed Schema
func DecodeSchema(n *yaml.Node) (*Schema, error) {
	if n != nil && n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	return decodeSchema(n, "#", 0)
}

func decodeSchema(n *yaml.Node, loc string, depth int) (*Schema, error) {
	n = resolve(n)
	fail := func(format string, args ...any) (*Schema, error) {
		line := 0
		if n != nil {
			line = n.Line
		}
		return nil, &SchemaDecodingError{Location: loc, Line: line, Reason: fmt.Sprintf(format, args...)}
	}
	if depth > maxSchemaDepth {
		return fail("nesting exceeds %d levels", maxSchemaDepth)
	}
	if n == nil || isNull(n) {
		return &Schema{Kind: KindUnknown}, nil
	}
	// JSON Schema allows boolean schemas: true accepts anything.
	if n.Kind == yaml.ScalarNode && n.Tag == "!!bool" {
		return &Schema{Kind: KindUnknown}, nil
	}
	if n.Kind != yaml.MappingNode {
		return fail("expected a mapping, found %s", nodeKindName(n))
	}

	s := &Schema{}
	var err error
	var types []string
	for _, p := range pairs(n) {
		child := loc + "/" + p.key
		switch p.key {
		case "$ref":
			if s.Ref, err = scalar(p.value, "$ref"); err != nil {
				return fail("%v", err)
			}
		case "type":
			if types, err = stringList(p.value, "type"); err != nil {
				return fail("%v", err)
			}
		case "format":
			s.Format, err = scalar(p.value, p.key)
		case "title":
			s.Title, err = scalar(p.value, p.key)
		case "description":
			s.Description, err = scalar(p.value, p.key)
		case "pattern":
			s.Pattern, err = scalar(p.value, p.key)
		case "minLength":
			s.MinLength, err = intValue(p.value, p.key)
		case "maxLength":
			s.MaxLength, err = optionalInt(p.value, p.key)
		case "minItems":
			s.MinItems, err = intValue(p.value, p.key)
		case "maxItems":
			s.MaxItems, err = optionalInt(p.value, p.key)
		case "minimum":
			s.Minimum, err = floatValue(p.value, p.key)
		case "maximum":
			s.Maximum, err = floatValue(p.value, p.key)
		case "multipleOf":
			s.MultipleOf, err = floatValue(p.value, p.key)
		case "exclusiveMinimum":
			s.Minimum, s.ExclusiveMinimum, err = exclusiveBound(p.value, p.key, s.Minimum)
		case "exclusiveMaximum":
			s.Maximum, s.ExclusiveMaximum, err = exclusiveBound(p.value, p.key, s.Maximum)
		case "items":
			s.Items, err = decodeSchema(p.value, child, depth+1)
		case "properties":
			if !isMapping(p.value) {
				return fail("properties must be a mapping")
			}
			for _, prop := range pairs(p.value) {
				ps, perr := decodeSchema(prop.value, child+"/"+prop.key, depth+1)
				if perr != nil {
					return nil, perr
				}
				s.Properties = append(s.Properties, &Property{Name: prop.key, Schema: ps})
			}
		case "required":
			if resolve(p.value).Kind == yaml.ScalarNode {
				// Swagger-style boolean "required" on a property; not a list.
				continue
			}
			s.Required, err = stringList(p.value, p.key)
		case "additionalProperties":
			if resolve(p.value).Kind == yaml.MappingNode {
				s.AdditionalProperties, err = decodeSchema(p.value, child, depth+1)
			}
		case "enum":
			if resolve(p.value).Kind != yaml.SequenceNode {
				return fail("enum must be a list")
			}
			for _, e := range items(p.value) {
				s.Enum = append(s.Enum, value(e))
			}
		case "const":
			s.Enum = []any{value(p.value)}
		case "allOf", "anyOf", "oneOf":
			if resolve(p.value).Kind != yaml.SequenceNode {
				return fail("%s must be a list", p.key)
			}
			for i, m := range items(p.value) {
				ms, merr := decodeSchema(m, fmt.Sprintf("%s/%d", child, i), depth+1)
				if merr != nil {
					return nil, merr
				}
				s.Members = append(s.Members, ms)
			}
			if s.Kind == KindUnknown {
				s.Kind = compositionKind(p.key)
			}
		case "not":
			var ms *Schema
			if ms, err = decodeSchema(p.value, child, depth+1); err == nil {
				s.Members = []*Schema{ms}
				if s.Kind == KindUnknown {
					s.Kind = KindNot
				}
			}
		case "default":
			s.Default = value(p.value)
		case "example":
			s.Example = value(p.value)
		case "examples":
			if ex := items(p.value); len(ex) > 0 && s.Example == nil {
				s.Example = value(ex[0])
			}
		case "nullable":
			s.Nullable, err = boolValue(p.value, p.key)
		case "deprecated":
			s.Deprecated, err = boolValue(p.value, p.key)
		case "readOnly":
			s.ReadOnly, err = boolValue(p.value, p.key)
		case "writeOnly":
			s.WriteOnly, err = boolValue(p.value, p.key)
		}
		if err != nil {
			var de *SchemaDecodingError
			if errors.As(err, &de) {
				return nil, de
			}
			return fail("%v", err)
		}
	}

	if s.Ref != "" {
		s.Kind = KindRef
		s.RefName = refName(s.Ref)
		return s, nil
	}
	if s.Kind != KindUnknown {
		return s, nil
	}

	for _, t := range types {
		if t == "null" {
			s.Nullable = true
			continue
		}
		if s.TypeName == "" {
			s.TypeName = t
		}
	}
	s.Kind = kindForType(s.TypeName)
	if s.Kind == KindUnknown && s.TypeName == "" {
		switch {
		case len(s.Properties) > 0 || s.AdditionalProperties != nil:
			s.Kind = KindObject
		case s.Items != nil:
			s.Kind = KindArray
		case len(s.Enum) > 0:
			s.Kind = kindForValue(s.Enum[0])
		}
	}
	return s, nil
}

func optionalInt(n *yaml.Node, field string) (*int, error) {
	s, err := scalar(n, field)
	if err != nil || s == "" {
		return nil, err
	}
	v, err := intValue(n, field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// exclusiveBound handles both the 3.0 boolean form and the 3.1 numeric form
func exclusiveBound(n *yaml.Node, field string, current *float64) (*float64, bool, error) {
	n = resolve(n)
	if n != nil && n.Kind == yaml.ScalarNode && n.Tag == "!!bool" {
		b, err := boolValue(n, field)
		return current, b, err
	}
	f, err := floatValue(n, field)
	if err != nil {
		return current, false, err
	}
	if f == nil {
		return current, false, nil
	}
	return f, true, nil
}

func compositionKind(key string) SchemaKind {
	switch key {
	case "allOf":
		return KindAllOf
	case "anyOf":
		return KindAnyOf
	case "oneOf":
		return KindOneOf
	}
	return KindNot
}

func kindForType(t string) SchemaKind {
	switch strings.ToLower(t) {
	case "string":
		return KindString
	case "number":
		return KindNumber
	case "integer":
		return KindInteger
	case "boolean":
		return KindBoolean
	case "array":
		return KindArray
	case "object":
		return KindObject
	}
	return KindUnknown
}

func kindForValue(v any) SchemaKind {
	switch v.(type) {
	case string:
		return KindString
	case int, int64, uint64:
		return KindInteger
	case float64:
		return KindNumber
	case bool:
		return KindBoolean
	}
	return KindUnknown
}

func nodeKindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		return fmt.Sprintf("scalar %q", n.Value)
	case yaml.DocumentNode:
		return "a document"
	}
	return "an unexpected node"
}
