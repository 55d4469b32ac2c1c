package openapi

import "strings"

// SchemaKind tags which variant of Schema is populated
type SchemaKind int

const (
	KindUnknown SchemaKind = iota
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindArray
	KindObject
	KindAllOf
	KindAnyOf
	KindOneOf
	KindNot
	KindRef
)

func (k SchemaKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindAllOf:
		return "allOf"
	case KindAnyOf:
		return "anyOf"
	case KindOneOf:
		return "oneOf"
	case KindNot:
		return "not"
	case KindRef:
		return "$ref"
	default:
		return "unknown"
	}
}

// IsComposition reports whether k combines member schemas
func (k SchemaKind) IsComposition() bool {
	return k == KindAllOf || k == KindAnyOf || k == KindOneOf || k == KindNot
}

// Schema is a tagged schema node. Kind decides which fields are meaningful:
// string fields for KindString, numeric bounds for KindNumber/KindInteger,
// Items for KindArray, Properties for KindObject and compositions, Members for compositions
// (a single member for KindNot) and Ref/RefName for KindRef.
type Schema struct {
	Kind SchemaKind

	// TypeName is the raw type keyword, kept for unknown types
	TypeName    string
	Format      string
	Title       string
	Description string

	// String constraints
	Pattern   string
	MinLength int
	MaxLength *int

	// Numeric constraints
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64

	// Array constraints
	Items    *Schema
	MinItems int
	MaxItems *int

	// Object shape
	Properties           []*Property
	Required             []string
	AdditionalProperties *Schema

	// Composition members
	Members []*Schema

	// Reference target
	Ref     string
	RefName string

	Enum       []any
	Default    any
	Example    any
	Nullable   bool
	Deprecated bool
	ReadOnly   bool
	WriteOnly  bool
}

// Property is a named member of an object schema
type Property struct {
	Name   string
	Schema *Schema
}

// HasProperties reports whether s declares its own properties. Compositions
// such as allOf plus properties count as well as plain objects.
func (s *Schema) HasProperties() bool {
	return s != nil && s.Kind != KindRef && len(s.Properties) > 0
}

// IsRequired reports whether the named property is listed as required
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Property returns the named property schema, or nil
func (s *Schema) Property(name string) *Schema {
	if s == nil {
		return nil
	}
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// refName returns the last segment of a JSON pointer reference
func refName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
