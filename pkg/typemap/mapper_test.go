package typemap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/symbolgraph/pkg/openapi"
)

func ptr[T any](v T) *T { return &v }

func TestCanonicalType_Primitives(t *testing.T) {
	tests := []struct {
		name   string
		schema *openapi.Schema
		want   string
	}{
		{"plain string", &openapi.Schema{Kind: openapi.KindString}, TypeString},
		{"date", &openapi.Schema{Kind: openapi.KindString, Format: "date"}, TypeDate},
		{"date-time", &openapi.Schema{Kind: openapi.KindString, Format: "date-time"}, TypeDate},
		{"uri", &openapi.Schema{Kind: openapi.KindString, Format: "uri"}, TypeURL},
		{"uuid", &openapi.Schema{Kind: openapi.KindString, Format: "uuid"}, TypeUUID},
		{"binary", &openapi.Schema{Kind: openapi.KindString, Format: "binary"}, TypeData},
		{"email stays string", &openapi.Schema{Kind: openapi.KindString, Format: "email"}, TypeString},
		{"number", &openapi.Schema{Kind: openapi.KindNumber}, TypeDouble},
		{"float", &openapi.Schema{Kind: openapi.KindNumber, Format: "float"}, TypeFloat},
		{"integer", &openapi.Schema{Kind: openapi.KindInteger}, TypeInt},
		{"int32", &openapi.Schema{Kind: openapi.KindInteger, Format: "int32"}, TypeInt32},
		{"int64", &openapi.Schema{Kind: openapi.KindInteger, Format: "int64"}, TypeInt64},
		{"boolean", &openapi.Schema{Kind: openapi.KindBoolean}, TypeBool},
		{"ref", &openapi.Schema{Kind: openapi.KindRef, Ref: "#/components/schemas/User", RefName: "User"}, "User"},
		{"nil", nil, TypeAny},
		{"unknown", &openapi.Schema{Kind: openapi.KindUnknown}, TypeAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalType(tt.schema))
		})
	}
}

func TestMap_NumericBounds(t *testing.T) {
	d := Map(&openapi.Schema{
		Kind:    openapi.KindInteger,
		Minimum: ptr(0.0),
		Maximum: ptr(100.0),
	})

	assert.Equal(t, TypeInt, d.CanonicalType)
	assert.Contains(t, d.Documentation, "Minimum value: 0")
	assert.Contains(t, d.Documentation, "Maximum value: 100")
	assert.NotContains(t, d.Documentation, "100.0")
}

func TestMap_IntegerFractionalBounds(t *testing.T) {
	tests := []struct {
		name   string
		schema *openapi.Schema
		want   string
	}{
		{"multiple of", &openapi.Schema{Kind: openapi.KindInteger, MultipleOf: ptr(2.5)}, "Multiple of: 2.5"},
		{"minimum", &openapi.Schema{Kind: openapi.KindInteger, Minimum: ptr(0.5)}, "Minimum value: 0.5"},
		{"maximum", &openapi.Schema{Kind: openapi.KindInteger, Format: "int64", Maximum: ptr(99.9)}, "Maximum value: 99.9"},
		{"whole", &openapi.Schema{Kind: openapi.KindInteger, MultipleOf: ptr(5.0)}, "Multiple of: 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Map(tt.schema).Documentation)
		})
	}
}

func TestMap_ExclusiveBounds(t *testing.T) {
	d := Map(&openapi.Schema{
		Kind:             openapi.KindNumber,
		Minimum:          ptr(0.5),
		ExclusiveMinimum: true,
		Maximum:          ptr(10.0),
		MultipleOf:       ptr(0.25),
	})

	assert.Equal(t, "Minimum value (exclusive): 0.5\nMaximum value: 10\nMultiple of: 0.25", d.Documentation)
}

func TestMap_StringConstraints(t *testing.T) {
	d := Map(&openapi.Schema{
		Kind:      openapi.KindString,
		Format:    "email",
		Pattern:   "^.+@.+$",
		MinLength: 3,
		MaxLength: ptr(254),
		Enum:      []any{"a", "b"},
		Nullable:  true,
	})

	assert.Equal(t, "Format: `email`\nPattern: `^.+@.+$`\nMinimum length: 3\nMaximum length: 254\nAllowed values: a, b\nNullable", d.Documentation)
}

func TestMap_ZeroMinLengthOmitted(t *testing.T) {
	d := Map(&openapi.Schema{Kind: openapi.KindString, MaxLength: ptr(0)})
	assert.Equal(t, "Maximum length: 0", d.Documentation)
}

func TestMap_Array(t *testing.T) {
	d := Map(&openapi.Schema{
		Kind:     openapi.KindArray,
		MinItems: 1,
		MaxItems: ptr(5),
		Items:    &openapi.Schema{Kind: openapi.KindInteger, Format: "int32", Minimum: ptr(1.0)},
	})

	assert.Equal(t, "[Int32]", d.CanonicalType)
	assert.Equal(t, "Minimum items: 1\nMaximum items: 5\nArray items:\n  Type: `Int32`\n  Minimum value: 1", d.Documentation)
}

func TestMap_ArrayWithoutItems(t *testing.T) {
	d := Map(&openapi.Schema{Kind: openapi.KindArray})
	assert.Equal(t, "[Any]", d.CanonicalType)
	assert.Contains(t, d.Documentation, "Type: `Any`")
}

func TestMap_Object(t *testing.T) {
	tests := []struct {
		name     string
		schema   *openapi.Schema
		wantType string
		wantDocs string
	}{
		{
			name: "properties",
			schema: &openapi.Schema{
				Kind: openapi.KindObject,
				Properties: []*openapi.Property{
					{Name: "id", Schema: &openapi.Schema{Kind: openapi.KindInteger, Format: "int64"}},
					{Name: "name", Schema: &openapi.Schema{Kind: openapi.KindString}},
				},
				Required: []string{"id", "name"},
			},
			wantType: "{id: Int64, name: String}",
			wantDocs: "Required properties: id, name",
		},
		{
			name:     "free form",
			schema:   &openapi.Schema{Kind: openapi.KindObject},
			wantType: TypeMap,
		},
		{
			name: "additional properties",
			schema: &openapi.Schema{
				Kind:                 openapi.KindObject,
				AdditionalProperties: &openapi.Schema{Kind: openapi.KindBoolean},
			},
			wantType: "[String: Bool]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Map(tt.schema)
			assert.Equal(t, tt.wantType, d.CanonicalType)
			assert.Equal(t, tt.wantDocs, d.Documentation)
		})
	}
}

func TestMap_Composition(t *testing.T) {
	a := &openapi.Schema{Kind: openapi.KindRef, RefName: "A", Ref: "#/components/schemas/A"}
	b := &openapi.Schema{Kind: openapi.KindRef, RefName: "B", Ref: "#/components/schemas/B"}

	tests := []struct {
		kind     openapi.SchemaKind
		members  []*openapi.Schema
		wantType string
		wantDocs string
	}{
		{openapi.KindAllOf, []*openapi.Schema{a, b}, "A & B", "Includes all properties of: A, B"},
		{openapi.KindAnyOf, []*openapi.Schema{a, b}, "A | B", "Could be any of: A, B"},
		{openapi.KindOneOf, []*openapi.Schema{a, b}, "A | B", "Must be exactly one of: A, B"},
		{openapi.KindNot, []*openapi.Schema{a}, TypeAny, "Must not be: A"},
		{openapi.KindOneOf, nil, TypeAny, UnknownNote},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			d := Map(&openapi.Schema{Kind: tt.kind, Members: tt.members})
			assert.Equal(t, tt.wantType, d.CanonicalType)
			assert.Equal(t, tt.wantDocs, d.Documentation)
		})
	}
}

func TestMap_CompositionWithOwnProperties(t *testing.T) {
	base := &openapi.Schema{Kind: openapi.KindRef, RefName: "Base", Ref: "#/components/schemas/Base"}
	other := &openapi.Schema{Kind: openapi.KindRef, RefName: "Other", Ref: "#/components/schemas/Other"}
	props := []*openapi.Property{
		{Name: "name", Schema: &openapi.Schema{Kind: openapi.KindString}},
		{Name: "tag", Schema: &openapi.Schema{Kind: openapi.KindString}},
	}

	tests := []struct {
		name     string
		schema   *openapi.Schema
		wantType string
		wantDocs string
	}{
		{
			name:     "allOf folds properties in",
			schema:   &openapi.Schema{Kind: openapi.KindAllOf, Members: []*openapi.Schema{base}, Properties: props, Required: []string{"name"}},
			wantType: "Base & {name: String, tag: String}",
			wantDocs: "Includes all properties of: Base\nRequired properties: name",
		},
		{
			name:     "oneOf lists own properties",
			schema:   &openapi.Schema{Kind: openapi.KindOneOf, Members: []*openapi.Schema{base, other}, Properties: props},
			wantType: "Base | Other",
			wantDocs: "Must be exactly one of: Base, Other\nOwn properties: `{name: String, tag: String}`",
		},
		{
			name:     "properties without members",
			schema:   &openapi.Schema{Kind: openapi.KindAllOf, Properties: props},
			wantType: "{name: String, tag: String}",
		},
		{
			name:     "required without properties",
			schema:   &openapi.Schema{Kind: openapi.KindAllOf, Members: []*openapi.Schema{base}, Required: []string{"id"}},
			wantType: "Base",
			wantDocs: "Includes all properties of: Base\nRequired properties: id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Map(tt.schema)
			assert.Equal(t, tt.wantType, d.CanonicalType)
			assert.Equal(t, tt.wantDocs, d.Documentation)
		})
	}
}

func TestMap_UnknownIsTotal(t *testing.T) {
	d := Map(&openapi.Schema{Kind: openapi.KindUnknown, TypeName: "file"})
	assert.Equal(t, TypeAny, d.CanonicalType)
	assert.Equal(t, UnknownNote+"\nDeclared type: `file`", d.Documentation)

	d = Map(nil)
	assert.Equal(t, TypeAny, d.CanonicalType)
	assert.Equal(t, UnknownNote, d.Documentation)
}

func TestMap_DepthBounded(t *testing.T) {
	s := &openapi.Schema{Kind: openapi.KindString}
	for i := 0; i < maxDepth*2; i++ {
		s = &openapi.Schema{Kind: openapi.KindArray, Items: s}
	}

	d := Map(s)
	assert.Contains(t, d.CanonicalType, TypeAny)
}

func TestMap_Flags(t *testing.T) {
	d := Map(&openapi.Schema{Kind: openapi.KindBoolean, Deprecated: true, ReadOnly: true, WriteOnly: true})
	assert.Equal(t, "Deprecated\nRead only\nWrite only", d.Documentation)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "100", FormatNumber(100))
	assert.Equal(t, "-3", FormatNumber(-3))
	assert.Equal(t, "2.5", FormatNumber(2.5))
	assert.Equal(t, "1e+20", FormatNumber(1e20))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "null", FormatValue(nil))
	assert.Equal(t, "7", FormatValue(7.0))
	assert.Equal(t, "7", FormatValue(7))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "red, 2, null", FormatValues([]any{"red", 2, nil}))
}
