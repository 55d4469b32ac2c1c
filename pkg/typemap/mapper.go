package typemap

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/platinummonkey/symbolgraph/pkg/openapi"
)

// Canonical type names
const (
	TypeString   = "String"
	TypeDate     = "Date"
	TypeURL      = "URL"
	TypeUUID     = "UUID"
	TypeData     = "Data"
	TypeFloat    = "Float"
	TypeDouble   = "Double"
	TypeInt32    = "Int32"
	TypeInt64    = "Int64"
	TypeInt      = "Int"
	TypeBool     = "Bool"
	TypeAny      = "Any"
	TypeMap      = "[String: Any]"
	UnknownNote  = "Unknown or unspecified schema type"
	ArrayHeading = "Array items:"
)

// maxDepth bounds recursion through nested items and properties
const maxDepth = 32

// Descriptor is the mapped form of one schema node
type Descriptor struct {
	CanonicalType string
	Documentation string
}

// Map returns the canonical type and constraint documentation for s.
// It never fails: unknown shapes map to Any with an explanatory note.
func Map(s *openapi.Schema) Descriptor {
	return mapSchema(s, 0)
}

// CanonicalType is shorthand for Map(s).CanonicalType
func CanonicalType(s *openapi.Schema) string {
	return Map(s).CanonicalType
}

func mapSchema(s *openapi.Schema, depth int) Descriptor {
	if s == nil || depth > maxDepth {
		return unknown()
	}

	var d Descriptor
	var lines []string

	switch s.Kind {
	case openapi.KindString:
		d.CanonicalType = stringType(s.Format)
		lines = stringDocs(s)
	case openapi.KindNumber:
		d.CanonicalType = TypeDouble
		if s.Format == "float" {
			d.CanonicalType = TypeFloat
		}
		lines = numericDocs(s)
	case openapi.KindInteger:
		d.CanonicalType = integerType(s.Format)
		lines = numericDocs(s)
	case openapi.KindBoolean:
		d.CanonicalType = TypeBool
	case openapi.KindArray:
		d.CanonicalType, lines = arrayDocs(s, depth)
	case openapi.KindObject:
		d.CanonicalType, lines = objectDocs(s, depth)
	case openapi.KindAllOf, openapi.KindAnyOf, openapi.KindOneOf, openapi.KindNot:
		d.CanonicalType, lines = compositionDocs(s, depth)
	case openapi.KindRef:
		d.CanonicalType = s.RefName
		if d.CanonicalType == "" {
			d.CanonicalType = TypeAny
		}
		lines = append(lines, fmt.Sprintf("Reference: `%s`", s.Ref))
	default:
		d = unknown()
		if s.TypeName != "" {
			lines = append(lines, fmt.Sprintf("Declared type: `%s`", s.TypeName))
		}
		lines = append([]string{d.Documentation}, lines...)
	}

	if len(s.Enum) > 0 {
		lines = append(lines, "Allowed values: "+FormatValues(s.Enum))
	}
	if s.Nullable {
		lines = append(lines, "Nullable")
	}
	if s.Deprecated {
		lines = append(lines, "Deprecated")
	}
	if s.ReadOnly {
		lines = append(lines, "Read only")
	}
	if s.WriteOnly {
		lines = append(lines, "Write only")
	}

	d.Documentation = strings.Join(lines, "\n")
	return d
}

func unknown() Descriptor {
	return Descriptor{CanonicalType: TypeAny, Documentation: UnknownNote}
}

func stringType(format string) string {
	switch format {
	case "date", "date-time":
		return TypeDate
	case "uri", "url":
		return TypeURL
	case "uuid":
		return TypeUUID
	case "byte", "binary":
		return TypeData
	}
	return TypeString
}

func integerType(format string) string {
	switch format {
	case "int32":
		return TypeInt32
	case "int64":
		return TypeInt64
	}
	return TypeInt
}

func stringDocs(s *openapi.Schema) []string {
	var lines []string
	if s.Format != "" {
		lines = append(lines, fmt.Sprintf("Format: `%s`", s.Format))
	}
	if s.Pattern != "" {
		lines = append(lines, fmt.Sprintf("Pattern: `%s`", s.Pattern))
	}
	if s.MinLength != 0 {
		lines = append(lines, fmt.Sprintf("Minimum length: %d", s.MinLength))
	}
	if s.MaxLength != nil {
		lines = append(lines, fmt.Sprintf("Maximum length: %d", *s.MaxLength))
	}
	return lines
}

// numericDocs renders bounds as declared. An integer schema may still carry
// fractional bounds such as multipleOf: 2.5.
func numericDocs(s *openapi.Schema) []string {
	var lines []string
	if s.Minimum != nil {
		label := "Minimum value"
		if s.ExclusiveMinimum {
			label += " (exclusive)"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, FormatNumber(*s.Minimum)))
	}
	if s.Maximum != nil {
		label := "Maximum value"
		if s.ExclusiveMaximum {
			label += " (exclusive)"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, FormatNumber(*s.Maximum)))
	}
	if s.MultipleOf != nil {
		lines = append(lines, fmt.Sprintf("Multiple of: %s", FormatNumber(*s.MultipleOf)))
	}
	return lines
}

func arrayDocs(s *openapi.Schema, depth int) (string, []string) {
	item := mapSchema(s.Items, depth+1)
	if s.Items == nil {
		item = Descriptor{CanonicalType: TypeAny}
	}

	var lines []string
	if s.MinItems != 0 {
		lines = append(lines, fmt.Sprintf("Minimum items: %d", s.MinItems))
	}
	if s.MaxItems != nil {
		lines = append(lines, fmt.Sprintf("Maximum items: %d", *s.MaxItems))
	}
	lines = append(lines, ArrayHeading, fmt.Sprintf("  Type: `%s`", item.CanonicalType))
	if item.Documentation != "" {
		for _, l := range strings.Split(item.Documentation, "\n") {
			lines = append(lines, "  "+l)
		}
	}
	return "[" + item.CanonicalType + "]", lines
}

func objectDocs(s *openapi.Schema, depth int) (string, []string) {
	var lines []string
	if len(s.Required) > 0 {
		lines = append(lines, "Required properties: "+strings.Join(s.Required, ", "))
	}

	if len(s.Properties) == 0 {
		if s.AdditionalProperties != nil {
			value := mapSchema(s.AdditionalProperties, depth+1)
			return "[String: " + value.CanonicalType + "]", lines
		}
		return TypeMap, lines
	}

	fields := make([]string, 0, len(s.Properties))
	for _, p := range s.Properties {
		fields = append(fields, p.Name+": "+mapSchema(p.Schema, depth+1).CanonicalType)
	}
	return "{" + strings.Join(fields, ", ") + "}", lines
}

// compositionDocs describes a composition. Properties declared next to the
// composition keyword are part of the type: allOf folds them in as one more
// member, the other keywords list them on their own line.
func compositionDocs(s *openapi.Schema, depth int) (string, []string) {
	members := make([]string, 0, len(s.Members)+1)
	for _, m := range s.Members {
		members = append(members, mapSchema(m, depth+1).CanonicalType)
	}

	var own string
	var ownLines []string
	if len(s.Properties) > 0 {
		own, ownLines = objectDocs(s, depth)
	} else if len(s.Required) > 0 {
		ownLines = []string{"Required properties: " + strings.Join(s.Required, ", ")}
	}

	if len(members) == 0 {
		if own != "" {
			return own, ownLines
		}
		return TypeAny, append(ownLines, UnknownNote)
	}
	list := strings.Join(members, ", ")

	var canonical string
	var lines []string
	switch s.Kind {
	case openapi.KindAllOf:
		all := members
		if own != "" {
			all = append(all, own)
		}
		canonical, lines = strings.Join(all, " & "), []string{"Includes all properties of: " + list}
	case openapi.KindAnyOf:
		canonical, lines = strings.Join(members, " | "), []string{"Could be any of: " + list}
	case openapi.KindOneOf:
		canonical, lines = strings.Join(members, " | "), []string{"Must be exactly one of: " + list}
	default:
		canonical, lines = TypeAny, []string{"Must not be: " + members[0]}
	}

	if own != "" && s.Kind != openapi.KindAllOf {
		lines = append(lines, fmt.Sprintf("Own properties: `%s`", own))
	}
	return canonical, append(lines, ownLines...)
}

// FormatNumber renders whole numbers without a decimal point
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatValues renders a list of enum or example values on one line
func FormatValues(values []any) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, FormatValue(v))
	}
	return strings.Join(out, ", ")
}

// FormatValue renders a single scalar value
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case float64:
		return FormatNumber(t)
	case float32:
		return FormatNumber(float64(t))
	default:
		return fmt.Sprint(t)
	}
}
