package symbols

// Kind identifies what API concept a symbol represents
type Kind string

const (
	KindNamespace      Kind = "namespace"
	KindEndpoint       Kind = "endpoint"
	KindParameter      Kind = "parameter"
	KindRequestBody    Kind = "requestBody"
	KindResponse       Kind = "response"
	KindSchema         Kind = "schema"
	KindProperty       Kind = "property"
	KindSecurityScheme Kind = "securityScheme"
	KindServer         Kind = "server"
	KindTag            Kind = "tag"
	KindEnumCase       Kind = "enumCase"
	KindTypeAlias      Kind = "typeAlias"
)

// Kinds lists every kind in a stable order
var Kinds = []Kind{
	KindNamespace,
	KindEndpoint,
	KindParameter,
	KindRequestBody,
	KindResponse,
	KindSchema,
	KindProperty,
	KindSecurityScheme,
	KindServer,
	KindTag,
	KindEnumCase,
	KindTypeAlias,
}

// Presentation is how the documentation compiler labels a symbol kind
type Presentation struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"displayName"`
}

var presentations = map[Kind]Presentation{
	KindNamespace:      {Identifier: "module", DisplayName: "Module"},
	KindEndpoint:       {Identifier: "func", DisplayName: "Function"},
	KindParameter:      {Identifier: "var", DisplayName: "Variable"},
	KindRequestBody:    {Identifier: "struct", DisplayName: "Structure"},
	KindResponse:       {Identifier: "enum", DisplayName: "Enumeration"},
	KindSchema:         {Identifier: "struct", DisplayName: "Structure"},
	KindProperty:       {Identifier: "property", DisplayName: "Instance Property"},
	KindSecurityScheme: {Identifier: "protocol", DisplayName: "Protocol"},
	KindServer:         {Identifier: "struct", DisplayName: "Structure"},
	KindTag:            {Identifier: "enum", DisplayName: "Enumeration"},
	KindEnumCase:       {Identifier: "enum.case", DisplayName: "Case"},
	KindTypeAlias:      {Identifier: "typealias", DisplayName: "Type Alias"},
}

// Presentation returns the compiler label for k. Unknown kinds are
// presented as plain variables.
func (k Kind) Presentation() Presentation {
	if p, ok := presentations[k]; ok {
		return p
	}
	return Presentation{Identifier: "var", DisplayName: "Variable"}
}

// Valid reports whether k is one of the declared kinds
func (k Kind) Valid() bool {
	_, ok := presentations[k]
	return ok
}
