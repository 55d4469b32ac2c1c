package openapi

import (
	"sort"
	"strings"
)

// Document is the normalized, strongly typed form of an API description.
// Collections are stored pre-sorted so callers can iterate deterministically.
type Document struct {
	OpenAPI    string
	Info       Info
	Servers    []*Server
	Tags       []*Tag
	Paths      []*PathItem
	Components Components
	Security   []*SecurityRequirement

	// Warnings collects recoverable problems found while normalizing
	// operation-level schemas. Component schema failures live on the
	// corresponding NamedSchema instead.
	Warnings []error
}

// Info holds document metadata
type Info struct {
	Title       string
	Version     string
	Description string
	Contact     *Contact
}

// Contact holds the API owner's contact information
type Contact struct {
	Name  string
	Email string
	URL   string
}

// IsEmpty reports whether no contact field is set
func (c *Contact) IsEmpty() bool {
	return c == nil || (c.Name == "" && c.Email == "" && c.URL == "")
}

// Server is a base URL the API is served from
type Server struct {
	URL         string
	Description string
}

// Tag groups operations
type Tag struct {
	Name        string
	Description string
}

// PathItem holds every operation declared for one path
type PathItem struct {
	Path       string
	Operations []*Operation
}

// Operation is a single method on a path
type Operation struct {
	Method      string
	Path        string
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	Parameters  []*Parameter
	RequestBody *RequestBody
	Responses   []*Response

	// Security is the operation-level requirement list. HasSecurity
	// distinguishes an explicit empty list (no auth) from an absent one,
	// which inherits Document.Security.
	Security    []*SecurityRequirement
	HasSecurity bool
}

// Parameter is an operation input outside the request body
type Parameter struct {
	Name        string
	In          string
	Description string
	Required    bool
	Deprecated  bool
	Schema      *Schema
	Example     any
}

// RequestBody describes the operation payload
type RequestBody struct {
	Description string
	Required    bool
	Content     []*MediaType
}

// Response describes the result for one status code
type Response struct {
	StatusCode  string
	Description string
	Content     []*MediaType
}

// MediaType is one content-type entry of a request body or response
type MediaType struct {
	Name     string
	Schema   *Schema
	Example  any
	Examples []*Example
}

// Example is a named example value
type Example struct {
	Name    string
	Summary string
	Value   any
}

// SecurityRequirement names a security scheme and the scopes it needs
type SecurityRequirement struct {
	Scheme string
	Scopes []string
}

// SecurityScheme is a reusable authentication definition
type SecurityScheme struct {
	Name         string
	Type         string
	Scheme       string
	In           string
	ParamName    string
	BearerFormat string
	Description  string
}

// Components holds the reusable definitions of a document
type Components struct {
	Schemas         []*NamedSchema
	SecuritySchemes []*SecurityScheme
}

// NamedSchema is a reusable schema definition. When the raw definition
// cannot be decoded, Schema is nil and DecodeErr explains why.
type NamedSchema struct {
	Name      string
	Schema    *Schema
	DecodeErr error
}

// FindSchema returns the named component schema, or nil
func (d *Document) FindSchema(name string) *NamedSchema {
	i := sort.Search(len(d.Components.Schemas), func(i int) bool {
		return d.Components.Schemas[i].Name >= name
	})
	if i < len(d.Components.Schemas) && d.Components.Schemas[i].Name == name {
		return d.Components.Schemas[i]
	}
	return nil
}

// FindSecurityScheme returns the named security scheme, or nil
func (d *Document) FindSecurityScheme(name string) *SecurityScheme {
	for _, s := range d.Components.SecuritySchemes {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Operations returns every operation in path then method order
func (d *Document) Operations() []*Operation {
	var ops []*Operation
	for _, item := range d.Paths {
		ops = append(ops, item.Operations...)
	}
	return ops
}

// EffectiveSecurity returns the requirements that apply to op
func (d *Document) EffectiveSecurity(op *Operation) []*SecurityRequirement {
	if op.HasSecurity {
		return op.Security
	}
	return d.Security
}

// Methods lists the HTTP verbs in the order operations are emitted.
var Methods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

func methodRank(method string) int {
	for i, m := range Methods {
		if m == method {
			return i
		}
	}
	return len(Methods)
}

func sortOperations(ops []*Operation) {
	sort.SliceStable(ops, func(i, j int) bool {
		return methodRank(ops[i].Method) < methodRank(ops[j].Method)
	})
}

// sortResponses orders numeric status codes first, then range codes such
// as 4XX, then "default".
func sortResponses(responses []*Response) {
	rank := func(code string) int {
		switch {
		case code == "default":
			return 2
		case strings.ContainsAny(strings.ToUpper(code), "X"):
			return 1
		default:
			return 0
		}
	}
	sort.SliceStable(responses, func(i, j int) bool {
		ri, rj := rank(responses[i].StatusCode), rank(responses[j].StatusCode)
		if ri != rj {
			return ri < rj
		}
		return responses[i].StatusCode < responses[j].StatusCode
	})
}
