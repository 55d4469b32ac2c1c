package openapi

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the serialization of an input document
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "yaml"
}

// FormatFromPath picks a format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return 0, &UnsupportedFormatError{
		Path:   path,
		Reason: fmt.Sprintf("unrecognized file extension %q (expected .yaml, .yml or .json)", filepath.Ext(path)),
	}
}

// Load reads and normalizes the document at path
func Load(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParsingError{Path: path, Err: err}
	}

	doc, err := Parse(data, format)
	if err != nil {
		var pe *ParsingError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		var ue *UnsupportedFormatError
		if errors.As(err, &ue) {
			ue.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Parse decodes raw document bytes. JSON is parsed by the YAML decoder,
// which accepts it as a subset.
func Parse(data []byte, format Format) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParsingError{Err: errors.New("document is empty")}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParsingError{Err: fmt.Errorf("invalid %s: %w", format, err)}
	}

	top := resolve(&root)
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = resolve(top.Content[0])
	}
	if top.Kind != yaml.MappingNode {
		return nil, &ParsingError{Line: top.Line, Err: errors.New("document root must be a mapping")}
	}

	n := &normalizer{root: top}
	return n.document()
}

// normalizer converts the raw node tree into a Document. Local component
// references are resolved against root.
type normalizer struct {
	root     *yaml.Node
	warnings []error
}

func (n *normalizer) document() (*Document, error) {
	version, err := scalar(lookup(n.root, "openapi"), "openapi")
	if err != nil {
		return nil, &ParsingError{Err: err}
	}
	if version == "" {
		if sw, _ := scalar(lookup(n.root, "swagger"), "swagger"); sw != "" {
			return nil, &UnsupportedFormatError{Reason: fmt.Sprintf("Swagger %s documents are not supported, convert to OpenAPI 3 first", sw)}
		}
		return nil, &UnsupportedFormatError{Reason: "missing openapi version field"}
	}
	if !strings.HasPrefix(version, "3.") {
		return nil, &UnsupportedFormatError{Reason: fmt.Sprintf("OpenAPI version %s is not supported", version)}
	}

	doc := &Document{OpenAPI: version}

	if doc.Info, err = n.info(lookup(n.root, "info")); err != nil {
		return nil, err
	}
	if doc.Servers, err = n.servers(lookup(n.root, "servers")); err != nil {
		return nil, err
	}
	if doc.Tags, err = n.tags(lookup(n.root, "tags")); err != nil {
		return nil, err
	}
	if doc.Security, err = n.security(lookup(n.root, "security")); err != nil {
		return nil, err
	}

	components := lookup(n.root, "components")
	if components != nil && !isNull(components) && !isMapping(components) {
		return nil, n.parseErr(components, "components must be a mapping")
	}
	doc.Components.Schemas = n.schemas(lookup(components, "schemas"))
	if doc.Components.SecuritySchemes, err = n.securitySchemes(lookup(components, "securitySchemes")); err != nil {
		return nil, err
	}

	if doc.Paths, err = n.paths(lookup(n.root, "paths")); err != nil {
		return nil, err
	}

	doc.Warnings = n.warnings
	return doc, nil
}

func (n *normalizer) parseErr(node *yaml.Node, format string, args ...any) error {
	line := 0
	if node != nil {
		line = node.Line
	}
	return &ParsingError{Line: line, Err: fmt.Errorf(format, args...)}
}

func (n *normalizer) str(node *yaml.Node, field string) (string, error) {
	s, err := scalar(node, field)
	if err != nil {
		return "", n.parseErr(node, "%v", err)
	}
	return s, nil
}

func (n *normalizer) info(node *yaml.Node) (Info, error) {
	var info Info
	if node == nil || isNull(node) {
		return info, nil
	}
	if !isMapping(node) {
		return info, n.parseErr(node, "info must be a mapping")
	}
	var err error
	if info.Title, err = n.str(lookup(node, "title"), "info.title"); err != nil {
		return info, err
	}
	if info.Version, err = n.str(lookup(node, "version"), "info.version"); err != nil {
		return info, err
	}
	if info.Description, err = n.str(lookup(node, "description"), "info.description"); err != nil {
		return info, err
	}
	if c := lookup(node, "contact"); isMapping(c) {
		contact := &Contact{}
		contact.Name, _ = scalar(lookup(c, "name"), "name")
		contact.Email, _ = scalar(lookup(c, "email"), "email")
		contact.URL, _ = scalar(lookup(c, "url"), "url")
		if !contact.IsEmpty() {
			info.Contact = contact
		}
	}
	return info, nil
}

func (n *normalizer) servers(node *yaml.Node) ([]*Server, error) {
	var out []*Server
	for _, s := range items(node) {
		if !isMapping(s) {
			return nil, n.parseErr(s, "servers entries must be mappings")
		}
		url, err := n.str(lookup(s, "url"), "servers.url")
		if err != nil {
			return nil, err
		}
		desc, _ := scalar(lookup(s, "description"), "description")
		out = append(out, &Server{URL: url, Description: desc})
	}
	return out, nil
}

func (n *normalizer) tags(node *yaml.Node) ([]*Tag, error) {
	var out []*Tag
	for _, t := range items(node) {
		if !isMapping(t) {
			return nil, n.parseErr(t, "tags entries must be mappings")
		}
		name, err := n.str(lookup(t, "name"), "tags.name")
		if err != nil {
			return nil, err
		}
		desc, _ := scalar(lookup(t, "description"), "description")
		out = append(out, &Tag{Name: name, Description: desc})
	}
	return out, nil
}

func (n *normalizer) security(node *yaml.Node) ([]*SecurityRequirement, error) {
	var out []*SecurityRequirement
	for _, req := range items(node) {
		if !isMapping(req) {
			return nil, n.parseErr(req, "security entries must be mappings")
		}
		for _, p := range pairs(req) {
			scopes, err := stringList(p.value, "scopes")
			if err != nil {
				return nil, n.parseErr(p.value, "security scopes for %s: %v", p.key, err)
			}
			out = append(out, &SecurityRequirement{Scheme: p.key, Scopes: scopes})
		}
	}
	return out, nil
}

// schemas decodes each component schema independently so one malformed
// definition cannot fail the document.
func (n *normalizer) schemas(node *yaml.Node) []*NamedSchema {
	var out []*NamedSchema
	for _, p := range pairs(node) {
		ns := &NamedSchema{Name: p.key}
		ns.Schema, ns.DecodeErr = decodeSchema(p.value, "#/components/schemas/"+p.key, 0)
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (n *normalizer) securitySchemes(node *yaml.Node) ([]*SecurityScheme, error) {
	var out []*SecurityScheme
	for _, p := range pairs(node) {
		def := n.deref(p.value)
		if !isMapping(def) {
			return nil, n.parseErr(p.value, "security scheme %s must be a mapping", p.key)
		}
		s := &SecurityScheme{Name: p.key}
		s.Type, _ = scalar(lookup(def, "type"), "type")
		s.Scheme, _ = scalar(lookup(def, "scheme"), "scheme")
		s.In, _ = scalar(lookup(def, "in"), "in")
		s.ParamName, _ = scalar(lookup(def, "name"), "name")
		s.BearerFormat, _ = scalar(lookup(def, "bearerFormat"), "bearerFormat")
		s.Description, _ = scalar(lookup(def, "description"), "description")
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// deref follows a local "#/..." reference inside the document. External
// references are left unresolved.
func (n *normalizer) deref(node *yaml.Node) *yaml.Node {
	seen := 0
	for isMapping(node) && seen < 16 {
		ref, _ := scalar(lookup(node, "$ref"), "$ref")
		if !strings.HasPrefix(ref, "#/") {
			return node
		}
		target := n.root
		for _, part := range strings.Split(strings.TrimPrefix(ref, "#/"), "/") {
			part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
			target = lookup(target, part)
			if target == nil {
				return node
			}
		}
		node = target
		seen++
	}
	return node
}

func (n *normalizer) paths(node *yaml.Node) ([]*PathItem, error) {
	if node == nil || isNull(node) {
		return nil, nil
	}
	if !isMapping(node) {
		return nil, n.parseErr(node, "paths must be a mapping")
	}

	var out []*PathItem
	for _, p := range pairs(node) {
		if !isMapping(p.value) {
			return nil, n.parseErr(p.value, "path %s must be a mapping", p.key)
		}
		item := &PathItem{Path: p.key}

		shared, err := n.parameters(lookup(p.value, "parameters"), p.key)
		if err != nil {
			return nil, err
		}

		for _, entry := range pairs(p.value) {
			method := strings.ToLower(entry.key)
			if methodRank(method) == len(Methods) {
				continue
			}
			op, err := n.operation(entry.value, method, p.key, shared)
			if err != nil {
				return nil, err
			}
			item.Operations = append(item.Operations, op)
		}
		sortOperations(item.Operations)
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (n *normalizer) operation(node *yaml.Node, method, path string, shared []*Parameter) (*Operation, error) {
	if !isMapping(node) {
		return nil, n.parseErr(node, "operation %s %s must be a mapping", strings.ToUpper(method), path)
	}
	op := &Operation{Method: method, Path: path}
	where := strings.ToUpper(method) + " " + path

	var err error
	if op.OperationID, err = n.str(lookup(node, "operationId"), where+" operationId"); err != nil {
		return nil, err
	}
	if op.Summary, err = n.str(lookup(node, "summary"), where+" summary"); err != nil {
		return nil, err
	}
	if op.Description, err = n.str(lookup(node, "description"), where+" description"); err != nil {
		return nil, err
	}
	if op.Tags, err = stringList(lookup(node, "tags"), "tags"); err != nil {
		return nil, n.parseErr(node, "%s: %v", where, err)
	}
	if op.Deprecated, err = boolValue(lookup(node, "deprecated"), "deprecated"); err != nil {
		return nil, n.parseErr(node, "%s: %v", where, err)
	}

	own, err := n.parameters(lookup(node, "parameters"), where)
	if err != nil {
		return nil, err
	}
	op.Parameters = mergeParameters(shared, own)

	if rb := lookup(node, "requestBody"); rb != nil && !isNull(rb) {
		if op.RequestBody, err = n.requestBody(rb, where); err != nil {
			return nil, err
		}
	}

	responses := lookup(node, "responses")
	if responses != nil && !isNull(responses) && !isMapping(responses) {
		return nil, n.parseErr(responses, "%s: responses must be a mapping", where)
	}
	for _, p := range pairs(responses) {
		resp, err := n.response(p.value, p.key, where)
		if err != nil {
			return nil, err
		}
		op.Responses = append(op.Responses, resp)
	}
	sortResponses(op.Responses)

	if sec := lookup(node, "security"); sec != nil {
		op.HasSecurity = true
		if op.Security, err = n.security(sec); err != nil {
			return nil, err
		}
	}
	return op, nil
}

// mergeParameters applies operation parameters over path-level ones;
// a parameter is identified by name and location.
func mergeParameters(shared, own []*Parameter) []*Parameter {
	if len(shared) == 0 {
		return own
	}
	key := func(p *Parameter) string { return p.In + ":" + p.Name }
	overridden := make(map[string]bool, len(own))
	for _, p := range own {
		overridden[key(p)] = true
	}
	var out []*Parameter
	for _, p := range shared {
		if !overridden[key(p)] {
			out = append(out, p)
		}
	}
	return append(out, own...)
}

func (n *normalizer) parameters(node *yaml.Node, where string) ([]*Parameter, error) {
	if node == nil || isNull(node) {
		return nil, nil
	}
	if resolve(node).Kind != yaml.SequenceNode {
		return nil, n.parseErr(node, "%s: parameters must be a list", where)
	}
	var out []*Parameter
	for _, raw := range items(node) {
		def := n.deref(raw)
		if !isMapping(def) {
			return nil, n.parseErr(raw, "%s: parameter must be a mapping", where)
		}
		p := &Parameter{}
		p.Name, _ = scalar(lookup(def, "name"), "name")
		p.In, _ = scalar(lookup(def, "in"), "in")
		p.Description, _ = scalar(lookup(def, "description"), "description")
		p.Required, _ = boolValue(lookup(def, "required"), "required")
		p.Deprecated, _ = boolValue(lookup(def, "deprecated"), "deprecated")
		if ex := lookup(def, "example"); ex != nil {
			p.Example = value(ex)
		}
		p.Schema = n.inlineSchema(lookup(def, "schema"), fmt.Sprintf("%s parameter %s", where, p.Name))
		if p.Schema == nil {
			// 3.x allows content instead of schema for complex parameters
			for _, mt := range pairs(lookup(def, "content")) {
				p.Schema = n.inlineSchema(lookup(mt.value, "schema"), fmt.Sprintf("%s parameter %s", where, p.Name))
				break
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (n *normalizer) requestBody(node *yaml.Node, where string) (*RequestBody, error) {
	def := n.deref(node)
	if !isMapping(def) {
		return nil, n.parseErr(node, "%s: requestBody must be a mapping", where)
	}
	rb := &RequestBody{}
	rb.Description, _ = scalar(lookup(def, "description"), "description")
	rb.Required, _ = boolValue(lookup(def, "required"), "required")
	content, err := n.content(lookup(def, "content"), where+" requestBody")
	if err != nil {
		return nil, err
	}
	rb.Content = content
	return rb, nil
}

func (n *normalizer) response(node *yaml.Node, status, where string) (*Response, error) {
	def := n.deref(node)
	if !isMapping(def) {
		return nil, n.parseErr(node, "%s: response %s must be a mapping", where, status)
	}
	resp := &Response{StatusCode: status}
	resp.Description, _ = scalar(lookup(def, "description"), "description")
	content, err := n.content(lookup(def, "content"), fmt.Sprintf("%s response %s", where, status))
	if err != nil {
		return nil, err
	}
	resp.Content = content
	return resp, nil
}

func (n *normalizer) content(node *yaml.Node, where string) ([]*MediaType, error) {
	if node == nil || isNull(node) {
		return nil, nil
	}
	if !isMapping(node) {
		return nil, n.parseErr(node, "%s: content must be a mapping", where)
	}
	var out []*MediaType
	for _, p := range pairs(node) {
		mt := &MediaType{Name: p.key}
		if isMapping(p.value) {
			mt.Schema = n.inlineSchema(lookup(p.value, "schema"), where+" "+p.key)
			if ex := lookup(p.value, "example"); ex != nil {
				mt.Example = value(ex)
			}
			for _, e := range pairs(lookup(p.value, "examples")) {
				def := n.deref(e.value)
				ex := &Example{Name: e.key}
				ex.Summary, _ = scalar(lookup(def, "summary"), "summary")
				ex.Value = value(lookup(def, "value"))
				mt.Examples = append(mt.Examples, ex)
			}
		}
		out = append(out, mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// inlineSchema decodes a schema embedded in an operation. Failures are
// recorded as warnings and produce an unknown schema.
func (n *normalizer) inlineSchema(node *yaml.Node, where string) *Schema {
	if node == nil {
		return nil
	}
	s, err := decodeSchema(node, where, 0)
	if err != nil {
		n.warnings = append(n.warnings, err)
		return &Schema{Kind: KindUnknown}
	}
	return s
}
