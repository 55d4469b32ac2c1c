package assembler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/symbolgraph/pkg/openapi"
	"github.com/platinummonkey/symbolgraph/pkg/symbols"
	"github.com/platinummonkey/symbolgraph/pkg/typemap"
)

// Assembler walks a document and builds its symbol graph
type Assembler struct {
	log             *logrus.Logger
	prefix          string
	baseURL         string
	includeExamples bool
}

// Option configures an Assembler
type Option func(*Assembler)

// WithLogger sets the logger used for recoverable failures
func WithLogger(log *logrus.Logger) Option {
	return func(a *Assembler) {
		if log != nil {
			a.log = log
		}
	}
}

// WithIdentifierPrefix overrides symbols.DefaultIdentifierPrefix
func WithIdentifierPrefix(prefix string) Option {
	return func(a *Assembler) {
		if prefix != "" {
			a.prefix = prefix
		}
	}
}

// WithBaseURL adds a server symbol and full URLs to endpoint documentation
func WithBaseURL(url string) Option {
	return func(a *Assembler) {
		a.baseURL = strings.TrimRight(url, "/")
	}
}

// WithIncludeExamples embeds schema and parameter examples in documentation
func WithIncludeExamples(include bool) Option {
	return func(a *Assembler) {
		a.includeExamples = include
	}
}

// New creates an Assembler
func New(opts ...Option) *Assembler {
	a := &Assembler{
		log:    logrus.New(),
		prefix: symbols.DefaultIdentifierPrefix,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the graph for doc with default options
func Assemble(doc *openapi.Document, moduleName string) *symbols.Graph {
	return New().Assemble(doc, moduleName)
}

// Assemble builds the symbol graph for doc. Every parent is created before
// its members, so no relationship can dangle.
func (a *Assembler) Assemble(doc *openapi.Document, moduleName string) *symbols.Graph {
	return a.Build(doc, moduleName).Graph
}

// Result is a graph plus the index tying symbols back to the document
type Result struct {
	Graph *symbols.Graph
	Index *Index
}

// Index links endpoint and schema symbols to their source definitions
type Index struct {
	Endpoints []*EndpointEntry
	Schemas   []*SchemaEntry
}

// EndpointEntry pairs an operation with its endpoint symbol
type EndpointEntry struct {
	LocalID   string
	Operation *openapi.Operation
	Symbol    *symbols.Symbol
}

// SchemaEntry pairs a component schema with its schema symbol
type SchemaEntry struct {
	LocalID string
	Schema  *openapi.NamedSchema
	Symbol  *symbols.Symbol
}

// Build assembles the graph and returns it with its index
func (a *Assembler) Build(doc *openapi.Document, moduleName string) *Result {
	b := &builder{
		Assembler: a,
		doc:       doc,
		module:    moduleName,
		factory:   symbols.NewFactory(a.prefix, moduleName),
		graph:     symbols.NewGraph(moduleName),
		used:      make(map[string]bool),
		locals:    make(map[string]string),
		index:     &Index{},
	}
	if doc == nil {
		doc = &openapi.Document{}
		b.doc = doc
	}

	ns := b.namespace()
	for _, op := range doc.Operations() {
		b.endpoint(op, ns)
	}
	for _, named := range doc.Components.Schemas {
		b.schema(named, ns)
	}
	for _, scheme := range doc.Components.SecuritySchemes {
		b.securityScheme(scheme, ns)
	}
	b.servers(ns)
	b.tags(ns)

	a.log.WithFields(logrus.Fields{
		"module":        moduleName,
		"symbols":       len(b.graph.Symbols),
		"relationships": len(b.graph.Relationships),
	}).Debug("assembled symbol graph")

	return &Result{Graph: b.graph, Index: b.index}
}

// builder holds the state of a single Assemble call
type builder struct {
	*Assembler
	doc     *openapi.Document
	module  string
	factory *symbols.Factory
	graph   *symbols.Graph
	used    map[string]bool
	locals  map[string]string
	index   *Index
}

// reserve returns localID, or localID with a numeric suffix if it is taken
func (b *builder) reserve(localID string) string {
	id := localID
	for i := 2; b.used[id]; i++ {
		id = fmt.Sprintf("%s_%d", localID, i)
	}
	b.used[id] = true
	return id
}

func (b *builder) add(kind symbols.Kind, localID, title, docs string, path []string, parent *symbols.Symbol) *symbols.Symbol {
	parentID := ""
	if parent != nil {
		parentID = parent.Identifier
	}
	local := b.reserve(localID)
	sym, rel := b.factory.Create(kind, local, title, docs, path, parentID)
	b.graph.Add(sym, rel)
	b.locals[sym.Identifier] = local
	return sym
}

func childPath(parent *symbols.Symbol, name string) []string {
	path := make([]string, 0, len(parent.PathComponents)+1)
	path = append(path, parent.PathComponents...)
	return append(path, name)
}

func (b *builder) namespace() *symbols.Symbol {
	info := b.doc.Info
	var lines []string
	if info.Title != "" {
		lines = append(lines, info.Title)
	}
	if info.Description != "" {
		lines = append(lines, info.Description)
	}
	if info.Version != "" {
		lines = append(lines, "Version: "+info.Version)
	}
	sym, _ := b.factory.Create(symbols.KindNamespace, "", b.module, strings.Join(lines, "\n\n"), []string{b.module}, "")
	b.graph.Add(sym, nil)
	return sym
}

func (b *builder) endpoint(op *openapi.Operation, ns *symbols.Symbol) {
	title := EndpointLocalID(op)
	var lines []string
	if op.Summary != "" {
		lines = append(lines, op.Summary)
	}
	if op.Description != "" {
		lines = append(lines, op.Description)
	}
	lines = append(lines,
		fmt.Sprintf("Path: `%s`", op.Path),
		fmt.Sprintf("Method: `%s`", strings.ToUpper(op.Method)),
	)
	if b.baseURL != "" {
		lines = append(lines, fmt.Sprintf("URL: `%s%s`", b.baseURL, op.Path))
	}
	if len(op.Tags) > 0 {
		lines = append(lines, "Tags: "+strings.Join(op.Tags, ", "))
	}
	if op.Deprecated {
		lines = append(lines, "⚠️ Deprecated: this endpoint may be removed in a future version.")
	}

	ep := b.add(symbols.KindEndpoint, sanitize(title), title, strings.Join(lines, "\n"), childPath(ns, title), ns)
	b.index.Endpoints = append(b.index.Endpoints, &EndpointEntry{LocalID: b.locals[ep.Identifier], Operation: op, Symbol: ep})

	for _, p := range op.Parameters {
		b.parameter(p, ep)
	}
	if op.RequestBody != nil {
		b.requestBody(op.RequestBody, ep)
	}
	for _, r := range op.Responses {
		b.response(r, ep)
	}
}

func (b *builder) parameter(p *openapi.Parameter, ep *symbols.Symbol) {
	d := typemap.Map(p.Schema)
	var lines []string
	if p.Description != "" {
		lines = append(lines, p.Description)
	}
	lines = append(lines, "Location: "+p.In)
	if p.Required {
		lines = append(lines, "Required")
	}
	if p.Deprecated {
		lines = append(lines, "Deprecated")
	}
	lines = append(lines, fmt.Sprintf("Type: `%s`", d.CanonicalType))
	if d.Documentation != "" {
		lines = append(lines, d.Documentation)
	}
	if b.includeExamples {
		if ex := firstExample(p.Example, p.Schema); ex != nil {
			lines = append(lines, "Example: "+renderExample(ex))
		}
	}

	local := b.localID(ep, "parameters", p.In, p.Name)
	b.add(symbols.KindParameter, local, p.Name, strings.Join(lines, "\n"), childPath(ep, p.Name), ep)
}

func (b *builder) requestBody(rb *openapi.RequestBody, ep *symbols.Symbol) {
	var lines []string
	if rb.Description != "" {
		lines = append(lines, rb.Description)
	}
	if rb.Required {
		lines = append(lines, "Required")
	}
	lines = append(lines, b.contentLines(rb.Content)...)
	b.add(symbols.KindRequestBody, b.localID(ep, "requestBody"), "Request Body", strings.Join(lines, "\n"), childPath(ep, "requestBody"), ep)
}

func (b *builder) response(r *openapi.Response, ep *symbols.Symbol) {
	var lines []string
	if r.Description != "" {
		lines = append(lines, r.Description)
	}
	lines = append(lines, "Status: "+r.StatusCode)
	lines = append(lines, b.contentLines(r.Content)...)
	b.add(symbols.KindResponse, b.localID(ep, "responses", r.StatusCode), r.StatusCode, strings.Join(lines, "\n"), childPath(ep, r.StatusCode), ep)
}

func (b *builder) contentLines(content []*openapi.MediaType) []string {
	var lines []string
	for _, mt := range content {
		lines = append(lines, fmt.Sprintf("Content type `%s`: `%s`", mt.Name, typemap.CanonicalType(mt.Schema)))
		if b.includeExamples {
			if ex := firstExample(mt.Example, mt.Schema); ex != nil {
				lines = append(lines, "Example: "+renderExample(ex))
			}
		}
	}
	return lines
}

func (b *builder) schema(named *openapi.NamedSchema, ns *symbols.Symbol) {
	if named.DecodeErr != nil || named.Schema == nil {
		reason := "schema is empty"
		if named.DecodeErr != nil {
			reason = named.DecodeErr.Error()
		}
		b.log.WithFields(logrus.Fields{
			"schema": named.Name,
			"error":  reason,
		}).Warn("schema decoding failed, emitting placeholder symbol")
		sym := b.add(symbols.KindSchema, sanitize(named.Name), named.Name,
			"Schema decoding failed: "+reason, childPath(ns, named.Name), ns)
		b.index.Schemas = append(b.index.Schemas, &SchemaEntry{LocalID: b.locals[sym.Identifier], Schema: named, Symbol: sym})
		return
	}

	s := named.Schema
	d := typemap.Map(s)
	var lines []string
	if s.Title != "" && s.Title != named.Name {
		lines = append(lines, s.Title)
	}
	if s.Description != "" {
		lines = append(lines, s.Description)
	}
	lines = append(lines, fmt.Sprintf("Type: `%s`", d.CanonicalType))
	if d.Documentation != "" {
		lines = append(lines, d.Documentation)
	}
	if b.includeExamples && s.Example != nil {
		lines = append(lines, "Example: "+renderExample(s.Example))
	}

	sym := b.add(symbols.KindSchema, sanitize(named.Name), named.Name, strings.Join(lines, "\n"), childPath(ns, named.Name), ns)
	b.index.Schemas = append(b.index.Schemas, &SchemaEntry{LocalID: b.locals[sym.Identifier], Schema: named, Symbol: sym})

	if s.HasProperties() {
		for _, p := range s.Properties {
			b.property(s, p, sym)
		}
	}
	for _, v := range s.Enum {
		b.enumCase(named.Name, v, sym)
	}
}

func (b *builder) property(owner *openapi.Schema, p *openapi.Property, parent *symbols.Symbol) {
	d := typemap.Map(p.Schema)
	var lines []string
	if p.Schema != nil && p.Schema.Description != "" {
		lines = append(lines, p.Schema.Description)
	}
	lines = append(lines, fmt.Sprintf("Type: `%s`", d.CanonicalType))
	if owner.IsRequired(p.Name) {
		lines = append(lines, "Required")
	}
	if p.Schema != nil && p.Schema.Kind == openapi.KindArray {
		lines = append(lines, fmt.Sprintf("Item type: `%s`", typemap.CanonicalType(p.Schema.Items)))
	}
	if d.Documentation != "" {
		lines = append(lines, d.Documentation)
	}
	if b.includeExamples && p.Schema != nil && p.Schema.Example != nil {
		lines = append(lines, "Example: "+renderExample(p.Schema.Example))
	}

	b.add(symbols.KindProperty, b.localID(parent, p.Name), p.Name, strings.Join(lines, "\n"), childPath(parent, p.Name), parent)
}

// enumCase materializes one allowed value of a reusable schema
func (b *builder) enumCase(schemaName string, v any, parent *symbols.Symbol) {
	title := typemap.FormatValue(v)
	docs := fmt.Sprintf("Allowed value `%s` of `%s`.", title, schemaName)
	b.add(symbols.KindEnumCase, b.localID(parent, title), title, docs, childPath(parent, title), parent)
}

func (b *builder) securityScheme(s *openapi.SecurityScheme, ns *symbols.Symbol) {
	var lines []string
	if s.Description != "" {
		lines = append(lines, s.Description)
	}
	lines = append(lines, "Type: "+s.Type)
	if s.Scheme != "" {
		lines = append(lines, "Scheme: "+s.Scheme)
	}
	if s.BearerFormat != "" {
		lines = append(lines, "Bearer format: "+s.BearerFormat)
	}
	if s.In != "" {
		lines = append(lines, fmt.Sprintf("Sent in %s as `%s`", s.In, s.ParamName))
	}
	b.add(symbols.KindSecurityScheme, "securitySchemes."+sanitize(s.Name), s.Name, strings.Join(lines, "\n"), childPath(ns, s.Name), ns)
}

func (b *builder) servers(ns *symbols.Symbol) {
	servers := b.doc.Servers
	if b.baseURL != "" && !hasServer(servers, b.baseURL) {
		servers = append([]*openapi.Server{{URL: b.baseURL, Description: "Configured base URL"}}, servers...)
	}
	for i, s := range servers {
		var lines []string
		if s.Description != "" {
			lines = append(lines, s.Description)
		}
		lines = append(lines, fmt.Sprintf("URL: `%s`", s.URL))
		b.add(symbols.KindServer, fmt.Sprintf("servers.%d", i+1), s.URL, strings.Join(lines, "\n"), childPath(ns, s.URL), ns)
	}
}

func hasServer(servers []*openapi.Server, url string) bool {
	for _, s := range servers {
		if strings.TrimRight(s.URL, "/") == url {
			return true
		}
	}
	return false
}

// tags emits declared tags first, then tags only referenced by operations
func (b *builder) tags(ns *symbols.Symbol) {
	counts := make(map[string]int)
	var order []string
	for _, t := range b.doc.Tags {
		if _, ok := counts[t.Name]; !ok {
			order = append(order, t.Name)
			counts[t.Name] = 0
		}
	}
	for _, op := range b.doc.Operations() {
		for _, t := range op.Tags {
			if _, ok := counts[t]; !ok {
				order = append(order, t)
			}
			counts[t]++
		}
	}

	for _, name := range order {
		var lines []string
		for _, t := range b.doc.Tags {
			if t.Name == name && t.Description != "" {
				lines = append(lines, t.Description)
				break
			}
		}
		lines = append(lines, fmt.Sprintf("Endpoints: %d", counts[name]))
		b.add(symbols.KindTag, "tags."+sanitize(name), name, strings.Join(lines, "\n"), childPath(ns, name), ns)
	}
}

// localID extends the parent's local identifier with sanitized segments
func (b *builder) localID(parent *symbols.Symbol, segments ...string) string {
	var parts []string
	if l := b.locals[parent.Identifier]; l != "" {
		parts = append(parts, l)
	}
	for _, s := range segments {
		parts = append(parts, sanitize(s))
	}
	return strings.Join(parts, ".")
}

func firstExample(explicit any, s *openapi.Schema) any {
	if explicit != nil {
		return explicit
	}
	if s != nil {
		return s.Example
	}
	return nil
}

func renderExample(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("`%s`", s)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("`%v`", v)
	}
	return fmt.Sprintf("`%s`", data)
}
