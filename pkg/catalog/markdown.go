package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/platinummonkey/symbolgraph/pkg/assembler"
	"github.com/platinummonkey/symbolgraph/pkg/openapi"
	"github.com/platinummonkey/symbolgraph/pkg/typemap"
)

// untaggedGroup collects endpoints without tags on the overview page
const untaggedGroup = "Untagged"

// PageRenderer renders the Markdown pages of a catalog
type PageRenderer struct {
	doc             *openapi.Document
	index           *assembler.Index
	module          string
	baseURL         string
	includeExamples bool
	examples        *ExampleGenerator
}

// NewPageRenderer creates a renderer for one assembled document
func NewPageRenderer(doc *openapi.Document, index *assembler.Index, module string) *PageRenderer {
	if doc == nil {
		doc = &openapi.Document{}
	}
	if index == nil {
		index = &assembler.Index{}
	}
	return &PageRenderer{
		doc:      doc,
		index:    index,
		module:   module,
		examples: NewExampleGenerator(doc),
	}
}

// Root renders the landing page of the catalog
func (r *PageRenderer) Root() string {
	var b strings.Builder
	info := r.doc.Info

	b.WriteString(fmt.Sprintf("# %s\n\n", r.module))

	if info.Title != "" && info.Title != r.module {
		b.WriteString(fmt.Sprintf("**%s**\n\n", info.Title))
	}
	if info.Version != "" {
		b.WriteString(fmt.Sprintf("**Version:** `%s`\n\n", info.Version))
	}
	if info.Description != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", info.Description))
	}

	if info.Contact != nil && !info.Contact.IsEmpty() {
		b.WriteString("## Contact\n\n")
		if info.Contact.Name != "" {
			b.WriteString(fmt.Sprintf("- **Name:** %s\n", info.Contact.Name))
		}
		if info.Contact.Email != "" {
			b.WriteString(fmt.Sprintf("- **Email:** %s\n", info.Contact.Email))
		}
		if info.Contact.URL != "" {
			b.WriteString(fmt.Sprintf("- **URL:** %s\n", info.Contact.URL))
		}
		b.WriteString("\n")
	}

	if len(r.doc.Servers) > 0 || r.baseURL != "" {
		b.WriteString("## Servers\n\n")
		if r.baseURL != "" {
			b.WriteString(fmt.Sprintf("- `%s` (base URL)\n", r.baseURL))
		}
		for _, s := range r.doc.Servers {
			if s.Description != "" {
				b.WriteString(fmt.Sprintf("- `%s`: %s\n", s.URL, s.Description))
			} else {
				b.WriteString(fmt.Sprintf("- `%s`\n", s.URL))
			}
		}
		b.WriteString("\n")
	}

	groups, order := r.groupEndpoints()

	b.WriteString("## Overview\n\n")
	b.WriteString(fmt.Sprintf("- **Endpoints:** %d\n", len(r.index.Endpoints)))
	b.WriteString(fmt.Sprintf("- **Schemas:** %d\n", len(r.index.Schemas)))
	if len(r.doc.Components.SecuritySchemes) > 0 {
		b.WriteString(fmt.Sprintf("- **Security schemes:** %d\n", len(r.doc.Components.SecuritySchemes)))
	}
	b.WriteString("\n")

	if len(order) > 0 {
		b.WriteString("| Tag | Endpoints |\n")
		b.WriteString("|-----|-----------|\n")
		for _, tag := range order {
			b.WriteString(fmt.Sprintf("| %s | %d |\n", escapeCell(tag), len(groups[tag])))
		}
		b.WriteString("\n")

		b.WriteString("## Endpoints\n\n")
		for _, tag := range order {
			b.WriteString(fmt.Sprintf("### %s\n\n", tag))
			if desc := r.tagDescription(tag); desc != "" {
				b.WriteString(fmt.Sprintf("%s\n\n", desc))
			}
			for _, ep := range groups[tag] {
				op := ep.Operation
				b.WriteString(fmt.Sprintf("- [`%s %s`](Endpoints/%s.md)", strings.ToUpper(op.Method), op.Path, ep.LocalID))
				if op.Summary != "" {
					b.WriteString(": " + op.Summary)
				}
				if op.Deprecated {
					b.WriteString(" *(deprecated)*")
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}

	if len(r.index.Schemas) > 0 {
		b.WriteString("## Schemas\n\n")
		for _, s := range r.index.Schemas {
			b.WriteString(fmt.Sprintf("- [%s](Schemas/%s.md)", s.Schema.Name, s.LocalID))
			if s.Schema.Schema != nil && s.Schema.Schema.Description != "" {
				b.WriteString(": " + firstLine(s.Schema.Schema.Description))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(r.doc.Components.SecuritySchemes) > 0 {
		b.WriteString("## Security Schemes\n\n")
		b.WriteString("| Name | Type | Details |\n")
		b.WriteString("|------|------|---------|\n")
		for _, s := range r.doc.Components.SecuritySchemes {
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", escapeCell(s.Name), escapeCell(s.Type), escapeCell(securityDetails(s))))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// groupEndpoints buckets endpoints by tag. Declared tags come first in
// document order, then undeclared tags sorted, then untagged endpoints.
func (r *PageRenderer) groupEndpoints() (map[string][]*assembler.EndpointEntry, []string) {
	groups := make(map[string][]*assembler.EndpointEntry)
	for _, ep := range r.index.Endpoints {
		if len(ep.Operation.Tags) == 0 {
			groups[untaggedGroup] = append(groups[untaggedGroup], ep)
			continue
		}
		for _, t := range ep.Operation.Tags {
			groups[t] = append(groups[t], ep)
		}
	}

	seen := make(map[string]bool)
	var order []string
	for _, t := range r.doc.Tags {
		if len(groups[t.Name]) > 0 && !seen[t.Name] {
			order = append(order, t.Name)
			seen[t.Name] = true
		}
	}
	var rest []string
	for t := range groups {
		if !seen[t] && t != untaggedGroup {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)
	if len(groups[untaggedGroup]) > 0 && !seen[untaggedGroup] {
		order = append(order, untaggedGroup)
	}
	return groups, order
}

func (r *PageRenderer) tagDescription(name string) string {
	for _, t := range r.doc.Tags {
		if t.Name == name {
			return t.Description
		}
	}
	return ""
}

// Endpoint renders the page of one operation
func (r *PageRenderer) Endpoint(ep *assembler.EndpointEntry) string {
	var b strings.Builder
	op := ep.Operation

	b.WriteString(fmt.Sprintf("# %s\n\n", ep.Symbol.Title))
	b.WriteString(fmt.Sprintf("`%s %s`\n\n", strings.ToUpper(op.Method), op.Path))

	if op.Deprecated {
		b.WriteString("> ⚠️ **Deprecated:** this endpoint may be removed in a future version.\n\n")
	}
	if op.Summary != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", op.Summary))
	}
	if op.Description != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", op.Description))
	}
	if r.baseURL != "" {
		b.WriteString(fmt.Sprintf("**URL:** `%s%s`\n\n", r.baseURL, op.Path))
	}
	if len(op.Tags) > 0 {
		b.WriteString(fmt.Sprintf("**Tags:** %s\n\n", strings.Join(op.Tags, ", ")))
	}

	if len(op.Parameters) > 0 {
		b.WriteString("## Parameters\n\n")
		b.WriteString("| Name | Location | Type | Required | Default | Allowed Values | Description |\n")
		b.WriteString("|------|----------|------|----------|---------|----------------|-------------|\n")
		for _, p := range op.Parameters {
			desc := p.Description
			if p.Deprecated {
				desc = strings.TrimSpace("*(deprecated)* " + desc)
			}
			def, allowed := "-", "-"
			if p.Schema != nil && p.Schema.Default != nil {
				def = "`" + typemap.FormatValue(p.Schema.Default) + "`"
			}
			if p.Schema != nil && len(p.Schema.Enum) > 0 {
				allowed = typemap.FormatValues(p.Schema.Enum)
			}
			b.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s | %s | %s | %s |\n",
				p.Name, p.In, r.typeCell(p.Schema), yesNo(p.Required), escapeCell(def), escapeCell(allowed), escapeCell(desc)))
		}
		b.WriteString("\n")

		for _, p := range op.Parameters {
			d := typemap.Map(p.Schema)
			var example string
			if r.includeExamples {
				example = r.exampleFor(p.Example, p.Schema)
			}
			if d.Documentation == "" && example == "" {
				continue
			}
			b.WriteString(fmt.Sprintf("### `%s`\n\n", p.Name))
			if d.Documentation != "" {
				writeDocLines(&b, d.Documentation)
			}
			if example != "" {
				b.WriteString("**Example:**\n\n")
				b.WriteString(fmt.Sprintf("```json\n%s\n```\n\n", example))
			}
		}
	}

	if rb := op.RequestBody; rb != nil {
		b.WriteString("## Request Body\n\n")
		if rb.Required {
			b.WriteString("**Required**\n\n")
		}
		if rb.Description != "" {
			b.WriteString(fmt.Sprintf("%s\n\n", rb.Description))
		}
		r.writeContent(&b, rb.Content, "###")
	}

	if len(op.Responses) > 0 {
		b.WriteString("## Responses\n\n")
		for _, resp := range op.Responses {
			b.WriteString(fmt.Sprintf("### %s\n\n", resp.StatusCode))
			if resp.Description != "" {
				b.WriteString(fmt.Sprintf("%s\n\n", resp.Description))
			}
			r.writeContent(&b, resp.Content, "####")
		}
	}

	if reqs := r.doc.EffectiveSecurity(op); len(reqs) > 0 {
		b.WriteString("## Security\n\n")
		b.WriteString("| Scheme | Scopes |\n")
		b.WriteString("|--------|--------|\n")
		for _, req := range reqs {
			scopes := "-"
			if len(req.Scopes) > 0 {
				scopes = strings.Join(req.Scopes, ", ")
			}
			b.WriteString(fmt.Sprintf("| %s | %s |\n", escapeCell(req.Scheme), escapeCell(scopes)))
		}
		b.WriteString("\n")
	} else if op.HasSecurity {
		b.WriteString("## Security\n\nNo authentication required.\n\n")
	}

	b.WriteString(fmt.Sprintf("---\n\n[Back to %s](../%s.md)\n", r.module, r.module))
	return b.String()
}

func (r *PageRenderer) writeContent(b *strings.Builder, content []*openapi.MediaType, heading string) {
	for _, mt := range content {
		b.WriteString(fmt.Sprintf("%s `%s`\n\n", heading, mt.Name))
		b.WriteString(fmt.Sprintf("**Type:** %s\n\n", r.typeCell(mt.Schema)))
		if mt.Schema != nil && mt.Schema.Kind != openapi.KindRef {
			if docs := typemap.Map(mt.Schema).Documentation; docs != "" {
				writeDocLines(b, docs)
			}
		}
		if !r.includeExamples {
			continue
		}
		if len(mt.Examples) > 0 {
			for _, ex := range mt.Examples {
				title := ex.Name
				if ex.Summary != "" {
					title = ex.Summary
				}
				b.WriteString(fmt.Sprintf("**Example (%s):**\n\n", title))
				b.WriteString(fmt.Sprintf("```json\n%s\n```\n\n", renderJSON(ex.Value)))
			}
			continue
		}
		if example := r.exampleFor(mt.Example, mt.Schema); example != "" {
			b.WriteString("**Example:**\n\n")
			b.WriteString(fmt.Sprintf("```json\n%s\n```\n\n", example))
		}
	}
}

// Schema renders the page of one component schema
func (r *PageRenderer) Schema(entry *assembler.SchemaEntry) string {
	var b strings.Builder
	named := entry.Schema

	b.WriteString(fmt.Sprintf("# %s\n\n", named.Name))

	if named.DecodeErr != nil || named.Schema == nil {
		b.WriteString(fmt.Sprintf("> %s\n\n", entry.Symbol.Documentation))
		b.WriteString(fmt.Sprintf("---\n\n[Back to %s](../%s.md)\n", r.module, r.module))
		return b.String()
	}

	s := named.Schema
	d := typemap.Map(s)

	if s.Deprecated {
		b.WriteString("> ⚠️ **Deprecated**\n\n")
	}
	if s.Title != "" && s.Title != named.Name {
		b.WriteString(fmt.Sprintf("**%s**\n\n", s.Title))
	}
	if s.Description != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", s.Description))
	}
	b.WriteString(fmt.Sprintf("**Type:** `%s`\n\n", d.CanonicalType))
	if d.Documentation != "" {
		writeDocLines(&b, d.Documentation)
	}

	if s.HasProperties() {
		b.WriteString("## Properties\n\n")
		b.WriteString("| Name | Type | Required | Description |\n")
		b.WriteString("|------|------|----------|-------------|\n")
		for _, p := range s.Properties {
			desc := ""
			if p.Schema != nil {
				desc = p.Schema.Description
			}
			b.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s |\n",
				p.Name, r.typeCell(p.Schema), yesNo(s.IsRequired(p.Name)), escapeCell(desc)))
		}
		b.WriteString("\n")

		for _, p := range s.Properties {
			pd := typemap.Map(p.Schema)
			if pd.Documentation == "" {
				continue
			}
			b.WriteString(fmt.Sprintf("### `%s`\n\n", p.Name))
			writeDocLines(&b, pd.Documentation)
		}
	}

	if len(s.Enum) > 0 {
		b.WriteString("## Allowed Values\n\n")
		for _, v := range s.Enum {
			b.WriteString(fmt.Sprintf("- `%s`\n", typemap.FormatValue(v)))
		}
		b.WriteString("\n")
	}

	if r.includeExamples {
		if example := r.examples.SampleJSON(s); example != "" {
			b.WriteString("## Example\n\n")
			b.WriteString(fmt.Sprintf("```json\n%s\n```\n\n", example))
		}
	}

	if refs := r.referencingEndpoints(named.Name); len(refs) > 0 {
		b.WriteString("## Used By\n\n")
		for _, ep := range refs {
			b.WriteString(fmt.Sprintf("- [`%s %s`](../Endpoints/%s.md)\n", strings.ToUpper(ep.Operation.Method), ep.Operation.Path, ep.LocalID))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("---\n\n[Back to %s](../%s.md)\n", r.module, r.module))
	return b.String()
}

// referencingEndpoints lists endpoints whose parameters or payloads refer
// to the named schema directly.
func (r *PageRenderer) referencingEndpoints(name string) []*assembler.EndpointEntry {
	var out []*assembler.EndpointEntry
	for _, ep := range r.index.Endpoints {
		if operationRefers(ep.Operation, name) {
			out = append(out, ep)
		}
	}
	return out
}

func operationRefers(op *openapi.Operation, name string) bool {
	for _, p := range op.Parameters {
		if refers(p.Schema, name, 0) {
			return true
		}
	}
	if op.RequestBody != nil {
		for _, mt := range op.RequestBody.Content {
			if refers(mt.Schema, name, 0) {
				return true
			}
		}
	}
	for _, resp := range op.Responses {
		for _, mt := range resp.Content {
			if refers(mt.Schema, name, 0) {
				return true
			}
		}
	}
	return false
}

func refers(s *openapi.Schema, name string, depth int) bool {
	if s == nil || depth > maxExampleDepth {
		return false
	}
	switch s.Kind {
	case openapi.KindRef:
		return s.RefName == name
	case openapi.KindArray:
		return refers(s.Items, name, depth+1)
	}
	for _, m := range s.Members {
		if refers(m, name, depth+1) {
			return true
		}
	}
	for _, p := range s.Properties {
		if refers(p.Schema, name, depth+1) {
			return true
		}
	}
	return refers(s.AdditionalProperties, name, depth+1)
}

// typeCell renders a canonical type, linking to the schema page for
// references to known component schemas.
func (r *PageRenderer) typeCell(s *openapi.Schema) string {
	t := typemap.CanonicalType(s)
	target := s
	if s != nil && s.Kind == openapi.KindArray && s.Items != nil {
		target = s.Items
	}
	if target != nil && target.Kind == openapi.KindRef {
		for _, entry := range r.index.Schemas {
			if entry.Schema.Name == target.RefName {
				return fmt.Sprintf("[`%s`](../Schemas/%s.md)", escapeCell(t), entry.LocalID)
			}
		}
	}
	return fmt.Sprintf("`%s`", escapeCell(t))
}

func (r *PageRenderer) exampleFor(explicit any, s *openapi.Schema) string {
	if explicit != nil {
		return renderJSON(explicit)
	}
	return r.examples.SampleJSON(s)
}

func securityDetails(s *openapi.SecurityScheme) string {
	var parts []string
	if s.Scheme != "" {
		parts = append(parts, "scheme "+s.Scheme)
	}
	if s.BearerFormat != "" {
		parts = append(parts, "format "+s.BearerFormat)
	}
	if s.In != "" {
		parts = append(parts, fmt.Sprintf("%s `%s`", s.In, s.ParamName))
	}
	if s.Description != "" {
		parts = append(parts, s.Description)
	}
	return strings.Join(parts, "; ")
}

// writeDocLines renders mapper documentation lines as a Markdown list,
// keeping indented continuation lines nested.
func writeDocLines(b *strings.Builder, docs string) {
	for _, line := range strings.Split(docs, "\n") {
		if line == "" {
			continue
		}
		trimmed := strings.TrimLeft(line, " ")
		indent := strings.Repeat("  ", (len(line)-len(trimmed))/2)
		b.WriteString(fmt.Sprintf("%s- %s\n", indent, trimmed))
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\r\n", "<br>")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
