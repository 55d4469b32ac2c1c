package symbols

import "strings"

// DefaultIdentifierPrefix is prepended to every identifier
const DefaultIdentifierPrefix = "s"

// RelationshipMemberOf marks a child as belonging to its parent
const RelationshipMemberOf = "memberOf"

// Symbol is one node of the symbol graph
type Symbol struct {
	Identifier       string
	Kind             Kind
	Title            string
	Documentation    string
	PathComponents   []string
	ParentIdentifier string
}

// Relationship is a directed edge between two symbols. For memberOf the
// source is the parent and the target is the member.
type Relationship struct {
	Source string
	Target string
	Kind   string
}

// Factory builds symbols for one module
type Factory struct {
	Prefix string
	Module string
}

// NewFactory creates a factory. An empty prefix uses DefaultIdentifierPrefix.
func NewFactory(prefix, module string) *Factory {
	if prefix == "" {
		prefix = DefaultIdentifierPrefix
	}
	return &Factory{Prefix: prefix, Module: module}
}

// Identifier returns the full identifier for a local identifier
func (f *Factory) Identifier(localID string) string {
	return Identifier(f.Prefix, f.Module, localID)
}

// Create builds a symbol and, when parentID is set, its memberOf edge
func (f *Factory) Create(kind Kind, localID, title, docs string, pathComponents []string, parentID string) (*Symbol, *Relationship) {
	return CreateSymbol(kind, f.Prefix, f.Module, localID, title, docs, pathComponents, parentID)
}

// Identifier joins prefix, module and local identifier. The root
// namespace (empty local identifier) has no trailing separator.
func Identifier(prefix, module, localID string) string {
	id := prefix + ":" + module
	if localID == "" {
		return strings.TrimSuffix(id, ".")
	}
	return id + "." + localID
}

// CreateSymbol builds a symbol record. It never fails.
func CreateSymbol(kind Kind, prefix, module, localID, title, docs string, pathComponents []string, parentID string) (*Symbol, *Relationship) {
	path := make([]string, len(pathComponents))
	copy(path, pathComponents)

	sym := &Symbol{
		Identifier:       Identifier(prefix, module, localID),
		Kind:             kind,
		Title:            title,
		Documentation:    docs,
		PathComponents:   path,
		ParentIdentifier: parentID,
	}
	if parentID == "" {
		return sym, nil
	}
	return sym, &Relationship{
		Source: parentID,
		Target: sym.Identifier,
		Kind:   RelationshipMemberOf,
	}
}
