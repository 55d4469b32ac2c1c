package symbols

import (
	"errors"
	"fmt"
	"sort"
)

// Graph is the complete output of one conversion run
type Graph struct {
	Module        string
	Symbols       []*Symbol
	Relationships []*Relationship

	index map[string]*Symbol
}

// NewGraph creates an empty graph for module
func NewGraph(module string) *Graph {
	return &Graph{
		Module:        module,
		Symbols:       make([]*Symbol, 0),
		Relationships: make([]*Relationship, 0),
		index:         make(map[string]*Symbol),
	}
}

// Add appends a symbol and its optional relationship
func (g *Graph) Add(sym *Symbol, rel *Relationship) {
	if sym == nil {
		return
	}
	if g.index == nil {
		g.reindex()
	}
	g.Symbols = append(g.Symbols, sym)
	g.index[sym.Identifier] = sym
	if rel != nil {
		g.Relationships = append(g.Relationships, rel)
	}
}

// Has reports whether a symbol with the identifier exists
func (g *Graph) Has(id string) bool {
	return g.Lookup(id) != nil
}

// Lookup returns the symbol with the identifier, or nil
func (g *Graph) Lookup(id string) *Symbol {
	if g.index == nil {
		g.reindex()
	}
	return g.index[id]
}

func (g *Graph) reindex() {
	g.index = make(map[string]*Symbol, len(g.Symbols))
	for _, s := range g.Symbols {
		g.index[s.Identifier] = s
	}
}

// Namespace returns the root symbol, or nil for an empty graph
func (g *Graph) Namespace() *Symbol {
	for _, s := range g.Symbols {
		if s.Kind == KindNamespace {
			return s
		}
	}
	return nil
}

// SymbolsOfKind returns the symbols of one kind in graph order
func (g *Graph) SymbolsOfKind(kind Kind) []*Symbol {
	var out []*Symbol
	for _, s := range g.Symbols {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Members returns the symbols that are members of parentID, in graph order
func (g *Graph) Members(parentID string) []*Symbol {
	var out []*Symbol
	for _, r := range g.Relationships {
		if r.Source == parentID && r.Kind == RelationshipMemberOf {
			if s := g.Lookup(r.Target); s != nil {
				out = append(out, s)
			}
		}
	}
	return out
}

// CountByKind tallies symbols per kind
func (g *Graph) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, s := range g.Symbols {
		counts[s.Kind]++
	}
	return counts
}

// Sorted returns a copy with symbols ordered by identifier and
// relationships by source then target.
func (g *Graph) Sorted() *Graph {
	out := NewGraph(g.Module)
	out.Symbols = append(out.Symbols, g.Symbols...)
	out.Relationships = append(out.Relationships, g.Relationships...)

	sort.SliceStable(out.Symbols, func(i, j int) bool {
		return out.Symbols[i].Identifier < out.Symbols[j].Identifier
	})
	sort.SliceStable(out.Relationships, func(i, j int) bool {
		a, b := out.Relationships[i], out.Relationships[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Kind < b.Kind
	})
	out.reindex()
	return out
}

// ErrInvalidGraph is wrapped by every Validate failure
var ErrInvalidGraph = errors.New("invalid symbol graph")

// Validate checks identifier uniqueness and that both ends of every
// relationship exist.
func (g *Graph) Validate() error {
	seen := make(map[string]bool, len(g.Symbols))
	for _, s := range g.Symbols {
		if s.Identifier == "" {
			return fmt.Errorf("%w: symbol %q has an empty identifier", ErrInvalidGraph, s.Title)
		}
		if seen[s.Identifier] {
			return fmt.Errorf("%w: duplicate identifier %s", ErrInvalidGraph, s.Identifier)
		}
		seen[s.Identifier] = true
	}
	for _, r := range g.Relationships {
		if !seen[r.Source] {
			return fmt.Errorf("%w: relationship source %s does not exist", ErrInvalidGraph, r.Source)
		}
		if !seen[r.Target] {
			return fmt.Errorf("%w: relationship target %s does not exist", ErrInvalidGraph, r.Target)
		}
	}
	return nil
}
