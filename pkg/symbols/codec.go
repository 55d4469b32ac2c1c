package symbols

import (
	"encoding/json"
	"fmt"
	"io"
)

// FormatVersion of the symbol-graph file written by Encode
var FormatVersion = SemanticVersion{Major: 0, Minor: 6, Patch: 0}

// Generator is recorded in the file metadata
const Generator = "symbolgraph"

// Platform names the interface language of every symbol
const Platform = "openapi"

// SemanticVersion is a major.minor.patch triple
type SemanticVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// File is the on-disk representation of a graph
type File struct {
	Metadata      FileMetadata       `json:"metadata"`
	Module        FileModule         `json:"module"`
	Symbols       []FileSymbol       `json:"symbols"`
	Relationships []FileRelationship `json:"relationships"`
}

// FileMetadata describes the producer of a file
type FileMetadata struct {
	FormatVersion SemanticVersion `json:"formatVersion"`
	Generator     string          `json:"generator"`
}

// FileModule names the module the symbols belong to
type FileModule struct {
	Name     string       `json:"name"`
	Platform FilePlatform `json:"platform"`
}

// FilePlatform describes where the module runs
type FilePlatform struct {
	OperatingSystem struct {
		Name string `json:"name"`
	} `json:"operatingSystem"`
}

// FileSymbol is a symbol as written to disk
type FileSymbol struct {
	Identifier       string       `json:"identifier"`
	Kind             Kind         `json:"kind"`
	Presentation     Presentation `json:"presentation"`
	Title            string       `json:"title"`
	Documentation    string       `json:"documentation"`
	PathComponents   []string     `json:"pathComponents"`
	ParentIdentifier string       `json:"parentIdentifier,omitempty"`
}

// FileRelationship is a relationship as written to disk
type FileRelationship struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// ToFile converts a graph into its file representation
func ToFile(g *Graph) *File {
	f := &File{
		Metadata: FileMetadata{FormatVersion: FormatVersion, Generator: Generator},
		Module:   FileModule{Name: g.Module},
	}
	f.Module.Platform.OperatingSystem.Name = Platform

	f.Symbols = make([]FileSymbol, 0, len(g.Symbols))
	for _, s := range g.Symbols {
		path := s.PathComponents
		if path == nil {
			path = []string{}
		}
		f.Symbols = append(f.Symbols, FileSymbol{
			Identifier:       s.Identifier,
			Kind:             s.Kind,
			Presentation:     s.Kind.Presentation(),
			Title:            s.Title,
			Documentation:    s.Documentation,
			PathComponents:   path,
			ParentIdentifier: s.ParentIdentifier,
		})
	}

	f.Relationships = make([]FileRelationship, 0, len(g.Relationships))
	for _, r := range g.Relationships {
		f.Relationships = append(f.Relationships, FileRelationship{Source: r.Source, Target: r.Target, Kind: r.Kind})
	}
	return f
}

// ToGraph rebuilds a graph from its file representation
func (f *File) ToGraph() *Graph {
	g := NewGraph(f.Module.Name)
	for _, s := range f.Symbols {
		g.Add(&Symbol{
			Identifier:       s.Identifier,
			Kind:             s.Kind,
			Title:            s.Title,
			Documentation:    s.Documentation,
			PathComponents:   s.PathComponents,
			ParentIdentifier: s.ParentIdentifier,
		}, nil)
	}
	for _, r := range f.Relationships {
		g.Relationships = append(g.Relationships, &Relationship{Source: r.Source, Target: r.Target, Kind: r.Kind})
	}
	return g
}

// Encode writes g as indented JSON
func Encode(w io.Writer, g *Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ToFile(g)); err != nil {
		return fmt.Errorf("failed to encode symbol graph: %w", err)
	}
	return nil
}

// Decode reads a symbol-graph file
func Decode(r io.Reader) (*Graph, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode symbol graph: %w", err)
	}
	return f.ToGraph(), nil
}
