package symbols

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		module  string
		localID string
		want    string
	}{
		{"namespace", "s", "PetStore", "", "s:PetStore"},
		{"endpoint", "s", "PetStore", "listPets", "s:PetStore.listPets"},
		{"nested", "s", "PetStore", "Pet.name", "s:PetStore.Pet.name"},
		{"custom prefix", "api", "Users", "get_users", "api:Users.get_users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifier(tt.prefix, tt.module, tt.localID))
		})
	}
}

func TestNewFactory_DefaultPrefix(t *testing.T) {
	f := NewFactory("", "Shop")
	assert.Equal(t, DefaultIdentifierPrefix, f.Prefix)
	assert.Equal(t, "s:Shop", f.Identifier(""))
}

func TestCreateSymbol(t *testing.T) {
	t.Run("root has no relationship", func(t *testing.T) {
		sym, rel := CreateSymbol(KindNamespace, "s", "Shop", "", "Shop", "", []string{"Shop"}, "")
		assert.Nil(t, rel)
		assert.Equal(t, "s:Shop", sym.Identifier)
		assert.Empty(t, sym.ParentIdentifier)
	})

	t.Run("member points from parent to child", func(t *testing.T) {
		sym, rel := CreateSymbol(KindSchema, "s", "Shop", "User", "User", "docs", []string{"Shop", "User"}, "s:Shop")
		require.NotNil(t, rel)
		assert.Equal(t, "s:Shop.User", sym.Identifier)
		assert.Equal(t, "s:Shop", sym.ParentIdentifier)
		assert.Equal(t, "s:Shop", rel.Source)
		assert.Equal(t, sym.Identifier, rel.Target)
		assert.Equal(t, RelationshipMemberOf, rel.Kind)
	})

	t.Run("path components are copied", func(t *testing.T) {
		path := []string{"Shop", "User"}
		sym, _ := CreateSymbol(KindSchema, "s", "Shop", "User", "User", "", path, "")
		path[1] = "changed"
		assert.Equal(t, []string{"Shop", "User"}, sym.PathComponents)
	})
}

func TestKindPresentation(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid(), "kind %s", k)
		assert.NotEmpty(t, k.Presentation().Identifier, "kind %s", k)
	}
	assert.Equal(t, "module", KindNamespace.Presentation().Identifier)
	assert.Equal(t, "func", KindEndpoint.Presentation().Identifier)
	assert.Equal(t, "enum.case", KindEnumCase.Presentation().Identifier)

	unknown := Kind("widget")
	assert.False(t, unknown.Valid())
	assert.Equal(t, "var", unknown.Presentation().Identifier)
}

func buildGraph() *Graph {
	f := NewFactory("s", "Shop")
	g := NewGraph("Shop")
	ns, _ := f.Create(KindNamespace, "", "Shop", "", []string{"Shop"}, "")
	g.Add(ns, nil)
	user, rel := f.Create(KindSchema, "User", "User", "", []string{"Shop", "User"}, ns.Identifier)
	g.Add(user, rel)
	g.Add(f.Create(KindProperty, "User.name", "name", "Type: `String`", []string{"Shop", "User", "name"}, user.Identifier))
	g.Add(f.Create(KindProperty, "User.id", "id", "Type: `Int64`", []string{"Shop", "User", "id"}, user.Identifier))
	return g
}

func TestGraph_Queries(t *testing.T) {
	g := buildGraph()

	require.NotNil(t, g.Namespace())
	assert.Equal(t, "s:Shop", g.Namespace().Identifier)
	assert.True(t, g.Has("s:Shop.User.id"))
	assert.False(t, g.Has("s:Shop.Order"))
	assert.Len(t, g.SymbolsOfKind(KindProperty), 2)

	members := g.Members("s:Shop.User")
	require.Len(t, members, 2)
	assert.Equal(t, "name", members[0].Title)

	counts := g.CountByKind()
	assert.Equal(t, 1, counts[KindNamespace])
	assert.Equal(t, 1, counts[KindSchema])
	assert.Equal(t, 2, counts[KindProperty])
	assert.NoError(t, g.Validate())
}

func TestGraph_Validate(t *testing.T) {
	t.Run("dangling target", func(t *testing.T) {
		g := buildGraph()
		g.Relationships = append(g.Relationships, &Relationship{Source: "s:Shop", Target: "s:Shop.Missing", Kind: RelationshipMemberOf})
		err := g.Validate()
		assert.ErrorIs(t, err, ErrInvalidGraph)
		assert.Contains(t, err.Error(), "s:Shop.Missing")
	})

	t.Run("dangling source", func(t *testing.T) {
		g := buildGraph()
		g.Relationships = append(g.Relationships, &Relationship{Source: "s:Other", Target: "s:Shop", Kind: RelationshipMemberOf})
		assert.ErrorIs(t, g.Validate(), ErrInvalidGraph)
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		g := buildGraph()
		g.Add(&Symbol{Identifier: "s:Shop.User", Kind: KindSchema}, nil)
		err := g.Validate()
		assert.ErrorIs(t, err, ErrInvalidGraph)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("empty identifier", func(t *testing.T) {
		g := buildGraph()
		g.Add(&Symbol{Title: "nameless"}, nil)
		assert.ErrorIs(t, g.Validate(), ErrInvalidGraph)
	})
}

func TestGraph_Sorted(t *testing.T) {
	g := buildGraph()
	sorted := g.Sorted()

	var ids []string
	for _, s := range sorted.Symbols {
		ids = append(ids, s.Identifier)
	}
	assert.Equal(t, []string{"s:Shop", "s:Shop.User", "s:Shop.User.id", "s:Shop.User.name"}, ids)
	assert.Equal(t, "s:Shop.User.id", sorted.Relationships[1].Target)

	// the original keeps insertion order
	assert.Equal(t, "s:Shop.User.name", g.Symbols[2].Identifier)
	assert.Equal(t, sorted, g.Sorted().Sorted())
}

func TestCodec_RoundTrip(t *testing.T) {
	g := buildGraph()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.Module, decoded.Module)
	assert.Equal(t, g.Symbols, decoded.Symbols)
	assert.Equal(t, g.Relationships, decoded.Relationships)
	assert.NoError(t, decoded.Validate())
}

func TestEncode_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, buildGraph()))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))

	meta := raw["metadata"].(map[string]any)
	assert.Equal(t, Generator, meta["generator"])
	module := raw["module"].(map[string]any)
	assert.Equal(t, "Shop", module["name"])

	syms := raw["symbols"].([]any)
	require.Len(t, syms, 4)
	root := syms[0].(map[string]any)
	_, hasParent := root["parentIdentifier"]
	assert.False(t, hasParent, "root symbol must omit parentIdentifier")
	assert.Equal(t, "module", root["presentation"].(map[string]any)["identifier"])

	assert.Contains(t, buf.String(), `"documentation": "Type: `+"`String`"+`"`)

	rels := raw["relationships"].([]any)
	require.NotEmpty(t, rels)
	for _, r := range rels {
		assert.Equal(t, "memberOf", r.(map[string]any)["kind"])
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(bytes.NewBufferString("{not json"))
	assert.Error(t, err)
}
