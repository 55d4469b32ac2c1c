// Package symbols defines the symbol graph: symbols, memberOf relationships,
// the factory that builds them, and the on-disk JSON format.
//
// # Identifiers
//
// Every identifier has the form "{prefix}:{module}.{local}". The namespace
// symbol is the only one with an empty local identifier and is written as
// "{prefix}:{module}" with no trailing separator:
//
//	f := symbols.NewFactory("s", "PetStore")
//	ns, _ := f.Create(symbols.KindNamespace, "", "PetStore", "", []string{"PetStore"}, "")
//	ep, rel := f.Create(symbols.KindEndpoint, "listPets", "listPets", docs,
//		[]string{"PetStore", "listPets"}, ns.Identifier)
//	// ns.Identifier  == "s:PetStore"
//	// ep.Identifier  == "s:PetStore.listPets"
//	// rel.Source     == "s:PetStore", rel.Target == ep.Identifier
//
// # Graph Integrity
//
// Graph.Validate rejects duplicate identifiers and relationships whose
// source or target is missing. Graph.Sorted gives the canonical order used
// when comparing two runs.
//
// # File Format
//
//	{
//	  "metadata": {"formatVersion": {"major": 0, "minor": 6, "patch": 0}, "generator": "symbolgraph"},
//	  "module": {"name": "PetStore", "platform": {"operatingSystem": {"name": "openapi"}}},
//	  "symbols": [...],
//	  "relationships": [{"source": "...", "target": "...", "kind": "memberOf"}]
//	}
package symbols
