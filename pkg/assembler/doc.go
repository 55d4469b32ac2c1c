// Package assembler builds a symbol graph from a normalized API document.
//
// # Overview
//
// A single pass creates, in order:
//
//  1. the namespace symbol for the module
//  2. one endpoint symbol per operation (paths sorted, methods in canonical
//     order), each with parameter, request body and response members
//  3. one schema symbol per reusable schema, with a property symbol per
//     declared property and an enumCase symbol per allowed value
//  4. security scheme, server and tag symbols
//
// Parents always exist before their members, so every memberOf
// relationship in the result resolves.
//
// # Failure Policy
//
// A component schema that failed to decode becomes a placeholder schema
// symbol whose documentation reads "Schema decoding failed: ...". A warning
// is logged and assembly continues.
//
// # Usage
//
//	a := assembler.New(
//		assembler.WithLogger(log),
//		assembler.WithBaseURL("https://api.example.com"),
//	)
//	graph := a.Assemble(doc, "PetStore")
package assembler
