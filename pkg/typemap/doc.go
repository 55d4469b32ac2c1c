// Package typemap maps schema nodes to canonical type descriptions.
//
// # Overview
//
// Map is a pure, total function: every schema node, including nil and
// unrecognized shapes, produces a non-empty canonical type and a block of
// documentation lines describing its constraints.
//
// # Canonical Types
//
//	string                   String (date/date-time: Date, uri: URL, uuid: UUID, byte/binary: Data)
//	number                   Double (float: Float)
//	integer                  Int (int32: Int32, int64: Int64)
//	boolean                  Bool
//	array                    [Item]
//	object with properties   {name: Type, ...}
//	object without           [String: Any]
//	allOf                    A & B
//	anyOf / oneOf            A | B
//	not                      Any
//	$ref                     referenced schema name
//	unknown                  Any
//
// Composition only changes the documentation text; no extra symbols are
// derived from it.
//
// # Usage
//
//	d := typemap.Map(schema)
//	fmt.Println(d.CanonicalType)
//	fmt.Println(d.Documentation)
package typemap
