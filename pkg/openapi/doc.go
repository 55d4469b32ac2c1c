// Package openapi loads OpenAPI 3.x documents (YAML or JSON) into a typed,
// normalized model.
//
// Paths are sorted, operations follow the canonical HTTP method order and
// responses are ordered numerically with ranges and "default" last, so
// everything built from a Document is deterministic.
//
// Component schemas are decoded independently. A schema that cannot be
// decoded is kept as a NamedSchema with DecodeErr set; inline schemas that
// fail become KindUnknown and are recorded in Document.Warnings.
package openapi
