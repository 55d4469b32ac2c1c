// Package cli implements the symbolgraph command-line interface.
//
// # Commands
//
// convert: Write a catalog for an OpenAPI document
//
//	symbolgraph convert \
//		--input openapi.yaml \
//		--out ./docs \
//		--base-url https://api.example.com \
//		--include-examples
//
// watch: Regenerate the catalog whenever the document changes
//
//	symbolgraph watch --input openapi.yaml --out ./docs
//
// serve: Preview a catalog in the browser
//
//	symbolgraph serve --catalog ./docs/PetStore.catalog --addr :8080
//	symbolgraph serve --input openapi.yaml --out ./docs --watch
//
// publish: Upload a catalog to S3-compatible storage
//
//	symbolgraph publish \
//		--catalog ./docs/PetStore.catalog \
//		--bucket api-docs \
//		--prefix petstore \
//		--endpoint http://localhost:9000 --path-style --create-bucket
//
// # Configuration
//
// Every flag defaults to its SYMBOLGRAPH_* environment variable (see
// package config); flags win when both are set.
package cli
