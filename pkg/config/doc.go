// Package config loads symbolgraph settings from environment variables.
//
// Every value has a default and command-line flags override it. LoadConfig
// checks only the shared settings; each command validates its own section.
//
// Conversion:
//
//	SYMBOLGRAPH_INPUT="openapi.yaml"
//	SYMBOLGRAPH_MODULE="Petstore"
//	SYMBOLGRAPH_BASE_URL="https://api.example.com"
//	SYMBOLGRAPH_OUTPUT_DIR="docs"
//	SYMBOLGRAPH_INCLUDE_EXAMPLES="true"
//	SYMBOLGRAPH_OVERWRITE="true"
//
// Preview server:
//
//	SYMBOLGRAPH_ADDR=":8080"
//	SYMBOLGRAPH_CATALOG="docs/Petstore.catalog"
//	SYMBOLGRAPH_CACHE_SIZE="256"
//	SYMBOLGRAPH_CACHE_TTL="5m"
//
// Publishing:
//
//	SYMBOLGRAPH_S3_BUCKET="api-docs"
//	SYMBOLGRAPH_S3_PREFIX="petstore/v1"
//	SYMBOLGRAPH_S3_ENDPOINT="http://localhost:9000"
//	SYMBOLGRAPH_S3_USE_PATH_STYLE="true"
//
// Observability:
//
//	SYMBOLGRAPH_LOG_LEVEL="debug"
//	SYMBOLGRAPH_OTEL_ENABLED="true"
//	SYMBOLGRAPH_OTEL_ENDPOINT="otel-collector:4317"
package config
