// Package preview serves a generated catalog over HTTP.
//
// Routes:
//
//	GET /                             root page as HTML
//	GET /markdown                     root page as markdown
//	GET /endpoints/{name}             endpoint page as HTML
//	GET /schemas/{name}               schema page as HTML
//	GET /{endpoints|schemas}/{name}/markdown
//	GET /symbols.json                 symbol-graph file
//	GET /healthz, /readyz             probes
//	GET /cache                        page cache statistics
//	GET /metrics                      Prometheus metrics
//
// Rendered pages are cached until they expire or Invalidate is called.
package preview
