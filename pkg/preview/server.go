package preview

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/symbolgraph/pkg/catalog"
	"github.com/platinummonkey/symbolgraph/pkg/httputil"
	"github.com/platinummonkey/symbolgraph/pkg/observability"
)

const (
	contentTypeHTML     = "text/html; charset=utf-8"
	contentTypeMarkdown = "text/markdown; charset=utf-8"
	contentTypeJSON     = "application/json"
)

// Server serves a catalog directory as HTML
type Server struct {
	dir     string
	module  string
	logger  *observability.Logger
	metrics *observability.Metrics
	otel    *observability.OTelMetrics
	cache   *PageCache
	health  *observability.HealthChecker
	html    *HTMLRenderer
	router  *mux.Router

	cacheSize int
	cacheTTL  time.Duration
	version   string
}

// Option configures a Server
type Option func(*Server)

// WithMetrics records requests and cache activity on m. Its registry is
// served at /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithOTelMetrics mirrors request metrics to OpenTelemetry
func WithOTelMetrics(m *observability.OTelMetrics) Option {
	return func(s *Server) {
		s.otel = m
	}
}

// WithCache sets the page cache capacity and entry lifetime
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Server) {
		s.cacheSize = size
		s.cacheTTL = ttl
	}
}

// WithVersion is reported by the readiness probe
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// ModuleFromDir returns the module name of a {Module}.catalog directory
func ModuleFromDir(dir string) (string, error) {
	base := filepath.Base(filepath.Clean(dir))
	module, ok := strings.CutSuffix(base, catalog.Extension)
	if !ok || module == "" {
		return "", fmt.Errorf("%s is not a catalog directory (expected {Module}%s)", dir, catalog.Extension)
	}
	return module, nil
}

// NewServer creates a preview server for the catalog at dir. The
// directory may not exist yet; pages are read on demand.
func NewServer(dir string, logger *observability.Logger, opts ...Option) (*Server, error) {
	module, err := ModuleFromDir(dir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	s := &Server{
		dir:       dir,
		module:    module,
		logger:    logger.WithField("catalog", dir),
		html:      NewHTMLRenderer(),
		cacheSize: 256,
		cacheTTL:  5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics(nil)
	}
	s.cache = NewPageCache(s.cacheSize, s.cacheTTL, s.metrics)

	s.health = observability.NewHealthChecker(s.version)
	s.health.Register("catalog", true, observability.DirectoryCheck(dir))
	s.health.Register("symbols", false, observability.FileCheck(filepath.Join(dir, catalog.SymbolsFileName(module))))

	s.router = mux.NewRouter()
	s.registerRoutes(s.router)
	return s, nil
}

// Module returns the module the catalog documents
func (s *Server) Module() string {
	return s.module
}

// Cache exposes the page cache
func (s *Server) Cache() *PageCache {
	return s.cache
}

// Invalidate drops every rendered page, after the catalog was regenerated
func (s *Server) Invalidate() {
	s.cache.Invalidate()
	s.logger.Debug("page cache invalidated")
}

func (s *Server) registerRoutes(router *mux.Router) {
	router.Use(httputil.MetricsMiddleware(s.recordRequest))

	router.HandleFunc("/", s.getRoot).Methods(http.MethodGet)
	router.HandleFunc("/markdown", s.getRootMarkdown).Methods(http.MethodGet)
	router.HandleFunc("/endpoints/{name}", s.getTopic(catalogEndpoints)).Methods(http.MethodGet)
	router.HandleFunc("/schemas/{name}", s.getTopic(catalogSchemas)).Methods(http.MethodGet)
	router.HandleFunc("/{kind:endpoints|schemas}/{name}/markdown", s.getTopicMarkdown).Methods(http.MethodGet)
	router.HandleFunc("/symbols.json", s.getSymbols).Methods(http.MethodGet)

	router.HandleFunc("/healthz", s.health.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.health.Readiness).Methods(http.MethodGet)
	router.HandleFunc("/cache", s.getCacheStats).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFoundError(w, "no such page: "+r.URL.Path)
	})
}

// Handler returns the instrumented HTTP handler
func (s *Server) Handler() http.Handler {
	h := httputil.Chain(
		httputil.RecoveryMiddleware(s.logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
	)(s.router)
	return otelhttp.NewHandler(h, "symbolgraph.preview")
}

func (s *Server) recordRequest(r *http.Request, route string, status int, d time.Duration) {
	s.metrics.RecordPreviewRequest(r.Method, route, status, d)
	if s.otel != nil {
		s.otel.RecordHTTPRequest(r.Context(), r.Method, route, status, d)
	}
}

const (
	catalogEndpoints = "Endpoints"
	catalogSchemas   = "Schemas"
)

func (s *Server) getRoot(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, s.module+".md", true)
}

func (s *Server) getRootMarkdown(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, s.module+".md", false)
}

func (s *Server) getTopic(subdir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := httputil.ParsePathNameOrError(w, r, "name")
		if !ok {
			return
		}
		s.servePage(w, filepath.Join(subdir, name+".md"), true)
	}
}

func (s *Server) getTopicMarkdown(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.ParsePathNameOrError(w, r, "name")
	if !ok {
		return
	}
	subdir := catalogEndpoints
	if mux.Vars(r)["kind"] == "schemas" {
		subdir = catalogSchemas
	}
	s.servePage(w, filepath.Join(subdir, name+".md"), false)
}

func (s *Server) getSymbols(w http.ResponseWriter, r *http.Request) {
	rel := catalog.SymbolsFileName(s.module)
	page, ok := s.cache.Get(rel)
	if !ok {
		data, err := s.readFile(w, rel)
		if err != nil {
			return
		}
		page = &Page{ContentType: contentTypeJSON, Body: data}
		s.cache.Add(rel, page)
	}
	httputil.WriteBody(w, page.ContentType, page.Body)
}

func (s *Server) getCacheStats(w http.ResponseWriter, r *http.Request) {
	_ = httputil.WriteJSON(w, http.StatusOK, s.cache.Stats())
}

// servePage answers with the page at rel, rendered to HTML when asHTML is
// set, going through the cache.
func (s *Server) servePage(w http.ResponseWriter, rel string, asHTML bool) {
	key := "md:" + rel
	if asHTML {
		key = "html:" + rel
	}

	if page, ok := s.cache.Get(key); ok {
		httputil.WriteBody(w, page.ContentType, page.Body)
		return
	}

	data, err := s.readFile(w, rel)
	if err != nil {
		return
	}

	page := &Page{ContentType: contentTypeMarkdown, Body: data}
	if asHTML {
		body, err := s.html.Render(s.module, data)
		if err != nil {
			s.logger.WithError(err).Error("failed to render page")
			httputil.WriteInternalError(w, err)
			return
		}
		page = &Page{ContentType: contentTypeHTML, Body: body}
	}

	s.cache.Add(key, page)
	httputil.WriteBody(w, page.ContentType, page.Body)
}

// readFile reads rel inside the catalog and writes the error response on failure
func (s *Server) readFile(w http.ResponseWriter, rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, rel))
	if err == nil {
		return data, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		httputil.WriteNotFoundError(w, "no such page: "+filepath.ToSlash(rel))
	} else {
		s.logger.WithError(err).WithField("file", rel).Error("failed to read catalog file")
		httputil.WriteInternalError(w, errors.New("failed to read catalog file"))
	}
	return nil, err
}

// NewHTTPServer wraps the handler in an http.Server with the given timeouts
func (s *Server) NewHTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}
}
