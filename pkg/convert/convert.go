package convert

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/symbolgraph/pkg/assembler"
	"github.com/platinummonkey/symbolgraph/pkg/catalog"
	"github.com/platinummonkey/symbolgraph/pkg/observability"
	"github.com/platinummonkey/symbolgraph/pkg/openapi"
	"github.com/platinummonkey/symbolgraph/pkg/symbols"
)

// DefaultModuleName is used when neither an override nor a usable title exists
const DefaultModuleName = "API"

// Options are the plain parameters of one conversion run
type Options struct {
	InputPath        string
	ModuleName       string
	BaseURL          string
	IncludeExamples  bool
	Overwrite        bool
	OutputDir        string
	IdentifierPrefix string
}

// Result summarizes a finished conversion
type Result struct {
	RunID          string
	ModuleName     string
	CatalogPath    string
	Files          []string
	Symbols        int
	Relationships  int
	SymbolsByKind  map[symbols.Kind]int
	DecodeFailures int
	Warnings       []error
	Duration       time.Duration
}

// Converter runs the load, assemble, validate and write phases
type Converter struct {
	logger      *observability.Logger
	metrics     *observability.Metrics
	otelMetrics *observability.OTelMetrics
	tracer      trace.Tracer
}

// Option configures a Converter
type Option func(*Converter)

// WithMetrics records run statistics on m
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Converter) {
		c.metrics = m
	}
}

// WithOTelMetrics mirrors run statistics to OpenTelemetry instruments
func WithOTelMetrics(m *observability.OTelMetrics) Option {
	return func(c *Converter) {
		c.otelMetrics = m
	}
}

// WithTracer overrides the global tracer
func WithTracer(t trace.Tracer) Option {
	return func(c *Converter) {
		c.tracer = t
	}
}

// NewConverter creates a Converter logging to logger
func NewConverter(logger *observability.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	c := &Converter{
		logger: logger,
		tracer: observability.Tracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = observability.NewMetrics(nil)
	}
	return c
}

// Metrics returns the Prometheus metrics the converter records to
func (c *Converter) Metrics() *observability.Metrics {
	return c.metrics
}

// Run converts one document into a catalog. Conversion is synchronous;
// ctx carries the trace and is checked between phases.
func (c *Converter) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	ctx = observability.WithLogger(ctx, c.logger)

	ctx, span := c.tracer.Start(ctx, "convert", trace.WithAttributes(
		attribute.String("symbolgraph.input", opts.InputPath),
		attribute.String("symbolgraph.run_id", runID),
	))
	defer span.End()

	log := observability.UpdateLoggerWithTraceContext(ctx, observability.FromContext(ctx))
	log.WithField("input", opts.InputPath).Info("starting conversion")

	result, err := c.run(ctx, opts, log)
	duration := time.Since(start)
	c.metrics.RecordConversion(err, duration)

	module := opts.ModuleName
	if result != nil {
		module = result.ModuleName
	}
	if c.otelMetrics != nil {
		byKind := map[string]int{}
		failures := 0
		if result != nil {
			for k, n := range result.SymbolsByKind {
				byKind[string(k)] = n
			}
			failures = result.DecodeFailures
		}
		c.otelMetrics.RecordConversion(ctx, module, duration, byKind, failures, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).Error("conversion failed")
		return nil, err
	}

	result.RunID = runID
	result.Duration = duration
	span.SetAttributes(
		attribute.String("symbolgraph.module", result.ModuleName),
		attribute.Int("symbolgraph.symbols", result.Symbols),
		attribute.Int("symbolgraph.relationships", result.Relationships),
	)
	log.WithFields(map[string]interface{}{
		"module":          result.ModuleName,
		"catalog":         result.CatalogPath,
		"symbols":         result.Symbols,
		"relationships":   result.Relationships,
		"decode_failures": result.DecodeFailures,
		"duration_ms":     duration.Milliseconds(),
	}).Info("conversion finished")

	return result, nil
}

func (c *Converter) run(ctx context.Context, opts Options, log *observability.Logger) (*Result, error) {
	if opts.ModuleName != "" {
		if err := catalog.ValidateModuleName(opts.ModuleName); err != nil {
			return nil, err
		}
	}

	var doc *openapi.Document
	err := c.phase(ctx, "load", func(context.Context) error {
		var err error
		doc, err = openapi.Load(opts.InputPath)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, w := range doc.Warnings {
		log.WithError(w).Warn("recoverable problem in document")
	}

	module := opts.ModuleName
	if module == "" {
		module = DeriveModuleName(doc.Info.Title)
	}

	libLog := log.Logrus()
	asm := assembler.New(
		assembler.WithLogger(libLog),
		assembler.WithIdentifierPrefix(opts.IdentifierPrefix),
		assembler.WithBaseURL(opts.BaseURL),
		assembler.WithIncludeExamples(opts.IncludeExamples),
	)

	var built *assembler.Result
	if err := c.phase(ctx, "assemble", func(context.Context) error {
		built = asm.Build(doc, module)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := c.phase(ctx, "validate", func(context.Context) error {
		if err := built.Graph.Validate(); err != nil {
			return fmt.Errorf("assembled graph is inconsistent: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	writer := catalog.NewWriter(
		catalog.WithLogger(libLog),
		catalog.WithBaseURL(opts.BaseURL),
		catalog.WithIncludeExamples(opts.IncludeExamples),
	)
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	var written *catalog.Result
	if err := c.phase(ctx, "write", func(context.Context) error {
		var err error
		written, err = writer.Write(built, doc, outputDir, opts.Overwrite)
		return err
	}); err != nil {
		return nil, err
	}

	result := &Result{
		ModuleName:    module,
		CatalogPath:   written.Path,
		Files:         written.Files,
		Symbols:       len(built.Graph.Symbols),
		Relationships: len(built.Graph.Relationships),
		SymbolsByKind: built.Graph.CountByKind(),
		Warnings:      doc.Warnings,
	}
	for _, s := range doc.Components.Schemas {
		if s.DecodeErr != nil {
			result.DecodeFailures++
		}
	}

	for kind, n := range result.SymbolsByKind {
		c.metrics.SymbolsTotal.WithLabelValues(string(kind)).Add(float64(n))
	}
	c.metrics.RelationshipsTotal.Add(float64(result.Relationships))
	c.metrics.SchemaDecodeFailuresTotal.Add(float64(result.DecodeFailures))
	c.metrics.CatalogFilesWrittenTotal.Add(float64(len(result.Files)))

	return result, nil
}

// phase runs fn inside a child span and records its duration
func (c *Converter) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := c.tracer.Start(ctx, "convert."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	c.metrics.ObservePhase(name, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// DeriveModuleName turns a document title into a module name: words are
// split on anything that is not a letter or digit and joined in CamelCase.
// A name that would start with a digit gets the DefaultModuleName prefix.
func DeriveModuleName(title string) string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for _, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}

	name := b.String()
	if name == "" {
		return DefaultModuleName
	}
	if unicode.IsDigit([]rune(name)[0]) {
		return DefaultModuleName + name
	}
	return name
}
