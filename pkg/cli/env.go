package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/platinummonkey/symbolgraph/pkg/config"
	"github.com/platinummonkey/symbolgraph/pkg/convert"
	"github.com/platinummonkey/symbolgraph/pkg/observability"
)

// logOutput receives structured logs
var logOutput io.Writer = os.Stderr

// environment is the state shared by every command run: configuration,
// logging and telemetry.
type environment struct {
	cfg         *config.Config
	logger      *observability.Logger
	metrics     *observability.Metrics
	otelMetrics *observability.OTelMetrics
	providers   *observability.OTelProviders
}

func newEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := observability.NewTextLogger(cfg.Observability.LogLevel, logOutput)
	if cfg.Observability.LogJSON {
		logger = observability.NewLogger(cfg.Observability.LogLevel, logOutput)
	}

	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	env := &environment{
		cfg:       cfg,
		logger:    logger,
		metrics:   observability.NewMetrics(nil),
		providers: providers,
	}
	if providers != nil {
		env.otelMetrics, err = observability.NewOTelMetrics()
		if err != nil {
			_ = env.close()
			return nil, err
		}
	}
	return env, nil
}

func (e *environment) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return observability.ShutdownOTel(ctx, e.providers, e.logger)
}

func (e *environment) converter() *convert.Converter {
	opts := []convert.Option{convert.WithMetrics(e.metrics)}
	if e.otelMetrics != nil {
		opts = append(opts, convert.WithOTelMetrics(e.otelMetrics))
	}
	return convert.NewConverter(e.logger, opts...)
}

// bindConvertFlags registers the conversion flags, defaulting to cfg's
// environment values so flags override the environment.
func bindConvertFlags(fs *flag.FlagSet, cfg *config.ConvertConfig) {
	fs.StringVar(&cfg.Input, "input", cfg.Input, "OpenAPI document (.yaml, .yml or .json)")
	fs.StringVar(&cfg.ModuleName, "module", cfg.ModuleName, "Module name (default: derived from info.title)")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Base URL used in curl examples")
	fs.BoolVar(&cfg.IncludeExamples, "include-examples", cfg.IncludeExamples, "Include request/response examples")
	fs.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Replace an existing catalog")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory the catalog is written into")
	fs.StringVar(&cfg.IdentifierPrefix, "prefix", cfg.IdentifierPrefix, "Symbol identifier prefix")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Write Prometheus metrics to this file")
}

func convertOptions(cfg config.ConvertConfig) convert.Options {
	return convert.Options{
		InputPath:        cfg.Input,
		ModuleName:       cfg.ModuleName,
		BaseURL:          cfg.BaseURL,
		IncludeExamples:  cfg.IncludeExamples,
		Overwrite:        cfg.Overwrite,
		OutputDir:        cfg.OutputDir,
		IdentifierPrefix: cfg.IdentifierPrefix,
	}
}

// parseFlags parses args, treating -h as a successful no-op
func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	fs.SetOutput(output)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	if fs.NArg() > 0 {
		return false, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return true, nil
}

func printResult(r *convert.Result) {
	fmt.Fprintf(output, "Wrote %s (%d files, %d symbols, %d relationships) in %s\n",
		r.CatalogPath, len(r.Files), r.Symbols, r.Relationships, r.Duration.Round(time.Millisecond))
	for _, w := range r.Warnings {
		fmt.Fprintf(output, "Warning: %v\n", w)
	}
}
