package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/symbolgraph/pkg/convert"
	"github.com/platinummonkey/symbolgraph/pkg/observability"
	"github.com/platinummonkey/symbolgraph/pkg/preview"
)

// listen is swapped out by tests to learn the bound address
var listen = net.Listen

func newServeCommand() *Command {
	return &Command{
		Name:        "serve",
		Description: "Serve a catalog over HTTP, optionally regenerating it on change",
		Run:         runServe,
	}
}

func runServe(ctx context.Context, args []string) error {
	env, err := newEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	cfg := env.cfg
	var watch bool
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	bindConvertFlags(fs, &cfg.Convert)
	fs.StringVar(&cfg.Preview.CatalogDir, "catalog", cfg.Preview.CatalogDir, "Catalog directory ({Module}.catalog)")
	fs.StringVar(&cfg.Preview.Addr, "addr", cfg.Preview.Addr, "Listen address")
	fs.IntVar(&cfg.Preview.CacheSize, "cache-size", cfg.Preview.CacheSize, "Rendered page cache entries")
	fs.DurationVar(&cfg.Preview.CacheTTL, "cache-ttl", cfg.Preview.CacheTTL, "Rendered page cache TTL")
	fs.BoolVar(&watch, "watch", false, "Regenerate the catalog from --input when it changes")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	var watcher *convert.Watcher
	if watch {
		if err := cfg.Convert.Validate(); err != nil {
			return err
		}
		// The first conversion names the catalog directory when --catalog
		// is not given.
		conv := env.converter()
		opts := convertOptions(cfg.Convert)
		opts.Overwrite = true
		result, err := conv.Run(ctx, opts)
		if err != nil {
			return err
		}
		printResult(result)
		if cfg.Preview.CatalogDir == "" {
			cfg.Preview.CatalogDir = result.CatalogPath
		}
		watcher = convert.NewWatcher(conv, opts, cfg.Convert.Debounce)
		watcher.SkipInitial = true
	}
	if err := cfg.Preview.Validate(); err != nil {
		return err
	}

	serverOpts := []preview.Option{
		preview.WithMetrics(env.metrics),
		preview.WithCache(cfg.Preview.CacheSize, cfg.Preview.CacheTTL),
		preview.WithVersion(cfg.Observability.OTelServiceVersion),
	}
	if env.otelMetrics != nil {
		serverOpts = append(serverOpts, preview.WithOTelMetrics(env.otelMetrics))
	}
	srv, err := preview.NewServer(cfg.Preview.CatalogDir, env.logger, serverOpts...)
	if err != nil {
		return err
	}

	ln, err := listen("tcp", cfg.Preview.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Preview.Addr, err)
	}
	httpServer := srv.NewHTTPServer(cfg.Preview.Addr, cfg.Preview.ReadTimeout, cfg.Preview.WriteTimeout)

	shutdown := observability.NewShutdownManager(env.logger, httpServer, cfg.Preview.ShutdownTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		env.logger.WithFields(map[string]interface{}{
			"addr":   ln.Addr().String(),
			"module": srv.Module(),
		}).Info("serving catalog")
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("preview server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return shutdown.WaitForShutdown(gctx)
	})
	if watcher != nil {
		watcher.OnRegenerate = func(r *convert.Result, err error) {
			if err == nil {
				srv.Invalidate()
				printResult(r)
			}
		}
		g.Go(func() error {
			defer observability.RecoverPanic(env.logger, "catalog watcher")
			return watcher.Run(gctx)
		})
	}

	return g.Wait()
}
