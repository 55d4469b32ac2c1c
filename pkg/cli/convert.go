package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/platinummonkey/symbolgraph/pkg/convert"
)

func newConvertCommand() *Command {
	return &Command{
		Name:        "convert",
		Description: "Convert an OpenAPI document into a symbol graph catalog",
		Run:         runConvert,
	}
}

func runConvert(ctx context.Context, args []string) error {
	env, err := newEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	cfg := env.cfg
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	bindConvertFlags(fs, &cfg.Convert)
	fs.StringVar(&cfg.Publish.Bucket, "bucket", cfg.Publish.Bucket, "Publish the catalog to this bucket after writing it")
	fs.StringVar(&cfg.Publish.Prefix, "key-prefix", cfg.Publish.Prefix, "Object key prefix used with --bucket")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	if err := cfg.Convert.Validate(); err != nil {
		return err
	}

	conv := env.converter()
	result, err := conv.Run(ctx, convertOptions(cfg.Convert))
	if err != nil {
		return err
	}
	printResult(result)

	if cfg.Publish.Bucket != "" {
		cfg.Publish.CatalogDir = result.CatalogPath
		if err := publishCatalog(ctx, env, false); err != nil {
			return err
		}
	}

	if cfg.Convert.MetricsFile != "" {
		if err := conv.Metrics().WriteToTextfile(cfg.Convert.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}
	return nil
}

func newWatchCommand() *Command {
	return &Command{
		Name:        "watch",
		Description: "Regenerate a catalog whenever the OpenAPI document changes",
		Run:         runWatch,
	}
}

func runWatch(ctx context.Context, args []string) error {
	env, err := newEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	cfg := env.cfg
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	bindConvertFlags(fs, &cfg.Convert)
	fs.DurationVar(&cfg.Convert.Debounce, "debounce", cfg.Convert.Debounce, "Wait this long for writes to settle")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	if err := cfg.Convert.Validate(); err != nil {
		return err
	}

	conv := env.converter()
	w := convert.NewWatcher(conv, convertOptions(cfg.Convert), cfg.Convert.Debounce)
	w.OnRegenerate = func(r *convert.Result, err error) {
		if err != nil {
			return
		}
		printResult(r)
		if cfg.Convert.MetricsFile != "" {
			if err := conv.Metrics().WriteToTextfile(cfg.Convert.MetricsFile); err != nil {
				env.logger.WithError(err).Warn("failed to write metrics file")
			}
		}
	}
	return w.Run(ctx)
}
