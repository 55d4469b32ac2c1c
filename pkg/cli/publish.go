package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/platinummonkey/symbolgraph/pkg/config"
	"github.com/platinummonkey/symbolgraph/pkg/publish"
)

type objectStore interface {
	publish.ObjectPutter
	publish.BucketAPI
}

// newObjectStore is swapped out by tests
var newObjectStore = func(ctx context.Context, cfg config.PublishConfig) (objectStore, error) {
	return publish.NewS3Client(ctx, publish.S3Config{
		Region:       cfg.Region,
		Endpoint:     cfg.Endpoint,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		UsePathStyle: cfg.UsePathStyle,
	})
}

func newPublishCommand() *Command {
	return &Command{
		Name:        "publish",
		Description: "Upload a catalog to S3-compatible object storage",
		Run:         runPublish,
	}
}

func runPublish(ctx context.Context, args []string) error {
	env, err := newEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.close()

	cfg := &env.cfg.Publish
	var createBucket bool
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	fs.StringVar(&cfg.CatalogDir, "catalog", cfg.CatalogDir, "Catalog directory ({Module}.catalog)")
	fs.StringVar(&cfg.Bucket, "bucket", cfg.Bucket, "Destination bucket")
	fs.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "Object key prefix")
	fs.StringVar(&cfg.Region, "region", cfg.Region, "Bucket region")
	fs.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "Custom S3 endpoint URL")
	fs.BoolVar(&cfg.UsePathStyle, "path-style", cfg.UsePathStyle, "Use path-style bucket addressing")
	fs.BoolVar(&createBucket, "create-bucket", false, "Create the bucket if it does not exist")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	return publishCatalog(ctx, env, createBucket)
}

func publishCatalog(ctx context.Context, env *environment, createBucket bool) error {
	cfg := env.cfg.Publish
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	if createBucket {
		if err := publish.EnsureBucket(ctx, store, cfg.Bucket); err != nil {
			return err
		}
	}

	opts := []publish.Option{publish.WithLogger(env.logger), publish.WithMetrics(env.metrics)}
	if env.otelMetrics != nil {
		opts = append(opts, publish.WithOTelMetrics(env.otelMetrics))
	}
	result, err := publish.NewPublisher(store, cfg.Bucket, cfg.Prefix, opts...).Publish(ctx, cfg.CatalogDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Published %d objects (%d bytes) to s3://%s\n", len(result.Keys), result.Bytes, result.Bucket)
	return nil
}
