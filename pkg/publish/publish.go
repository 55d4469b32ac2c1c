package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/symbolgraph/pkg/observability"
)

// ObjectPutter is the part of the S3 API the publisher uploads through
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads catalog directories to a bucket
type Publisher struct {
	client  ObjectPutter
	bucket  string
	prefix  string
	logger  *observability.Logger
	metrics *observability.Metrics
	otel    *observability.OTelMetrics
	tracer  trace.Tracer
}

// Option configures a Publisher
type Option func(*Publisher)

// WithLogger sets the publisher's logger
func WithLogger(l *observability.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records uploads on m
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithOTelMetrics mirrors uploads to OpenTelemetry instruments
func WithOTelMetrics(m *observability.OTelMetrics) Option {
	return func(p *Publisher) {
		p.otel = m
	}
}

// WithTracer overrides the global tracer
func WithTracer(t trace.Tracer) Option {
	return func(p *Publisher) {
		p.tracer = t
	}
}

// NewPublisher creates a publisher writing under prefix in bucket
func NewPublisher(client ObjectPutter, bucket, prefix string, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: observability.NewLogger(observability.InfoLevel, nil),
		tracer: observability.Tracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result lists what was uploaded
type Result struct {
	Bucket string
	Keys   []string
	Bytes  int64
}

// Key returns the object key of rel, a slash-separated path inside the
// catalog directory named catalogName.
func (p *Publisher) Key(catalogName, rel string) string {
	return path.Join(p.prefix, catalogName, rel)
}

// Publish uploads every regular file under catalogDir in sorted order. The
// first failed upload aborts the rest.
func (p *Publisher) Publish(ctx context.Context, catalogDir string) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "publish", trace.WithAttributes(
		attribute.String("s3.bucket", p.bucket),
		attribute.String("catalog", catalogDir),
	))
	defer span.End()

	files, err := listFiles(catalogDir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list catalog")
		return nil, err
	}

	name := filepath.Base(filepath.Clean(catalogDir))
	result := &Result{Bucket: p.bucket}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := p.Key(name, rel)
		n, err := p.upload(ctx, filepath.Join(catalogDir, filepath.FromSlash(rel)), key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "upload failed")
			return nil, err
		}
		result.Keys = append(result.Keys, key)
		result.Bytes += n
	}

	span.SetAttributes(attribute.Int("objects", len(result.Keys)))
	p.logger.WithFields(map[string]interface{}{
		"bucket":  p.bucket,
		"objects": len(result.Keys),
		"bytes":   result.Bytes,
	}).Info("published catalog")

	return result, nil
}

func (p *Publisher) upload(ctx context.Context, file, key string) (int64, error) {
	contentType := ContentType(file)
	ctx, span := p.tracer.Start(ctx, "S3.PutObject",
		trace.WithAttributes(
			attribute.String("s3.operation", "PutObject"),
			attribute.String("s3.bucket", p.bucket),
			attribute.String("s3.key", key),
			attribute.String("content.type", contentType),
		),
	)
	defer span.End()

	start := time.Now()
	data, err := os.ReadFile(file)
	if err != nil {
		err = fmt.Errorf("failed to read %s: %w", file, err)
		p.record(ctx, start, 0, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read content")
		return 0, err
	}
	span.SetAttributes(attribute.Int("content.size", len(data)))

	hash := sha256.Sum256(data)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"checksum-sha256": hex.EncodeToString(hash[:]),
		},
	})
	if err != nil {
		err = fmt.Errorf("failed to upload %s: %w", key, err)
		p.record(ctx, start, 0, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload to s3")
		return 0, err
	}

	p.record(ctx, start, int64(len(data)), nil)
	p.logger.WithField("key", key).Debug("uploaded object")
	return int64(len(data)), nil
}

func (p *Publisher) record(ctx context.Context, start time.Time, bytes int64, err error) {
	if p.metrics != nil {
		p.metrics.RecordPublish(err, bytes)
	}
	if p.otel != nil {
		p.otel.RecordPublish(ctx, p.bucket, time.Since(start), bytes, err)
	}
}

// listFiles returns the regular files under dir as sorted slash paths
func listFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog %s is not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, errors.New("catalog " + dir + " is empty")
	}

	sort.Strings(files)
	return files, nil
}

// ContentType picks the content type uploaded for a catalog file
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".json":
		return "application/json"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
