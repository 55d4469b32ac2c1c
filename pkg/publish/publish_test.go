package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/platinummonkey/symbolgraph/pkg/observability"
)

type putCall struct {
	key         string
	contentType string
	checksum    string
	body        string
}

type fakePutter struct {
	calls  []putCall
	failOn string
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.failOn {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, putCall{
		key:         key,
		contentType: aws.ToString(in.ContentType),
		checksum:    in.Metadata["checksum-sha256"],
		body:        string(body),
	})
	return &s3.PutObjectOutput{}, nil
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Shop.catalog")
	files := map[string]string{
		"Shop.md":               "# Shop\n",
		"shop.symbols.json":     "{}\n",
		"Endpoints/listPets.md": "# listPets\n",
		"Schemas/Pet.md":        "# Pet\n",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func quietLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})
}

func TestPublish(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	putter := &fakePutter{}
	metrics := observability.NewMetrics(nil)
	p := NewPublisher(putter, "docs", "/api/v1/",
		WithLogger(quietLogger()),
		WithMetrics(metrics),
		WithTracer(tp.Tracer("test")),
	)

	result, err := p.Publish(context.Background(), writeCatalog(t))
	require.NoError(t, err)

	wantKeys := []string{
		"api/v1/Shop.catalog/Endpoints/listPets.md",
		"api/v1/Shop.catalog/Schemas/Pet.md",
		"api/v1/Shop.catalog/Shop.md",
		"api/v1/Shop.catalog/shop.symbols.json",
	}
	assert.Equal(t, "docs", result.Bucket)
	assert.Equal(t, wantKeys, result.Keys)
	assert.Equal(t, int64(len("# listPets\n")+len("# Pet\n")+len("# Shop\n")+len("{}\n")), result.Bytes)

	require.Len(t, putter.calls, 4)
	for i, call := range putter.calls {
		assert.Equal(t, wantKeys[i], call.key)
		sum := sha256.Sum256([]byte(call.body))
		assert.Equal(t, hex.EncodeToString(sum[:]), call.checksum)
	}
	assert.Equal(t, "text/markdown; charset=utf-8", putter.calls[0].contentType)
	assert.Equal(t, "application/json", putter.calls[3].contentType)

	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.PublishedObjectsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(result.Bytes), testutil.ToFloat64(metrics.PublishedBytesTotal))

	spans := exporter.GetSpans()
	require.Len(t, spans, 5)
	assert.Equal(t, "S3.PutObject", spans[0].Name)
	assert.Equal(t, "publish", spans[4].Name)
}

func TestPublish_FirstFailureAborts(t *testing.T) {
	putter := &fakePutter{failOn: "Shop.catalog/Schemas/Pet.md"}
	metrics := observability.NewMetrics(nil)
	p := NewPublisher(putter, "docs", "", WithLogger(quietLogger()), WithMetrics(metrics))

	_, err := p.Publish(context.Background(), writeCatalog(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Shop.catalog/Schemas/Pet.md")
	assert.Contains(t, err.Error(), "access denied")

	require.Len(t, putter.calls, 1, "uploads after the failure are skipped")
	assert.Equal(t, "Shop.catalog/Endpoints/listPets.md", putter.calls[0].key)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PublishedObjectsTotal.WithLabelValues("error")))
}

func TestPublish_BadCatalog(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name string
		dir  string
		want string
	}{
		{"missing", filepath.Join(t.TempDir(), "Nope.catalog"), "no such file"},
		{"not a directory", file, "not a directory"},
		{"empty", t.TempDir(), "is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			putter := &fakePutter{}
			_, err := NewPublisher(putter, "docs", "", WithLogger(quietLogger())).Publish(context.Background(), tt.dir)
			assert.ErrorContains(t, err, tt.want)
			assert.Empty(t, putter.calls)
		})
	}
}

func TestPublish_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	putter := &fakePutter{}
	_, err := NewPublisher(putter, "docs", "", WithLogger(quietLogger())).Publish(ctx, writeCatalog(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, putter.calls)
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Shop.md", "text/markdown; charset=utf-8"},
		{"README.MD", "text/markdown; charset=utf-8"},
		{"shop.symbols.json", "application/json"},
		{"blob", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentType(tt.name))
		})
	}
}

type fakeBuckets struct {
	exists    bool
	createErr error
	created   []string
}

func (f *fakeBuckets) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.exists {
		return &s3.HeadBucketOutput{}, nil
	}
	return nil, &types.NotFound{}
}

func (f *fakeBuckets) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, aws.ToString(in.Bucket))
	return &s3.CreateBucketOutput{}, nil
}

func TestEnsureBucket(t *testing.T) {
	tests := []struct {
		name        string
		client      *fakeBuckets
		wantCreated []string
		wantErr     bool
	}{
		{name: "exists", client: &fakeBuckets{exists: true}},
		{name: "created", client: &fakeBuckets{}, wantCreated: []string{"docs"}},
		{name: "race with another creator", client: &fakeBuckets{createErr: &types.BucketAlreadyOwnedByYou{}}},
		{name: "create fails", client: &fakeBuckets{createErr: errors.New("forbidden")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EnsureBucket(context.Background(), tt.client, "docs")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, tt.client.created)
		})
	}
}
