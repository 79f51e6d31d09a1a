// Package archive copies downloaded reports and exports to S3-compatible
// object storage and hands back a time-limited link to the copy.
package archive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/zulandar/segdash/internal/config"
	"github.com/zulandar/segdash/internal/logger"
)

// Object is an archived file.
type Object struct {
	Bucket string
	Key    string
	Size   int64
	URL    string // presigned download link
}

// Archive writes objects into one bucket.
type Archive struct {
	client *minio.Client
	bucket string
	region string
	prefix string
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// New creates an Archive from cfg. No request is made until the first call.
func New(cfg config.ArchiveConfig, log *zap.Logger) (*Archive, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("archive: no endpoint configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: create client: %w", err)
	}
	ttl := cfg.LinkTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Archive{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: cfg.Prefix,
		ttl:    ttl,
		log:    logger.OrNop(log).Named("archive"),
		now:    time.Now,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("archive: check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region}); err != nil {
		return fmt.Errorf("archive: create bucket %s: %w", a.bucket, err)
	}
	a.log.Info("created bucket", zap.String("bucket", a.bucket))
	return nil
}

// Put uploads r under a dated key derived from name. size may be -1 when
// unknown.
func (a *Archive) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (*Object, error) {
	key := ObjectKey(a.prefix, name, a.now())
	info, err := a.client.PutObject(ctx, a.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: put %s: %w", key, err)
	}
	u, err := a.client.PresignedGetObject(ctx, a.bucket, key, a.ttl, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: presign %s: %w", key, err)
	}
	a.log.Info("archived", zap.String("key", key), zap.Int64("size", info.Size))
	return &Object{Bucket: a.bucket, Key: key, Size: info.Size, URL: u.String()}, nil
}

// ObjectKey builds "<prefix>/YYYY/MM/DD/<name>". Path separators in name are
// flattened so a file name cannot escape its day folder.
func ObjectKey(prefix, name string, at time.Time) string {
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		name = "unnamed"
	}
	day := at.UTC().Format("2006/01/02")
	return strings.TrimPrefix(path.Join(strings.Trim(prefix, "/"), day, name), "/")
}
