package storage

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const contentType = "application/x-yaml"

// Archiver stores raw price lists under pricelists/<shop-id>/<unix-nanos>.yaml
type Archiver struct {
	client Client
	bucket string
	region string
	logger *zap.Logger
	now    func() time.Time
}

// NewArchiver creates an Archiver writing to bucket
func NewArchiver(client Client, bucket, region string, logger *zap.Logger) *Archiver {
	return &Archiver{
		client: client,
		bucket: bucket,
		region: region,
		logger: logger,
		now:    time.Now,
	}
}

// ObjectKey returns the archive key of a document stored at t
func ObjectKey(shopID int64, t time.Time) string {
	return fmt.Sprintf("pricelists/%d/%d.yaml", shopID, t.UnixNano())
}

// EnsureBucket creates the archive bucket when it does not exist yet
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}

	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}

	a.logger.Info("Created price list archive bucket", zap.String("bucket", a.bucket))
	return nil
}

// Store uploads a raw document and returns its object key
func (a *Archiver) Store(ctx context.Context, shopID int64, document []byte) (string, error) {
	key := ObjectKey(shopID, a.now())

	_, err := a.client.PutObject(
		ctx,
		a.bucket,
		key,
		bytes.NewReader(document),
		int64(len(document)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", fmt.Errorf("failed to archive price list: %w", err)
	}

	a.logger.Debug("Archived price list",
		zap.Int64("shop_id", shopID),
		zap.String("key", key),
		zap.Int("bytes", len(document)),
	)

	return key, nil
}

// List returns the archived keys of a shop, oldest first
func (a *Archiver) List(ctx context.Context, shopID int64) ([]string, error) {
	prefix := fmt.Sprintf("pricelists/%d/", shopID)

	keys := []string{}
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archived price lists: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	sort.Strings(keys)
	return keys, nil
}
