package storage_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"supplier-catalog/internal/config"
	"supplier-catalog/internal/storage"
	"supplier-catalog/internal/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient(t *testing.T) {
	for _, endpoint := range []string{"localhost:9000", "http://localhost:9000", "https://s3.amazonaws.com"} {
		t.Run(endpoint, func(t *testing.T) {
			client, err := storage.NewClient(config.StorageConfig{
				Endpoint:  endpoint,
				AccessKey: "testkey",
				SecretKey: "testsecret",
				UseSSL:    strings.HasPrefix(endpoint, "https"),
				Region:    "us-east-1",
			})
			assert.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestObjectKey(t *testing.T) {
	ts := time.Unix(0, 1700000000123456789)
	assert.Equal(t, "pricelists/42/1700000000123456789.yaml", storage.ObjectKey(42, ts))
}

func TestArchiver_EnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("existing bucket", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "pricelists").Return(true, nil)

		archiver := storage.NewArchiver(client, "pricelists", "", zap.NewNop())
		require.NoError(t, archiver.EnsureBucket(ctx))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing bucket is created", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "pricelists").Return(false, nil)
		client.On("MakeBucket", ctx, "pricelists", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

		archiver := storage.NewArchiver(client, "pricelists", "eu-west-1", zap.NewNop())
		require.NoError(t, archiver.EnsureBucket(ctx))
		client.AssertExpectations(t)
	})

	t.Run("lookup failure", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", ctx, "pricelists").Return(false, errors.New("unreachable"))

		archiver := storage.NewArchiver(client, "pricelists", "", zap.NewNop())
		assert.Error(t, archiver.EnsureBucket(ctx))
	})
}

func TestArchiver_Store(t *testing.T) {
	ctx := context.Background()
	document := []byte("shop: Acme\n")

	client := new(mocks.Client)
	client.On("PutObject", ctx, "pricelists",
		mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, "pricelists/7/") && strings.HasSuffix(key, ".yaml") }),
		mock.Anything,
		int64(len(document)),
		mock.MatchedBy(func(opts minio.PutObjectOptions) bool { return opts.ContentType == "application/x-yaml" }),
	).Return(minio.UploadInfo{}, nil)

	archiver := storage.NewArchiver(client, "pricelists", "", zap.NewNop())
	key, err := archiver.Store(ctx, 7, document)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "pricelists/7/"))
	client.AssertExpectations(t)
}

func TestArchiver_Store_Failure(t *testing.T) {
	ctx := context.Background()

	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("access denied"))

	archiver := storage.NewArchiver(client, "pricelists", "", zap.NewNop())
	_, err := archiver.Store(ctx, 7, []byte("shop: Acme\n"))
	assert.ErrorContains(t, err, "access denied")
}

func TestArchiver_List(t *testing.T) {
	ctx := context.Background()

	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "pricelists/7/2.yaml"}
	ch <- minio.ObjectInfo{Key: "pricelists/7/1.yaml"}
	close(ch)

	client := new(mocks.Client)
	client.On("ListObjects", ctx, "pricelists", minio.ListObjectsOptions{Prefix: "pricelists/7/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	archiver := storage.NewArchiver(client, "pricelists", "", zap.NewNop())
	keys, err := archiver.List(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"pricelists/7/1.yaml", "pricelists/7/2.yaml"}, keys)
}
