package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrBlobNotFound is returned when a requested object does not exist.
var ErrBlobNotFound = errors.New("store: blob not found")

// BlobConfig holds S3-compatible object storage settings.
type BlobConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// BlobConfigFromEnv reads S3 settings from the environment. Returns false
// when no endpoint is configured.
func BlobConfigFromEnv() (BlobConfig, bool) {
	cfg := BlobConfig{
		Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		Region:    strings.TrimSpace(os.Getenv("S3_REGION")),
		AccessKey: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
		Bucket:    strings.TrimSpace(os.Getenv("S3_BUCKET")),
		UseSSL:    strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_SSL")), "true"),
	}
	return cfg, cfg.Endpoint != ""
}

// BlobStore keeps rendered artifact documents in S3-compatible storage,
// keyed by project and run.
type BlobStore struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

func NewBlobStore(cfg BlobConfig) (*BlobStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("store: s3 endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("store: s3 credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("store: s3 bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("store: init s3 client: %w", err)
	}
	return &BlobStore{client: client, bucket: cfg.Bucket, region: region}, nil
}

func (b *BlobStore) ensureBucket(ctx context.Context) error {
	if b == nil || b.client == nil {
		return fmt.Errorf("store: blob store is nil")
	}
	b.initOnce.Do(func() {
		exists, err := b.client.BucketExists(ctx, b.bucket)
		if err != nil {
			b.initErr = err
			return
		}
		if exists {
			return
		}
		b.initErr = b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: b.region})
	})
	return b.initErr
}

// Put stores one artifact document.
func (b *BlobStore) Put(ctx context.Context, projectID, runID, name string, content []byte) error {
	if b == nil {
		return fmt.Errorf("store: blob store is nil")
	}
	if strings.TrimSpace(projectID) == "" || strings.TrimSpace(runID) == "" || strings.TrimSpace(name) == "" {
		return fmt.Errorf("store: project id, run id and name are required")
	}
	if err := b.ensureBucket(ctx); err != nil {
		return fmt.Errorf("store: ensure bucket: %w", err)
	}
	key := blobKey(projectID, runID, name)
	_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	return err
}

// Get fetches one artifact document.
func (b *BlobStore) Get(ctx context.Context, projectID, runID, name string) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("store: blob store is nil")
	}
	if err := b.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("store: ensure bucket: %w", err)
	}
	obj, err := b.client.GetObject(ctx, b.bucket, blobKey(projectID, runID, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return data, nil
}

// List names every document stored for a run, sorted.
func (b *BlobStore) List(ctx context.Context, projectID, runID string) ([]string, error) {
	if b == nil {
		return nil, fmt.Errorf("store: blob store is nil")
	}
	if err := b.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("store: ensure bucket: %w", err)
	}
	prefix := strings.TrimSpace(projectID) + "/" + strings.TrimSpace(runID) + "/"
	var names []string
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" {
			continue
		}
		names = append(names, strings.TrimPrefix(obj.Key, prefix))
	}
	sort.Strings(names)
	return names, nil
}

// PresignedURL returns a one-hour download link for a stored document.
func (b *BlobStore) PresignedURL(ctx context.Context, projectID, runID, name string) (string, error) {
	if b == nil || b.client == nil {
		return "", fmt.Errorf("store: blob store is nil")
	}
	u, err := b.client.PresignedGetObject(ctx, b.bucket, blobKey(projectID, runID, name), time.Hour, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func blobKey(projectID, runID, name string) string {
	return strings.TrimSpace(projectID) + "/" + strings.TrimSpace(runID) + "/" +
		strings.TrimLeft(strings.TrimSpace(name), "/")
}
