package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ptndev/product-image-service/config"
)

// ErrObjectNotFound marks a read against a key the store does not hold.
var ErrObjectNotFound = errors.New("object not found in storage")

type MinioClient struct {
	Client   *minio.Client
	Bucket   string
	Endpoint string
	UseSSL   bool
}

// ObjectStat is the subset of object metadata the service layer cares about.
type ObjectStat struct {
	Key          string
	SizeBytes    int64
	ContentType  string
	LastModified time.Time
}

// RemoveFailure reports a single failed deletion during a bulk remove.
type RemoveFailure struct {
	Key string `json:"key"`
	Err string `json:"error"`
}

func InitMinioClient(cfg *config.EnvConfig) *MinioClient {
	endpoint := cfg.Minio.Endpoint
	if endpoint == "" {
		panic("MinIO endpoint is not configured")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure: cfg.Minio.UseSSL,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	m := &MinioClient{
		Client:   client,
		Bucket:   cfg.Minio.Bucket,
		Endpoint: endpoint,
		UseSSL:   cfg.Minio.UseSSL,
	}

	if err := m.EnsureBucket(context.Background(), cfg.Minio.Region); err != nil {
		panic(fmt.Sprintf("Failed to ensure bucket %q: %v", cfg.Minio.Bucket, err))
	}

	return m
}

func (m *MinioClient) EnsureBucket(ctx context.Context, region string) error {
	exists, err := m.Client.BucketExists(ctx, m.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.Client.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Put writes one object and returns its location. The key is caller-chosen
// and never reused, so objects are effectively immutable once written.
func (m *MinioClient) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := m.Client.PutObject(ctx, m.Bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %q: %w", key, err)
	}

	scheme := "http"
	if m.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, m.Endpoint, m.Bucket, key), nil
}

func (m *MinioClient) Get(ctx context.Context, key string) (io.ReadCloser, ObjectStat, error) {
	obj, err := m.Client.GetObject(ctx, m.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectStat{}, fmt.Errorf("failed to get object %q: %w", key, err)
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ObjectStat{}, fmt.Errorf("object %q: %w", key, ErrObjectNotFound)
		}
		return nil, ObjectStat{}, fmt.Errorf("failed to stat object %q: %w", key, err)
	}

	return obj, ObjectStat{
		Key:          key,
		SizeBytes:    info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func (m *MinioClient) Remove(ctx context.Context, key string) error {
	err := m.Client.RemoveObject(ctx, m.Bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object %q: %w", key, err)
	}
	return nil
}

// RemoveMany deletes the given keys in one batched call and collects
// per-object failures instead of aborting on the first one.
func (m *MinioClient) RemoveMany(ctx context.Context, keys []string) []RemoveFailure {
	objectsCh := make(chan minio.ObjectInfo)

	go func() {
		defer close(objectsCh)
		for _, key := range keys {
			objectsCh <- minio.ObjectInfo{Key: key}
		}
	}()

	var failures []RemoveFailure
	errorCh := m.Client.RemoveObjects(ctx, m.Bucket, objectsCh, minio.RemoveObjectsOptions{})
	for err := range errorCh {
		if err.Err != nil {
			failures = append(failures, RemoveFailure{Key: err.ObjectName, Err: err.Err.Error()})
		}
	}
	return failures
}

func (m *MinioClient) ListKeys(ctx context.Context, prefix string) ([]ObjectStat, error) {
	objectCh := m.Client.ListObjects(ctx, m.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var objects []ObjectStat
	for obj := range objectCh {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		objects = append(objects, ObjectStat{
			Key:          obj.Key,
			SizeBytes:    obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}
	return objects, nil
}

// PresignedGetURL returns a time-limited read URL for a private object.
func (m *MinioClient) PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := m.Client.PresignedGetObject(ctx, m.Bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object %q: %w", key, err)
	}
	return u.String(), nil
}
