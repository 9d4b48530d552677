package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/ptndev/product-image-service/entity"
	"github.com/ptndev/product-image-service/infra"
	"github.com/ptndev/product-image-service/infra/produce"
)

// ObjectStore is the capability the orchestrator and resolver need from the
// object store. infra.MinioClient satisfies it; tests substitute fakes.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, infra.ObjectStat, error)
	Remove(ctx context.Context, key string) error
	RemoveMany(ctx context.Context, keys []string) []infra.RemoveFailure
	ListKeys(ctx context.Context, prefix string) ([]infra.ObjectStat, error)
	PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ArticleStore covers the parent-entity operations. Satisfied by
// repository.ArticleRepository.
type ArticleStore interface {
	Upsert(article *entity.Article) error
	FindByID(id string) (*entity.Article, error)
	SetImageID(articleID string, imageID uuid.UUID) error
	DeleteOrphans() (int64, error)
}

// ImageStore covers the association-record operations. Satisfied by
// repository.ImageRepository.
type ImageStore interface {
	Create(image *entity.ArticleImage) error
	FindByID(id uuid.UUID) (*entity.ArticleImage, error)
	FindByArticleID(articleID string) ([]entity.ArticleImage, error)
	CountByStorageKey(storageKey string) (int64, error)
	FindPage(limit, offset int) ([]entity.ArticleImage, error)
	CountAll() (int64, error)
	ListStorageKeys() ([]string, error)
	Delete(id uuid.UUID) error
	DeleteByArticleID(articleID string) error
	DeleteAll() error
}

// Cache is the slice of the Redis client the resolver uses for signed URLs.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher emits lifecycle events. All publishing is best-effort.
type EventPublisher interface {
	PublishImageUploaded(ctx context.Context, msg produce.ImageUploadedMessage) error
	PublishImageDeleted(ctx context.Context, msg produce.ImageDeletedMessage) error
	RequestReconcile(ctx context.Context, reason string) error
}
