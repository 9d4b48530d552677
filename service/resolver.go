package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/ptndev/product-image-service/entity"
	"github.com/ptndev/product-image-service/infra"
	"github.com/ptndev/product-image-service/infra/produce"
	"gorm.io/gorm"
)

const urlCachePrefix = "imgurl:"

type PageResult struct {
	Images      []entity.ArticleImage `json:"images"`
	CurrentPage int                   `json:"current_page"`
	TotalPages  int                   `json:"total_pages"`
	TotalImages int64                 `json:"total_images"`
	HasNextPage bool                  `json:"has_next_page"`
	HasPrevPage bool                  `json:"has_prev_page"`
}

type PurgeResult struct {
	RemovedObjects  int                   `json:"removed_objects"`
	ObjectFailures  []infra.RemoveFailure `json:"object_failures,omitempty"`
	DeletedArticles int64                 `json:"deleted_articles"`
}

type DeleteResult struct {
	ImageID       uuid.UUID `json:"image_id"`
	StorageKey    string    `json:"storage_key"`
	ObjectRemoved bool      `json:"object_removed"`
}

// Resolver serves read and delete paths over existing associations. All
// lookups go by association id; the parent-keyed lookup supports the
// single-image variant.
type Resolver struct {
	objects    ObjectStore
	articles   ArticleStore
	images     ImageStore
	cache      Cache
	events     EventPublisher
	presignTTL time.Duration
}

func NewResolver(objects ObjectStore, articles ArticleStore, images ImageStore, cache Cache, events EventPublisher, presignTTL time.Duration) *Resolver {
	return &Resolver{
		objects:    objects,
		articles:   articles,
		images:     images,
		cache:      cache,
		events:     events,
		presignTTL: presignTTL,
	}
}

// cachedSignedURL records when a presigned link was minted so cache hits can
// report how much validity is actually left.
type cachedSignedURL struct {
	URL      string    `json:"url"`
	IssuedAt time.Time `json:"issued_at"`
}

// SignedURL returns a time-limited read URL for the association's object.
// URLs are cached slightly shorter than their validity so a cache hit never
// hands out an expired link, and a hit reports the remaining validity of the
// cached link rather than the full nominal TTL.
func (r *Resolver) SignedURL(ctx context.Context, id uuid.UUID) (string, int, error) {
	cacheKey := urlCachePrefix + id.String()
	if r.cache != nil {
		var cached cachedSignedURL
		if err := r.cache.Get(ctx, cacheKey, &cached); err == nil && cached.URL != "" {
			remaining := r.presignTTL - time.Since(cached.IssuedAt)
			if remaining > time.Minute {
				return cached.URL, int(remaining.Seconds()), nil
			}
		}
	}

	image, err := r.findImage(id)
	if err != nil {
		return "", 0, err
	}

	url, err := r.objects.PresignedGetURL(ctx, image.StorageKey, r.presignTTL)
	if err != nil {
		return "", 0, &StorageError{Op: "presign", Err: err}
	}

	if r.cache != nil {
		cacheTTL := r.presignTTL - time.Minute
		if cacheTTL > 0 {
			_ = r.cache.Set(ctx, cacheKey, cachedSignedURL{URL: url, IssuedAt: time.Now()}, cacheTTL)
		}
	}

	return url, int(r.presignTTL.Seconds()), nil
}

// Serve fetches the object bytes for streaming. Keys are never rewritten, so
// responses are safe to cache client-side for up to a year.
func (r *Resolver) Serve(ctx context.Context, id uuid.UUID) (io.ReadCloser, infra.ObjectStat, *entity.ArticleImage, error) {
	image, err := r.findImage(id)
	if err != nil {
		return nil, infra.ObjectStat{}, nil, err
	}

	body, stat, err := r.objects.Get(ctx, image.StorageKey)
	if err != nil {
		if errors.Is(err, infra.ErrObjectNotFound) {
			return nil, infra.ObjectStat{}, nil, ErrNotFound
		}
		return nil, infra.ObjectStat{}, nil, &StorageError{Op: "get", Err: err}
	}

	return body, stat, image, nil
}

func (r *Resolver) ListByArticle(_ context.Context, articleID string) ([]entity.ArticleImage, error) {
	if _, err := r.articles.FindByID(articleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.images.FindByArticleID(articleID)
}

// ResolveByParent returns the storage key for a parent in the one-image-per
// -article model; in multi mode it falls back to the oldest association.
func (r *Resolver) ResolveByParent(_ context.Context, articleID string) (string, error) {
	article, err := r.articles.FindByID(articleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if article.ImageID != nil {
		image, err := r.findImage(*article.ImageID)
		if err != nil {
			return "", err
		}
		return image.StorageKey, nil
	}

	images, err := r.images.FindByArticleID(articleID)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", ErrNotFound
	}
	return images[0].StorageKey, nil
}

func (r *Resolver) Page(_ context.Context, page, limit int) (*PageResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, err := r.images.CountAll()
	if err != nil {
		return nil, err
	}

	images, err := r.images.FindPage(limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &PageResult{
		Images:      images,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalImages: total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && total > 0,
	}, nil
}

// Delete removes one association. The shared object is removed only when the
// last referencing row goes away, and the object delete runs first: if the
// store refuses, the metadata row stays so the association remains resolvable.
func (r *Resolver) Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	image, err := r.findImage(id)
	if err != nil {
		return nil, err
	}

	refs, err := r.images.CountByStorageKey(image.StorageKey)
	if err != nil {
		return nil, err
	}

	objectRemoved := false
	if refs <= 1 {
		if err := r.objects.Remove(ctx, image.StorageKey); err != nil {
			return nil, &StorageError{Op: "remove", Err: err}
		}
		objectRemoved = true
	}

	if err := r.images.Delete(id); err != nil {
		return nil, err
	}

	if r.cache != nil {
		_ = r.cache.Delete(ctx, urlCachePrefix+id.String())
	}
	if r.events != nil {
		_ = r.events.PublishImageDeleted(ctx, produce.ImageDeletedMessage{
			ImageID:       id.String(),
			StorageKey:    image.StorageKey,
			ObjectRemoved: objectRemoved,
		})
	}

	return &DeleteResult{ImageID: id, StorageKey: image.StorageKey, ObjectRemoved: objectRemoved}, nil
}

// PurgeAll deletes every object in one batched store call, then all
// association rows, then orphaned articles. Object-level failures are
// reported individually; no retry is attempted.
func (r *Resolver) PurgeAll(ctx context.Context) (*PurgeResult, error) {
	keys, err := r.images.ListStorageKeys()
	if err != nil {
		return nil, err
	}

	failures := r.objects.RemoveMany(ctx, keys)

	if err := r.images.DeleteAll(); err != nil {
		return nil, err
	}

	deletedArticles, err := r.articles.DeleteOrphans()
	if err != nil {
		return nil, err
	}

	if r.events != nil {
		_ = r.events.RequestReconcile(ctx, "bulk purge")
	}

	return &PurgeResult{
		RemovedObjects:  len(keys) - len(failures),
		ObjectFailures:  failures,
		DeletedArticles: deletedArticles,
	}, nil
}

func (r *Resolver) findImage(id uuid.UUID) (*entity.ArticleImage, error) {
	image, err := r.images.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return image, nil
}
