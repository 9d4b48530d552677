package service

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ptndev/product-image-service/entity"
	"github.com/ptndev/product-image-service/infra/produce"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type UploadInput struct {
	Payload      []byte
	ContentType  string
	OriginalName string
	ArticleIDs   []string
	// Context carries request metadata persisted alongside each record
	// (client address, batch run id).
	Context map[string]interface{}
}

// IdentifierResult is the per-identifier outcome of one upload call.
type IdentifierResult struct {
	ArticleID string    `json:"article_id"`
	ImageID   uuid.UUID `json:"image_id,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

type UploadResult struct {
	StorageKey  string             `json:"storage_key"`
	Location    string             `json:"location"`
	ContentType string             `json:"content_type"`
	SizeBytes   int64              `json:"size_bytes"`
	Results     []IdentifierResult `json:"results"`
}

func (r *UploadResult) FailedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Uploader stores one payload exactly once and links it to every target
// article, reporting partial success per identifier. There is no compensating
// transaction: associations that succeeded stay even when siblings fail.
type Uploader struct {
	objects  ObjectStore
	strategy AssociationStrategy
	events   EventPublisher
	maxSize  int64
	allowed  map[string]struct{}
}

func NewUploader(objects ObjectStore, strategy AssociationStrategy, events EventPublisher, maxSizeBytes int64, allowedContentTypes []string) *Uploader {
	allowed := make(map[string]struct{}, len(allowedContentTypes))
	for _, t := range allowedContentTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return &Uploader{
		objects:  objects,
		strategy: strategy,
		events:   events,
		maxSize:  maxSizeBytes,
		allowed:  allowed,
	}
}

func (u *Uploader) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if len(in.Payload) == 0 {
		return nil, ErrNoPayload
	}
	if _, ok := u.allowed[strings.ToLower(in.ContentType)]; !ok {
		return nil, ErrInvalidContentType
	}
	if int64(len(in.Payload)) > u.maxSize {
		return nil, ErrPayloadTooLarge
	}

	articleIDs := normalizeIdentifiers(in.ArticleIDs)
	if len(articleIDs) == 0 {
		return nil, ErrNoIdentifiers
	}

	// One object write per call. Retries of a failed call mint a fresh key;
	// no idempotency key is honored.
	storageKey := uuid.New().String() + strings.ToLower(filepath.Ext(in.OriginalName))

	location, err := u.objects.Put(ctx, storageKey, bytes.NewReader(in.Payload), int64(len(in.Payload)), in.ContentType)
	if err != nil {
		return nil, &StorageError{Op: "put", Err: err}
	}

	results := make([]IdentifierResult, len(articleIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, articleID := range articleIDs {
		g.Go(func() error {
			image := &entity.ArticleImage{
				ID:           uuid.New(),
				ArticleID:    articleID,
				StorageKey:   storageKey,
				OriginalName: in.OriginalName,
				ContentType:  in.ContentType,
				SizeBytes:    int64(len(in.Payload)),
				Context:      datatypes.JSONMap(in.Context),
			}
			if err := u.strategy.Link(gctx, image); err != nil {
				results[i] = IdentifierResult{ArticleID: articleID, Status: StatusFailed, Error: err.Error()}
				return nil
			}
			results[i] = IdentifierResult{ArticleID: articleID, ImageID: image.ID, Status: StatusSuccess}
			return nil
		})
	}
	_ = g.Wait()

	result := &UploadResult{
		StorageKey:  storageKey,
		Location:    location,
		ContentType: in.ContentType,
		SizeBytes:   int64(len(in.Payload)),
		Results:     results,
	}

	if u.events != nil {
		var linked []string
		for _, res := range results {
			if res.Status == StatusSuccess {
				linked = append(linked, res.ArticleID)
			}
		}
		_ = u.events.PublishImageUploaded(ctx, produce.ImageUploadedMessage{
			StorageKey: storageKey,
			ArticleIDs: linked,
			SizeBytes:  int64(len(in.Payload)),
		})
	}

	return result, nil
}

// normalizeIdentifiers trims, drops empties and folds duplicates while
// preserving first-seen order.
func normalizeIdentifiers(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
