package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ptndev/product-image-service/entity"
	"github.com/ptndev/product-image-service/infra"
	"github.com/ptndev/product-image-service/infra/produce"
	"gorm.io/gorm"
)

type fakeObjectStore struct {
	ObjectStore

	mu                 sync.Mutex
	putCalls           int
	putKeys            []string
	putErr             error
	getBody            string
	getStat            infra.ObjectStat
	getErr             error
	removed            []string
	removeErr          error
	removeManyKeys     []string
	removeManyFailures []infra.RemoveFailure
	presignCalls       int
	presignErr         error
}

func (f *fakeObjectStore) Put(_ context.Context, key string, _ io.Reader, _ int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return "", f.putErr
	}
	f.putKeys = append(f.putKeys, key)
	return "http://minio.local/images/" + key, nil
}

func (f *fakeObjectStore) Get(_ context.Context, key string) (io.ReadCloser, infra.ObjectStat, error) {
	if f.getErr != nil {
		return nil, infra.ObjectStat{}, f.getErr
	}
	stat := f.getStat
	stat.Key = key
	return io.NopCloser(bytes.NewReader([]byte(f.getBody))), stat, nil
}

func (f *fakeObjectStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeObjectStore) RemoveMany(_ context.Context, keys []string) []infra.RemoveFailure {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeManyKeys = append(f.removeManyKeys, keys...)
	return f.removeManyFailures
}

func (f *fakeObjectStore) PresignedGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presignCalls++
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "http://minio.local/presigned/" + key, nil
}

type fakeArticleStore struct {
	ArticleStore

	mu           sync.Mutex
	articles     map[string]*entity.Article
	upserted     []string
	upsertErr    error
	setImageIDs  map[string]uuid.UUID
	orphanCount  int64
	orphanCalled bool
}

func (f *fakeArticleStore) Upsert(article *entity.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, article.ID)
	return nil
}

func (f *fakeArticleStore) FindByID(id string) (*entity.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	article, ok := f.articles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return article, nil
}

func (f *fakeArticleStore) SetImageID(articleID string, imageID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setImageIDs == nil {
		f.setImageIDs = make(map[string]uuid.UUID)
	}
	f.setImageIDs[articleID] = imageID
	return nil
}

func (f *fakeArticleStore) DeleteOrphans() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orphanCalled = true
	return f.orphanCount, nil
}

type fakeImageStore struct {
	ImageStore

	mu             sync.Mutex
	images         map[uuid.UUID]*entity.ArticleImage
	byArticle      map[string][]entity.ArticleImage
	created        []*entity.ArticleImage
	createFailFor  map[string]error
	refCounts      map[string]int64
	total          int64
	page           []entity.ArticleImage
	storageKeys    []string
	ops            []string
	deleted        []uuid.UUID
	deletedArticle []string
	deleteAllDone  bool
}

func (f *fakeImageStore) Create(image *entity.ArticleImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.createFailFor[image.ArticleID]; ok {
		return err
	}
	f.created = append(f.created, image)
	f.ops = append(f.ops, "create:"+image.ArticleID)
	return nil
}

func (f *fakeImageStore) FindByID(id uuid.UUID) (*entity.ArticleImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	image, ok := f.images[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return image, nil
}

func (f *fakeImageStore) FindByArticleID(articleID string) ([]entity.ArticleImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byArticle[articleID], nil
}

func (f *fakeImageStore) CountByStorageKey(storageKey string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refCounts[storageKey], nil
}

func (f *fakeImageStore) FindPage(limit, offset int) ([]entity.ArticleImage, error) {
	return f.page, nil
}

func (f *fakeImageStore) CountAll() (int64, error) {
	return f.total, nil
}

func (f *fakeImageStore) ListStorageKeys() ([]string, error) {
	return f.storageKeys, nil
}

func (f *fakeImageStore) Delete(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	f.ops = append(f.ops, "delete:"+id.String())
	return nil
}

func (f *fakeImageStore) DeleteByArticleID(articleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedArticle = append(f.deletedArticle, articleID)
	f.ops = append(f.ops, "delete_by_article:"+articleID)
	return nil
}

func (f *fakeImageStore) DeleteAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteAllDone = true
	return nil
}

// fakeCache round-trips values through JSON the way the Redis wrapper does.
type fakeCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	deleted []string
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.values[key]
	if !ok {
		return infra.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if f.values == nil {
		f.values = make(map[string][]byte)
	}
	f.values[key] = data
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, keys...)
	return nil
}

type fakeEvents struct {
	mu        sync.Mutex
	uploaded  []produce.ImageUploadedMessage
	deleted   []produce.ImageDeletedMessage
	reconcile []string
}

func (f *fakeEvents) PublishImageUploaded(_ context.Context, msg produce.ImageUploadedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, msg)
	return nil
}

func (f *fakeEvents) PublishImageDeleted(_ context.Context, msg produce.ImageDeletedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, msg)
	return nil
}

func (f *fakeEvents) RequestReconcile(_ context.Context, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconcile = append(f.reconcile, reason)
	return nil
}
