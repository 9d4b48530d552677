package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ptndev/product-image-service/config"
	"github.com/ptndev/product-image-service/entity"
	"github.com/ptndev/product-image-service/http/controller"
	routes "github.com/ptndev/product-image-service/http/route"
	"github.com/ptndev/product-image-service/infra"
	"github.com/ptndev/product-image-service/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeObjects struct {
	service.ObjectStore

	mu             sync.Mutex
	putCalls       int
	getBody        string
	removed        []string
	removeManyKeys []string
}

func (f *fakeObjects) Put(_ context.Context, key string, _ io.Reader, _ int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	return "http://minio.local/images/" + key, nil
}

func (f *fakeObjects) Get(_ context.Context, key string) (io.ReadCloser, infra.ObjectStat, error) {
	stat := infra.ObjectStat{Key: key, SizeBytes: int64(len(f.getBody)), ContentType: "image/png"}
	return io.NopCloser(bytes.NewReader([]byte(f.getBody))), stat, nil
}

func (f *fakeObjects) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeObjects) RemoveMany(_ context.Context, keys []string) []infra.RemoveFailure {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeManyKeys = append(f.removeManyKeys, keys...)
	return nil
}

func (f *fakeObjects) PresignedGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://minio.local/presigned/" + key, nil
}

type fakeArticles struct {
	service.ArticleStore

	mu       sync.Mutex
	articles map[string]*entity.Article
	upserted []string
}

func (f *fakeArticles) Upsert(article *entity.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, article.ID)
	return nil
}

func (f *fakeArticles) FindByID(id string) (*entity.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	article, ok := f.articles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return article, nil
}

func (f *fakeArticles) DeleteOrphans() (int64, error) { return 0, nil }

type fakeImages struct {
	service.ImageStore

	mu        sync.Mutex
	images    map[uuid.UUID]*entity.ArticleImage
	refCounts map[string]int64
	created   []*entity.ArticleImage
	deleted   []uuid.UUID
}

func (f *fakeImages) Create(image *entity.ArticleImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, image)
	return nil
}

func (f *fakeImages) FindByID(id uuid.UUID) (*entity.ArticleImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	image, ok := f.images[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return image, nil
}

func (f *fakeImages) FindByArticleID(string) ([]entity.ArticleImage, error) { return nil, nil }

func (f *fakeImages) CountByStorageKey(key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refCounts[key], nil
}

func (f *fakeImages) ListStorageKeys() ([]string, error) { return nil, nil }

func (f *fakeImages) Delete(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeImages) DeleteAll() error { return nil }

type testEnv struct {
	router   *gin.Engine
	cfg      *config.EnvConfig
	objects  *fakeObjects
	articles *fakeArticles
	images   *fakeImages
}

func newTestEnv(t *testing.T, mutate func(*config.EnvConfig)) *testEnv {
	t.Helper()

	env := &config.EnvConfig{}
	env.Upload.MaxSizeBytes = 1 << 20
	env.Upload.AllowedContentTypes = []string{"image/jpeg", "image/png", "image/gif"}
	env.Upload.AssociationMode = config.AssociationModeMulti
	env.Upload.PresignTTLSeconds = 3600
	env.JWT.SecretKey = "test-secret"
	if mutate != nil {
		mutate(env)
	}

	objects := &fakeObjects{}
	articles := &fakeArticles{articles: map[string]*entity.Article{}}
	images := &fakeImages{images: map[uuid.UUID]*entity.ArticleImage{}, refCounts: map[string]int64{}}

	strategy := service.NewAssociationStrategy(env.Upload.AssociationMode, articles, images)
	uploader := service.NewUploader(objects, strategy, nil, env.Upload.MaxSizeBytes, env.Upload.AllowedContentTypes)
	resolver := service.NewResolver(objects, articles, images, nil, nil,
		time.Duration(env.Upload.PresignTTLSeconds)*time.Second)

	cfg := &config.Config{EnvConfig: env}
	ctrl := controller.NewController(cfg, infra.InitLoggerClient(env), uploader, resolver)

	return &testEnv{
		router:   routes.SetupRouter(ctrl),
		cfg:      env,
		objects:  objects,
		articles: articles,
		images:   images,
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func (e *testEnv) do(method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"ok"`)
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t, nil)

	body, contentType := multipartBody(t,
		map[string]string{"article_id": "C", "article_ids": "A,B", "batch_run_id": "run-1"},
		"product.png", "image/png", []byte("png bytes"))
	resp := env.do(http.MethodPost, "/api/v1/upload", body, map[string]string{"Content-Type": contentType})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var decoded struct {
		StorageKey string                      `json:"storage_key"`
		Results    []service.IdentifierResult  `json:"results"`
		Failed     int                         `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decoded))

	assert.NotEmpty(t, decoded.StorageKey)
	assert.Zero(t, decoded.Failed)
	require.Len(t, decoded.Results, 3, "single field, repeated fields and comma-joins all count")
	assert.Equal(t, 1, env.objects.putCalls)
	require.Len(t, env.images.created, 3)
	for _, row := range env.images.created {
		assert.Equal(t, "run-1", row.Context["batch_run_id"], "request metadata is persisted with each row")
	}
}

func TestUploadImageRejectsDisallowedContentType(t *testing.T) {
	env := newTestEnv(t, nil)

	body, contentType := multipartBody(t, map[string]string{"article_ids": "A"},
		"payload.txt", "text/plain", []byte("not an image"))
	resp := env.do(http.MethodPost, "/api/v1/upload", body, map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, env.objects.putCalls, "rejection happens before any store call")
	assert.Empty(t, env.images.created)
}

func TestUploadImageWithoutFile(t *testing.T) {
	env := newTestEnv(t, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("article_ids", "A"))
	require.NoError(t, writer.Close())

	resp := env.do(http.MethodPost, "/api/v1/upload", &body,
		map[string]string{"Content-Type": writer.FormDataContentType()})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUploadImageWithoutIdentifiers(t *testing.T) {
	env := newTestEnv(t, nil)

	body, contentType := multipartBody(t, nil, "product.png", "image/png", []byte("png bytes"))
	resp := env.do(http.MethodPost, "/api/v1/upload", body, map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, env.objects.putCalls)
}

func TestUploadImageOverSizeLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.EnvConfig) {
		cfg.Upload.MaxSizeBytes = 16
	})

	body, contentType := multipartBody(t, map[string]string{"article_ids": "A"},
		"big.png", "image/png", make([]byte, 64))
	resp := env.do(http.MethodPost, "/api/v1/upload", body, map[string]string{"Content-Type": contentType})

	assert.Equal(t, http.StatusBadRequest, resp.Code, "oversize is a client validation error like the rest")
	assert.Zero(t, env.objects.putCalls)
}

func TestServeImage(t *testing.T) {
	env := newTestEnv(t, nil)
	env.objects.getBody = "png bytes"
	image := &entity.ArticleImage{
		ID:           uuid.New(),
		ArticleID:    "A",
		StorageKey:   "abc.png",
		OriginalName: "product.png",
		ContentType:  "image/png",
	}
	env.images.images[image.ID] = image

	resp := env.do(http.MethodGet, "/api/v1/serve/"+image.ID.String(), nil, nil)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "png bytes", resp.Body.String())
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000", resp.Header().Get("Cache-Control"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "product.png")
}

func TestServeImageUnknownID(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(http.MethodGet, "/api/v1/serve/"+uuid.New().String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "Image not found")
}

func TestGetSignedURL(t *testing.T) {
	env := newTestEnv(t, nil)
	image := &entity.ArticleImage{ID: uuid.New(), ArticleID: "A", StorageKey: "abc.png"}
	env.images.images[image.ID] = image

	resp := env.do(http.MethodGet, "/api/v1/image/"+image.ID.String(), nil, nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var decoded struct {
		URL       string `json:"url"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &decoded))
	assert.Equal(t, "http://minio.local/presigned/abc.png", decoded.URL)
	assert.Equal(t, 3600, decoded.ExpiresIn)
}

func TestGetSignedURLMalformedID(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(http.MethodGet, "/api/v1/image/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListImagesByArticleUnknownParent(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(http.MethodGet, "/api/v1/images/by-parent/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "Article not found")
}

func TestDeleteImageLastReference(t *testing.T) {
	env := newTestEnv(t, nil)
	image := &entity.ArticleImage{ID: uuid.New(), ArticleID: "A", StorageKey: "last.png"}
	env.images.images[image.ID] = image
	env.images.refCounts["last.png"] = 1

	resp := env.do(http.MethodDelete, "/api/v1/image/"+image.ID.String(), nil, nil)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"object_removed":true`)
	assert.Equal(t, []string{"last.png"}, env.objects.removed)
	assert.Equal(t, []uuid.UUID{image.ID}, env.images.deleted)
}

func TestDeleteImageRequiresTokenWhenAuthEnabled(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.EnvConfig) {
		cfg.Auth.Enabled = true
	})
	image := &entity.ArticleImage{ID: uuid.New(), ArticleID: "A", StorageKey: "guarded.png"}
	env.images.images[image.ID] = image
	env.images.refCounts["guarded.png"] = 1

	resp := env.do(http.MethodDelete, "/api/v1/image/"+image.ID.String(), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Empty(t, env.images.deleted)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	resp = env.do(http.MethodDelete, "/api/v1/image/"+image.ID.String(), nil,
		map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []uuid.UUID{image.ID}, env.images.deleted)
}

func TestPurgeAllImages(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(http.MethodDelete, "/api/v1/images/all", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "All images purged")
}
