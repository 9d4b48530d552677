package repository

import (
	"github.com/google/uuid"
	"github.com/ptndev/product-image-service/entity"
	"gorm.io/gorm"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(image *entity.ArticleImage) error {
	return r.db.Create(image).Error
}

func (r *ImageRepository) FindByID(id uuid.UUID) (*entity.ArticleImage, error) {
	var image entity.ArticleImage
	err := r.db.Where("id = ?", id).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *ImageRepository) FindByArticleID(articleID string) ([]entity.ArticleImage, error) {
	var images []entity.ArticleImage
	err := r.db.Where("article_id = ?", articleID).Order("created_at").Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

// CountByStorageKey reports how many rows still reference the storage key.
// The object itself may only be removed when this drops to zero.
func (r *ImageRepository) CountByStorageKey(storageKey string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.ArticleImage{}).
		Where("storage_key = ?", storageKey).
		Count(&count).Error
	return count, err
}

func (r *ImageRepository) FindPage(limit, offset int) ([]entity.ArticleImage, error) {
	var images []entity.ArticleImage
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ImageRepository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&entity.ArticleImage{}).Count(&count).Error
	return count, err
}

// ListStorageKeys returns every distinct storage key referenced by at least
// one row. Used by the reconcile sweep to detect orphaned objects.
func (r *ImageRepository) ListStorageKeys() ([]string, error) {
	var keys []string
	err := r.db.Model(&entity.ArticleImage{}).
		Distinct("storage_key").
		Pluck("storage_key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *ImageRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&entity.ArticleImage{}, "id = ?", id).Error
}

// DeleteByArticleID removes every association row for one article. Only the
// single-image strategy uses this, right before linking the replacement.
func (r *ImageRepository) DeleteByArticleID(articleID string) error {
	return r.db.Delete(&entity.ArticleImage{}, "article_id = ?", articleID).Error
}

func (r *ImageRepository) DeleteAll() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entity.ArticleImage{}).Error
}
