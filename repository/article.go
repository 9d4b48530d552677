package repository

import (
	"github.com/google/uuid"
	"github.com/ptndev/product-image-service/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ArticleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Upsert inserts the article if it does not exist yet. Existing rows are left
// untouched so repeated uploads against the same article stay idempotent.
func (r *ArticleRepository) Upsert(article *entity.Article) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(article).Error
}

func (r *ArticleRepository) FindByID(id string) (*entity.Article, error) {
	var article entity.Article
	err := r.db.Where("id = ?", id).First(&article).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// SetImageID overwrites the article's image reference (single-image mode).
func (r *ArticleRepository) SetImageID(articleID string, imageID uuid.UUID) error {
	return r.db.Model(&entity.Article{}).
		Where("id = ?", articleID).
		Update("image_id", imageID).Error
}

// DeleteOrphans removes articles that no image row references anymore.
// Returns the number of deleted rows.
func (r *ArticleRepository) DeleteOrphans() (int64, error) {
	result := r.db.Where(
		"id NOT IN (?)",
		r.db.Model(&entity.ArticleImage{}).Select("article_id"),
	).Delete(&entity.Article{})
	return result.RowsAffected, result.Error
}
