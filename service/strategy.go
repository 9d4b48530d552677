package service

import (
	"context"

	"github.com/ptndev/product-image-service/config"
	"github.com/ptndev/product-image-service/entity"
)

// AssociationStrategy persists the parent entity and the association record
// for one identifier. Two variants exist in production: articles holding any
// number of images, and articles holding exactly one that re-uploads replace.
type AssociationStrategy interface {
	Link(ctx context.Context, image *entity.ArticleImage) error
}

func NewAssociationStrategy(mode string, articles ArticleStore, images ImageStore) AssociationStrategy {
	if mode == config.AssociationModeSingle {
		return &SingleImageStrategy{articles: articles, images: images}
	}
	return &MultiImageStrategy{articles: articles, images: images}
}

// MultiImageStrategy appends association records; an article may accumulate
// any number of images.
type MultiImageStrategy struct {
	articles ArticleStore
	images   ImageStore
}

func (s *MultiImageStrategy) Link(_ context.Context, image *entity.ArticleImage) error {
	if err := s.articles.Upsert(&entity.Article{ID: image.ArticleID}); err != nil {
		return err
	}
	return s.images.Create(image)
}

// SingleImageStrategy keeps at most one image per article: previous rows for
// the article are dropped and the article's image reference is overwritten.
// The object behind a dropped row is left for the reconcile sweep.
type SingleImageStrategy struct {
	articles ArticleStore
	images   ImageStore
}

func (s *SingleImageStrategy) Link(_ context.Context, image *entity.ArticleImage) error {
	if err := s.articles.Upsert(&entity.Article{ID: image.ArticleID}); err != nil {
		return err
	}
	if err := s.images.DeleteByArticleID(image.ArticleID); err != nil {
		return err
	}
	if err := s.images.Create(image); err != nil {
		return err
	}
	return s.articles.SetImageID(image.ArticleID, image.ID)
}
