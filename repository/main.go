package repository

import (
	"github.com/ptndev/product-image-service/infra"
)

type Repository struct {
	ArticleRepo *ArticleRepository
	ImageRepo   *ImageRepository
}

var repository *Repository

func InitRepository(infra *infra.Infra) *Repository {
	repository = &Repository{
		ArticleRepo: NewArticleRepository(infra.Postgres.DB),
		ImageRepo:   NewImageRepository(infra.Postgres.DB),
	}
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}
