package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/ptndev/product-image-service/config"
	"github.com/ptndev/product-image-service/http/controller"
	routes "github.com/ptndev/product-image-service/http/route"
	infraPkg "github.com/ptndev/product-image-service/infra"
	"github.com/ptndev/product-image-service/repository"
	"github.com/ptndev/product-image-service/service"
)

func main() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	shutdownTelemetry := infraPkg.InitTelemetry(cfg.EnvConfig)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
		_ = infra.Logger.Shutdown(ctx)
	}()

	strategy := service.NewAssociationStrategy(
		cfg.EnvConfig.Upload.AssociationMode,
		repo.ArticleRepo,
		repo.ImageRepo,
	)
	uploader := service.NewUploader(
		infra.Minio,
		strategy,
		infra.Produce.ImageEvents,
		cfg.EnvConfig.Upload.MaxSizeBytes,
		cfg.EnvConfig.Upload.AllowedContentTypes,
	)
	resolver := service.NewResolver(
		infra.Minio,
		repo.ArticleRepo,
		repo.ImageRepo,
		infra.Redis,
		infra.Produce.ImageEvents,
		time.Duration(cfg.EnvConfig.Upload.PresignTTLSeconds)*time.Second,
	)

	ctrl := controller.NewController(cfg, infra.Logger, uploader, resolver)

	router := routes.SetupRouter(ctrl)

	log.Println("HTTP Server started on :8080")
	if err := router.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
