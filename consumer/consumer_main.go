package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ptndev/product-image-service/config"
	"github.com/ptndev/product-image-service/consumer/worker"
	infraPkg "github.com/ptndev/product-image-service/infra"
	"github.com/ptndev/product-image-service/repository"
)

func main() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := worker.NewReconcileConsumer(infra.RabbitMQ.Channel, infra, repo, cfg.EnvConfig)
	if err := reconciler.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start reconcile consumer: %v", err)
		log.Fatalf("Failed to start reconcile consumer: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel()

	infra.Logger.InfoWithContextf(ctx, "Consumer exited properly")
}
