package infra

import (
	"github.com/ptndev/product-image-service/config"
	"github.com/ptndev/product-image-service/infra/produce"
)

type Infra struct {
	Redis    *RedisClient
	Postgres *PostgresClient
	Logger   *LoggerClient
	RabbitMQ *RabbitMQClient
	Minio    *MinioClient
	Produce  *produce.Produce
}

var infraInstance *Infra

func InitInfra(cfg *config.Config) *Infra {
	if infraInstance != nil {
		return infraInstance
	}

	redis := InitRedisClient(cfg.EnvConfig)
	if redis == nil {
		panic("Failed to initialize Redis service")
	}

	postgres := InitPostgresClient(cfg.EnvConfig)
	if postgres == nil {
		panic("Failed to initialize Postgres service")
	}

	logger := InitLoggerClient(cfg.EnvConfig)
	if logger == nil {
		panic("Failed to initialize Logger service")
	}

	rabbitMQ := InitRabbitMQClient(cfg.EnvConfig)
	if rabbitMQ == nil {
		panic("Failed to initialize RabbitMQ service")
	}

	minio := InitMinioClient(cfg.EnvConfig)
	if minio == nil {
		panic("Failed to initialize MinIO service")
	}

	produceService := produce.InitProduce(rabbitMQ.Channel)
	if produceService == nil {
		panic("Failed to initialize Produce service")
	}

	infraInstance = &Infra{
		Redis:    redis,
		Postgres: postgres,
		Logger:   logger,
		RabbitMQ: rabbitMQ,
		Minio:    minio,
		Produce:  produceService,
	}

	return infraInstance
}

func GetClient() *Infra {
	if infraInstance == nil {
		panic("Infra not initialized. Call InitInfra() first.")
	}
	return infraInstance
}
