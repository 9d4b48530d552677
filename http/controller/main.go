package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/ptndev/product-image-service/config"
	"github.com/ptndev/product-image-service/infra"
	"github.com/ptndev/product-image-service/service"
	"github.com/ptndev/product-image-service/utils"
)

type Controller struct {
	Config   *config.Config
	Logger   *infra.LoggerClient
	Uploader *service.Uploader
	Resolver *service.Resolver
}

func NewController(cfg *config.Config, logger *infra.LoggerClient, uploader *service.Uploader, resolver *service.Resolver) *Controller {
	return &Controller{
		Config:   cfg,
		Logger:   logger,
		Uploader: uploader,
		Resolver: resolver,
	}
}

func (ctrl *Controller) HealthCheck(c *gin.Context) {
	utils.JSON200(c, gin.H{"status": "ok"})
}
