package middlewares

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ptndev/product-image-service/config"
)

func CORSMiddleware(cfg *config.EnvConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if cfg.CORS.AllowDomains == "" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		for _, domain := range strings.Split(cfg.CORS.AllowDomains, ",") {
			if domain = strings.TrimSpace(domain); domain != "" {
				corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, domain)
			}
		}
	}

	return cors.New(corsConfig)
}
