package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ptndev/product-image-service/config"
	"github.com/ptndev/product-image-service/utils"
)

// AuthMiddleware guards destructive routes with a JWT bearer token. It is a
// pass-through when AUTH_ENABLED is false, which is the default for internal
// deployments behind a trusted gateway.
func AuthMiddleware(cfg *config.EnvConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Auth.Enabled {
			c.Next()
			return
		}

		tokenString := utils.ExtractToken(c)
		if tokenString == "" {
			utils.JSON401(c, "Unauthorized: missing token")
			c.Abort()
			return
		}

		token, err := utils.ParseToken(tokenString, cfg)
		if err != nil || !token.Valid {
			utils.JSON401(c, "Unauthorized: invalid token")
			c.Abort()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if subject, ok := claims["sub"].(string); ok {
				c.Set("subject", subject)
			}
		}

		c.Next()
	}
}
