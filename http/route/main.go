package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/ptndev/product-image-service/http/controller"
	middlewares "github.com/ptndev/product-image-service/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)
	r.GET("/health", ctrl.HealthCheck)

	apiRoutes := r.Group("/api/v1")
	{
		apiRoutes.POST("/upload", ctrl.UploadImage)

		apiRoutes.GET("/images", ctrl.ListImages)
		apiRoutes.GET("/images/by-parent/:article_id", ctrl.ListImagesByArticle)
		apiRoutes.GET("/image/:image_id", ctrl.GetSignedURL)
		apiRoutes.GET("/serve/:image_id", ctrl.ServeImage)

		apiRoutes.DELETE("/image/:image_id", middles.AuthMiddleware, ctrl.DeleteImage)
		apiRoutes.DELETE("/images/all", middles.AuthMiddleware, ctrl.PurgeAllImages)
	}

	return r
}
