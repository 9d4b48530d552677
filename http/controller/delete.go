package controller

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ptndev/product-image-service/service"
	"github.com/ptndev/product-image-service/utils"
)

func (ctrl *Controller) DeleteImage(c *gin.Context) {
	ctx := c.Request.Context()

	imageID, ok := parseImageID(c)
	if !ok {
		return
	}

	result, err := ctrl.Resolver.Delete(ctx, imageID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.JSON404(c, "Image not found")
			return
		}
		var storageErr *service.StorageError
		if errors.As(err, &storageErr) {
			ctrl.Logger.ErrorWithContextf(ctx, err, "[Delete] Object delete failed for image %s, metadata kept", imageID)
			utils.JSON500(c, "Failed to delete image from storage")
			return
		}
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Delete] Failed to delete image %s", imageID)
		utils.JSON500(c, "Failed to delete image")
		return
	}

	ctrl.Logger.InfoWithContextf(ctx, "[Delete] Deleted image %s (object removed: %v)", imageID, result.ObjectRemoved)
	utils.JSON200(c, gin.H{
		"message":        "Image deleted successfully",
		"image_id":       result.ImageID,
		"object_removed": result.ObjectRemoved,
	})
}

func (ctrl *Controller) PurgeAllImages(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := ctrl.Resolver.PurgeAll(ctx)
	if err != nil {
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Delete] Bulk purge failed")
		utils.JSON500(c, "Failed to purge images")
		return
	}

	ctrl.Logger.InfoWithContextf(ctx, "[Delete] Purged all images: %d objects removed, %d failures, %d articles deleted",
		result.RemovedObjects, len(result.ObjectFailures), result.DeletedArticles)

	utils.JSON200(c, gin.H{
		"message":          "All images purged",
		"removed_objects":  result.RemovedObjects,
		"object_failures":  result.ObjectFailures,
		"deleted_articles": result.DeletedArticles,
	})
}
