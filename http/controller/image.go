package controller

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ptndev/product-image-service/http/controller/dto"
	"github.com/ptndev/product-image-service/service"
	"github.com/ptndev/product-image-service/utils"
)

func (ctrl *Controller) ListImagesByArticle(c *gin.Context) {
	ctx := c.Request.Context()

	articleID := c.Param("article_id")
	if articleID == "" {
		utils.JSON400(c, "article_id is required")
		return
	}

	images, err := ctrl.Resolver.ListByArticle(ctx, articleID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.JSON404(c, "Article not found")
			return
		}
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to list images for article %s", articleID)
		utils.JSON500(c, "Failed to list images")
		return
	}

	summaries := make([]dto.ImageSummary, 0, len(images))
	for _, img := range images {
		summaries = append(summaries, dto.ImageSummary{
			ID:           img.ID,
			ArticleID:    img.ArticleID,
			OriginalName: img.OriginalName,
			ContentType:  img.ContentType,
			SizeBytes:    img.SizeBytes,
			CreatedAt:    img.CreatedAt,
			ServeURL:     "/api/v1/serve/" + img.ID.String(),
		})
	}

	utils.JSON200(c, gin.H{
		"article_id": articleID,
		"images":     summaries,
		"count":      len(summaries),
	})
}

func (ctrl *Controller) GetSignedURL(c *gin.Context) {
	ctx := c.Request.Context()

	imageID, ok := parseImageID(c)
	if !ok {
		return
	}

	url, expiresIn, err := ctrl.Resolver.SignedURL(ctx, imageID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.JSON404(c, "Image not found")
			return
		}
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to presign image %s", imageID)
		utils.JSON500(c, "Failed to generate signed URL")
		return
	}

	utils.JSON200(c, dto.SignedURLResponse{URL: url, ExpiresIn: expiresIn})
}

func (ctrl *Controller) ServeImage(c *gin.Context) {
	ctx := c.Request.Context()

	imageID, ok := parseImageID(c)
	if !ok {
		return
	}

	body, stat, image, err := ctrl.Resolver.Serve(ctx, imageID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.JSON404(c, "Image not found")
			return
		}
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to fetch image %s", imageID)
		utils.JSON500(c, "Failed to fetch image")
		return
	}
	defer body.Close()

	contentType := image.ContentType
	if contentType == "" {
		contentType = stat.ContentType
	}

	// Storage keys are unique per upload, so the bytes behind a key never
	// change and clients may cache aggressively.
	extraHeaders := map[string]string{
		"Cache-Control":       "public, max-age=31536000",
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", image.OriginalName),
	}
	c.DataFromReader(200, stat.SizeBytes, contentType, body, extraHeaders)
}

func (ctrl *Controller) ListImages(c *gin.Context) {
	ctx := c.Request.Context()

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := ctrl.Resolver.Page(ctx, page, limit)
	if err != nil {
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to list images")
		utils.JSON500(c, "Failed to list images")
		return
	}

	utils.JSON200(c, result)
}

func parseImageID(c *gin.Context) (uuid.UUID, bool) {
	imageID, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		utils.JSON400(c, "Invalid image id format")
		return uuid.Nil, false
	}
	return imageID, true
}
