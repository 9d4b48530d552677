package controller

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ptndev/product-image-service/http/controller/dto"
	"github.com/ptndev/product-image-service/service"
	"github.com/ptndev/product-image-service/utils"
)

func (ctrl *Controller) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("image")
	if err != nil {
		ctrl.Logger.WarningWithContextf(ctx, "[Upload] No image file in form data")
		utils.JSON400(c, "No image file provided")
		return
	}

	// Reject oversize payloads before buffering them.
	if fileHeader.Size > ctrl.Config.EnvConfig.Upload.MaxSizeBytes {
		utils.JSON400(c, "Payload exceeds the maximum allowed size")
		return
	}

	articleIDs := extractArticleIDs(c)
	if len(articleIDs) == 0 {
		utils.JSON400(c, "No article identifiers provided")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Upload] Failed to open multipart file")
		utils.JSON500(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Upload] Failed to read multipart file")
		utils.JSON500(c, "Failed to read uploaded file")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromExtension(fileHeader.Filename)
	}

	uploadContext := map[string]interface{}{
		"client_ip": c.ClientIP(),
	}
	if runID := c.PostForm("batch_run_id"); runID != "" {
		uploadContext["batch_run_id"] = runID
	}

	result, err := ctrl.Uploader.Upload(ctx, service.UploadInput{
		Payload:      payload,
		ContentType:  contentType,
		OriginalName: fileHeader.Filename,
		ArticleIDs:   articleIDs,
		Context:      uploadContext,
	})
	if err != nil {
		ctrl.respondUploadError(c, err)
		return
	}

	ctrl.Logger.InfoWithContextf(ctx, "[Upload] Stored %s (%d bytes) for %d article(s), %d failed",
		result.StorageKey, result.SizeBytes, len(result.Results), result.FailedCount())

	utils.JSON200(c, dto.UploadResponse{
		StorageKey: result.StorageKey,
		Location:   result.Location,
		SizeBytes:  result.SizeBytes,
		Results:    result.Results,
		Failed:     result.FailedCount(),
	})
}

func (ctrl *Controller) respondUploadError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	switch {
	case service.IsValidation(err):
		utils.JSON400(c, err.Error())
	default:
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Upload] Upload failed")
		utils.JSON500(c, "Failed to store image")
	}
}

// extractArticleIDs normalizes the flexible identifier shapes the endpoint
// accepts: a single "article_id" field, repeated "article_ids" fields, and
// comma-joined values inside either.
func extractArticleIDs(c *gin.Context) []string {
	var raw []string
	if single := c.PostForm("article_id"); single != "" {
		raw = append(raw, single)
	}
	raw = append(raw, c.PostFormArray("article_ids")...)

	var ids []string
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, part)
			}
		}
	}
	return ids
}

func contentTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
