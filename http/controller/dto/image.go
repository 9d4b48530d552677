package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ptndev/product-image-service/service"
)

type UploadResponse struct {
	StorageKey string                     `json:"storage_key"`
	Location   string                     `json:"location"`
	SizeBytes  int64                      `json:"size_bytes"`
	Results    []service.IdentifierResult `json:"results"`
	Failed     int                        `json:"failed"`
}

// ImageSummary is the listing shape; ServeURL is server-relative so clients
// resolve it against whatever host they reached us on.
type ImageSummary struct {
	ID           uuid.UUID `json:"id"`
	ArticleID    string    `json:"article_id"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
	ServeURL     string    `json:"serve_url"`
}

type SignedURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}
