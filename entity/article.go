package entity

import (
	"time"

	"github.com/google/uuid"
)

// Article is the business parent an image is attached to. The primary key is
// the article number (or SAP product code) itself, created lazily the first
// time an upload references it.
type Article struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// ImageID is only populated in single-image mode, where an article holds
	// at most one image reference that re-uploads overwrite.
	ImageID *uuid.UUID `json:"image_id,omitempty" gorm:"type:uuid"`
}
