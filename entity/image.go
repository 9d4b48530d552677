package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ArticleImage links one stored object to one article. Several rows may share
// the same storage key when a single upload targets multiple articles; the
// object outlives any individual row as long as at least one row references
// its key.
type ArticleImage struct {
	ID           uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	ArticleID    string            `json:"article_id" gorm:"type:varchar(64);not null;index"`
	StorageKey   string            `json:"storage_key" gorm:"type:varchar(1024);not null;index"`
	OriginalName string            `json:"original_name" gorm:"type:varchar(512)"`
	ContentType  string            `json:"content_type" gorm:"type:varchar(255)"`
	SizeBytes    int64             `json:"size_bytes" gorm:"not null"`
	Context      datatypes.JSONMap `json:"context,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;autoCreateTime"`

	Article *Article `json:"article,omitempty" gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
}
