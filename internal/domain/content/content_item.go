package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ContentItem is the content store row. The engine only relies on ID,
// ContentType, Category and Active; Payload is passed through untouched.
type ContentItem struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ContentType string         `gorm:"column:content_type;size:64;not null;index:idx_content_item_type_category,priority:1" json:"content_type"`
	Category    string         `gorm:"column:category;size:128;not null;default:'';index:idx_content_item_type_category,priority:2" json:"category"`
	Payload     datatypes.JSON `gorm:"column:payload" json:"payload"`
	Active      bool           `gorm:"column:active;not null;index" json:"active"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (ContentItem) TableName() string { return "content_item" }

// ExternalID is the durable identifier the identity table is keyed by.
func (c *ContentItem) ExternalID() string {
	if c == nil {
		return ""
	}
	return c.ID.String()
}
