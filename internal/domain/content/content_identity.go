package content

import "time"

// ContentIdentity maps (content_type, external_id) to a dense id. Rows are
// append-only; dense ids are never reused even when the item is deactivated.
type ContentIdentity struct {
	ContentType string    `gorm:"column:content_type;size:64;primaryKey;uniqueIndex:idx_content_identity_type_dense,priority:1" json:"content_type"`
	ExternalID  string    `gorm:"column:external_id;size:128;primaryKey" json:"external_id"`
	DenseID     int64     `gorm:"column:dense_id;not null;uniqueIndex:idx_content_identity_type_dense,priority:2" json:"dense_id"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (ContentIdentity) TableName() string { return "content_identity" }

// ContentIDCounter holds the next dense id to hand out for a content type.
type ContentIDCounter struct {
	ContentType string    `gorm:"column:content_type;size:64;primaryKey" json:"content_type"`
	NextID      int64     `gorm:"column:next_id;not null;default:0" json:"next_id"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (ContentIDCounter) TableName() string { return "content_id_counter" }
