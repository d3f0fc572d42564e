package content

import (
	"time"

	"github.com/google/uuid"
)

// UserContentMembership is one user's seen/completed state for one content
// type. Both sets are serialized roaring bitmaps of dense ids.
type UserContentMembership struct {
	UserID       uuid.UUID `gorm:"type:uuid;column:user_id;primaryKey" json:"user_id"`
	ContentType  string    `gorm:"column:content_type;size:64;primaryKey" json:"content_type"`
	SeenSet      []byte    `gorm:"column:seen_set" json:"-"`
	CompletedSet []byte    `gorm:"column:completed_set" json:"-"`
	LastUpdated  time.Time `gorm:"column:last_updated;not null" json:"last_updated"`
}

func (UserContentMembership) TableName() string { return "user_content_membership" }

// Stats is the per-(user, content type) completion report.
type Stats struct {
	ContentType          string  `json:"content_type"`
	SeenCount            uint64  `json:"seen_count"`
	CompletedCount       uint64  `json:"completed_count"`
	TotalCount           uint64  `json:"total_count"`
	CompletionPercentage float64 `json:"completion_percentage"`
}
