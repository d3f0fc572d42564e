package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/contentstream-backend/internal/domain"
)

// SeedContentItems inserts n active items of contentType/category with
// strictly increasing creation times, oldest first.
func SeedContentItems(tb testing.TB, ctx context.Context, tx *gorm.DB, contentType, category string, n int) []*types.ContentItem {
	tb.Helper()
	base := time.Now().UTC().Add(-time.Duration(n+1) * time.Minute)
	out := make([]*types.ContentItem, 0, n)
	for i := 0; i < n; i++ {
		it := &types.ContentItem{
			ID:          uuid.New(),
			ContentType: contentType,
			Category:    category,
			Payload:     datatypes.JSON([]byte(fmt.Sprintf(`{"n":%d}`, i))),
			Active:      true,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := tx.WithContext(ctx).Create(it).Error; err != nil {
			tb.Fatalf("seed content item: %v", err)
		}
		out = append(out, it)
	}
	return out
}

func DeactivateContentItem(tb testing.TB, ctx context.Context, tx *gorm.DB, id uuid.UUID) {
	tb.Helper()
	if err := tx.WithContext(ctx).
		Model(&types.ContentItem{}).
		Where("id = ?", id).
		Update("active", false).Error; err != nil {
		tb.Fatalf("deactivate content item: %v", err)
	}
}

func ExternalIDs(items []*types.ContentItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ExternalID())
	}
	return out
}
