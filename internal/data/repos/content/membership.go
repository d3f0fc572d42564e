package content

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/contentstream-backend/internal/domain"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

type UserContentMembershipRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID, contentType string) (*types.UserContentMembership, error)
	// GetForUpdate creates the row if missing and returns it locked for the
	// rest of tx. It must run inside a transaction.
	GetForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, contentType string) (*types.UserContentMembership, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.UserContentMembership) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserContentMembership, error)
}

type userContentMembershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserContentMembershipRepo(db *gorm.DB, baseLog *logger.Logger) UserContentMembershipRepo {
	return &userContentMembershipRepo{db: db, log: baseLog.With("repo", "UserContentMembershipRepo")}
}

func (r *userContentMembershipRepo) Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID, contentType string) (*types.UserContentMembership, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || contentType == "" {
		return nil, nil
	}
	var rows []*types.UserContentMembership
	err := t.WithContext(ctx).
		Where("user_id = ? AND content_type = ?", userID, contentType).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *userContentMembershipRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, contentType string) (*types.UserContentMembership, error) {
	if tx == nil {
		return nil, fmt.Errorf("GetForUpdate requires a transaction")
	}
	if userID == uuid.Nil || contentType == "" {
		return nil, fmt.Errorf("user id and content type required")
	}
	seed := &types.UserContentMembership{
		UserID:      userID,
		ContentType: contentType,
		LastUpdated: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(seed).Error; err != nil {
		return nil, fmt.Errorf("seed membership: %w", err)
	}

	q := tx.WithContext(ctx).Where("user_id = ? AND content_type = ?", userID, contentType)
	// SQLite has no row locks; its single-writer transaction already
	// serializes us once the seed insert above has taken the write lock.
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.UserContentMembership
	if err := q.Take(&row).Error; err != nil {
		return nil, fmt.Errorf("lock membership: %w", err)
	}
	return &row, nil
}

func (r *userContentMembershipRepo) Save(ctx context.Context, tx *gorm.DB, row *types.UserContentMembership) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.ContentType == "" {
		return nil
	}
	if row.LastUpdated.IsZero() {
		row.LastUpdated = time.Now().UTC()
	}
	return t.WithContext(ctx).
		Model(&types.UserContentMembership{}).
		Where("user_id = ? AND content_type = ?", row.UserID, row.ContentType).
		Updates(map[string]interface{}{
			"seen_set":      row.SeenSet,
			"completed_set": row.CompletedSet,
			"last_updated":  row.LastUpdated,
		}).Error
}

func (r *userContentMembershipRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserContentMembership, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.UserContentMembership
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("content_type ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
