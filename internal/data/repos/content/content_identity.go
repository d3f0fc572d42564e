package content

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/contentstream-backend/internal/domain"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

type ContentIdentityRepo interface {
	GetByExternalID(ctx context.Context, tx *gorm.DB, contentType, externalID string) (*types.ContentIdentity, error)
	ListByExternalIDs(ctx context.Context, tx *gorm.DB, contentType string, externalIDs []string) ([]*types.ContentIdentity, error)
	// InsertIfAbsent reports false when (content_type, external_id) already exists.
	InsertIfAbsent(ctx context.Context, tx *gorm.DB, row *types.ContentIdentity) (bool, error)
	MaxDenseID(ctx context.Context, tx *gorm.DB, contentType string) (int64, bool, error)
}

type contentIdentityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentIdentityRepo(db *gorm.DB, baseLog *logger.Logger) ContentIdentityRepo {
	return &contentIdentityRepo{db: db, log: baseLog.With("repo", "ContentIdentityRepo")}
}

func (r *contentIdentityRepo) GetByExternalID(ctx context.Context, tx *gorm.DB, contentType, externalID string) (*types.ContentIdentity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if contentType == "" || externalID == "" {
		return nil, nil
	}
	var rows []*types.ContentIdentity
	err := t.WithContext(ctx).
		Where("content_type = ? AND external_id = ?", contentType, externalID).
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

func (r *contentIdentityRepo) ListByExternalIDs(ctx context.Context, tx *gorm.DB, contentType string, externalIDs []string) ([]*types.ContentIdentity, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ContentIdentity
	if contentType == "" || len(externalIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("content_type = ? AND external_id IN ?", contentType, externalIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentIdentityRepo) InsertIfAbsent(ctx context.Context, tx *gorm.DB, row *types.ContentIdentity) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.ContentType == "" || row.ExternalID == "" {
		return false, nil
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "content_type"}, {Name: "external_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *contentIdentityRepo) MaxDenseID(ctx context.Context, tx *gorm.DB, contentType string) (int64, bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var max sql.NullInt64
	if err := t.WithContext(ctx).
		Model(&types.ContentIdentity{}).
		Where("content_type = ?", contentType).
		Select("MAX(dense_id)").
		Row().
		Scan(&max); err != nil {
		return 0, false, err
	}
	if !max.Valid {
		return 0, false, nil
	}
	return max.Int64, true, nil
}
