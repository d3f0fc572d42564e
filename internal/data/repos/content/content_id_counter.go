package content

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/contentstream-backend/internal/domain"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

type ContentIDCounterRepo interface {
	// Allocate atomically reserves the next dense id for contentType. The
	// counter row stays write-locked until tx ends, so a rolled back
	// allocation releases its id instead of leaving a gap.
	Allocate(ctx context.Context, tx *gorm.DB, contentType string) (int64, error)
	// Next returns the id the next allocation would hand out (0 if none yet).
	Next(ctx context.Context, tx *gorm.DB, contentType string) (int64, error)
}

type contentIDCounterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentIDCounterRepo(db *gorm.DB, baseLog *logger.Logger) ContentIDCounterRepo {
	return &contentIDCounterRepo{db: db, log: baseLog.With("repo", "ContentIDCounterRepo")}
}

func (r *contentIDCounterRepo) Allocate(ctx context.Context, tx *gorm.DB, contentType string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if contentType == "" {
		return 0, fmt.Errorf("content type required")
	}
	now := time.Now().UTC()
	seed := &types.ContentIDCounter{ContentType: contentType, NextID: 0, UpdatedAt: now}
	if err := t.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(seed).Error; err != nil {
		return 0, fmt.Errorf("seed counter: %w", err)
	}

	var next []int64
	err := t.WithContext(ctx).
		Raw(`UPDATE content_id_counter SET next_id = next_id + 1, updated_at = ? WHERE content_type = ? RETURNING next_id`, now, contentType).
		Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("bump counter: %w", err)
	}
	if len(next) != 1 {
		return 0, fmt.Errorf("bump counter: %d rows returned", len(next))
	}
	return next[0] - 1, nil
}

func (r *contentIDCounterRepo) Next(ctx context.Context, tx *gorm.DB, contentType string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []*types.ContentIDCounter
	if err := t.WithContext(ctx).
		Where("content_type = ?", contentType).
		Limit(1).
		Find(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].NextID, nil
}
