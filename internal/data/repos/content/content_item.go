package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/contentstream-backend/internal/domain"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

// Policy orders candidate items.
type Policy string

const (
	// PolicyRandom draws uniformly from the whole active pool.
	PolicyRandom Policy = "random"
	// PolicyRecent draws randomly from a window of the newest items.
	PolicyRecent Policy = "recent"
)

func ParsePolicy(raw string, def Policy) Policy {
	switch Policy(raw) {
	case PolicyRandom, PolicyRecent:
		return Policy(raw)
	default:
		return def
	}
}

type CandidateQuery struct {
	ContentType string
	Category    string
	Limit       int
	Policy      Policy
	// RecentWindow bounds the newest-items window used by PolicyRecent.
	RecentWindow int
	// ExcludeIDs are items already collected by an earlier widening pass.
	ExcludeIDs []uuid.UUID
}

type ContentItemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.ContentItem) ([]*types.ContentItem, error)
	CountActive(ctx context.Context, tx *gorm.DB, contentType, category string) (int64, error)
	ListCandidates(ctx context.Context, tx *gorm.DB, q CandidateQuery) ([]*types.ContentItem, error)
	ListPage(ctx context.Context, tx *gorm.DB, contentType string, after time.Time, afterID uuid.UUID, limit int) ([]*types.ContentItem, error)
}

type contentItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
	return &contentItemRepo{db: db, log: baseLog.With("repo", "ContentItemRepo")}
}

func (r *contentItemRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.ContentItem) ([]*types.ContentItem, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(items) == 0 {
		return []*types.ContentItem{}, nil
	}
	now := time.Now().UTC()
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		it.UpdatedAt = now
	}
	if err := t.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contentItemRepo) scoped(t *gorm.DB, contentType, category string) *gorm.DB {
	q := t.Model(&types.ContentItem{}).Where("content_type = ? AND active = ?", contentType, true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	return q
}

func (r *contentItemRepo) CountActive(ctx context.Context, tx *gorm.DB, contentType, category string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := r.scoped(t.WithContext(ctx), contentType, category).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *contentItemRepo) ListCandidates(ctx context.Context, tx *gorm.DB, q CandidateQuery) ([]*types.ContentItem, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ContentItem
	if q.Limit <= 0 || q.ContentType == "" {
		return out, nil
	}
	base := r.scoped(t.WithContext(ctx), q.ContentType, q.Category)
	if len(q.ExcludeIDs) > 0 {
		base = base.Where("id NOT IN ?", q.ExcludeIDs)
	}

	switch q.Policy {
	case PolicyRecent:
		window := q.RecentWindow
		if window < q.Limit {
			window = q.Limit
		}
		recent := base.Select("*").Order("created_at DESC").Limit(window)
		err := t.WithContext(ctx).
			Table("(?) AS recent", recent).
			Order("RANDOM()").
			Limit(q.Limit).
			Find(&out).Error
		if err != nil {
			return nil, err
		}
	default:
		if err := base.Order("RANDOM()").Limit(q.Limit).Find(&out).Error; err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListPage walks every item of a type (active or not) in creation order.
func (r *contentItemRepo) ListPage(ctx context.Context, tx *gorm.DB, contentType string, after time.Time, afterID uuid.UUID, limit int) ([]*types.ContentItem, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 500
	}
	var out []*types.ContentItem
	q := t.WithContext(ctx).Where("content_type = ?", contentType)
	if !after.IsZero() {
		q = q.Where("(created_at > ?) OR (created_at = ? AND id > ?)", after, after, afterID)
	}
	if err := q.Order("created_at ASC, id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
