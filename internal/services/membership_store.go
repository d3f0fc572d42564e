package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/contentstream-backend/internal/clients/redis"
	"github.com/yungbote/contentstream-backend/internal/data/repos"
	types "github.com/yungbote/contentstream-backend/internal/domain"
	"github.com/yungbote/contentstream-backend/internal/observability"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
	"github.com/yungbote/contentstream-backend/internal/seenset"
)

// Membership is a decoded snapshot of one user's sets for one content type.
type Membership struct {
	Seen        *seenset.Set
	Completed   *seenset.Set
	LastUpdated time.Time
}

// MutateFunc edits the sets in place and reports whether anything changed.
type MutateFunc func(seen, completed *seenset.Set) bool

// MembershipStore persists per-user seen and completed sets.
type MembershipStore interface {
	LoadSeen(ctx context.Context, userID uuid.UUID, contentType string) (*seenset.Set, error)
	Load(ctx context.Context, userID uuid.UUID, contentType string) (*Membership, error)
	// LoadAll returns every membership row of a user keyed by content type.
	LoadAll(ctx context.Context, userID uuid.UUID) (map[string]*Membership, error)
	Apply(ctx context.Context, userID uuid.UUID, contentType string, mutate MutateFunc) (bool, error)
}

type membershipStore struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  repos.UserContentMembershipRepo
	cache redis.MembershipCache
	guard StoreGuard
}

// NewMembershipStore builds a store. cache may be nil.
func NewMembershipStore(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo repos.UserContentMembershipRepo,
	cache redis.MembershipCache,
	guard StoreGuard,
) MembershipStore {
	return &membershipStore{
		db:    db,
		log:   baseLog.With("service", "MembershipStore"),
		repo:  repo,
		cache: cache,
		guard: guard,
	}
}

func (s *membershipStore) LoadSeen(ctx context.Context, userID uuid.UUID, contentType string) (*seenset.Set, error) {
	if s.cache != nil {
		blob, ok, err := s.cache.GetSeen(ctx, userID, contentType)
		switch {
		case err != nil:
			observability.RecordSeenCache("error")
			s.log.Warn("Seen cache read failed", "user_id", userID, "content_type", contentType, "error", err)
		case ok:
			if set, derr := seenset.FromBytes(blob); derr == nil {
				observability.RecordSeenCache("hit")
				return set, nil
			}
			observability.RecordSeenCache("corrupt")
			_ = s.cache.Invalidate(ctx, userID, contentType)
		default:
			observability.RecordSeenCache("miss")
		}
	}

	var blob []byte
	var version int64
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		row, err := s.repo.Get(ctx, nil, userID, contentType)
		if err != nil {
			return err
		}
		if row != nil {
			blob = row.SeenSet
			version = cacheVersion(row.LastUpdated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	set, err := seenset.FromBytes(blob)
	if err != nil {
		return nil, fmt.Errorf("decode seen set: %w", err)
	}
	if s.cache != nil {
		if _, err := s.cache.SetSeen(ctx, userID, contentType, blob, version); err != nil {
			s.log.Debug("Seen cache write failed", "content_type", contentType, "error", err)
		}
	}
	return set, nil
}

func (s *membershipStore) Load(ctx context.Context, userID uuid.UUID, contentType string) (*Membership, error) {
	var row *types.UserContentMembership
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.repo.Get(ctx, nil, userID, contentType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decodeMembership(row)
}

func (s *membershipStore) LoadAll(ctx context.Context, userID uuid.UUID) (map[string]*Membership, error) {
	var rows []*types.UserContentMembership
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		rows, err = s.repo.ListByUser(ctx, nil, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Membership, len(rows))
	for _, row := range rows {
		m, err := decodeMembership(row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", row.ContentType, err)
		}
		out[row.ContentType] = m
	}
	return out, nil
}

// decodeMembership turns a row into sets. A nil row is an empty membership.
func decodeMembership(row *types.UserContentMembership) (*Membership, error) {
	m := &Membership{}
	var seenBlob, completedBlob []byte
	if row != nil {
		seenBlob, completedBlob = row.SeenSet, row.CompletedSet
		m.LastUpdated = row.LastUpdated
	}
	var err error
	if m.Seen, err = seenset.FromBytes(seenBlob); err != nil {
		return nil, fmt.Errorf("decode seen set: %w", err)
	}
	if m.Completed, err = seenset.FromBytes(completedBlob); err != nil {
		return nil, fmt.Errorf("decode completed set: %w", err)
	}
	return m, nil
}

// cacheVersion orders cached blobs by the row they were read from.
func cacheVersion(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// nextUpdated returns a last_updated strictly after prev at microsecond
// precision, so each committed write has a distinct cache version.
func nextUpdated(prev time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}

// Apply runs mutate under the row lock for (userID, contentType) and
// writes both sets back when it reports a change. The committed seen set
// is then written through to the cache.
func (s *membershipStore) Apply(ctx context.Context, userID uuid.UUID, contentType string, mutate MutateFunc) (bool, error) {
	changed := false
	var seenBlob []byte
	var version int64
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		changed = false
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			row, err := s.repo.GetForUpdate(ctx, tx, userID, contentType)
			if err != nil {
				return err
			}
			seen, err := seenset.FromBytes(row.SeenSet)
			if err != nil {
				return fmt.Errorf("decode seen set: %w", err)
			}
			completed, err := seenset.FromBytes(row.CompletedSet)
			if err != nil {
				return fmt.Errorf("decode completed set: %w", err)
			}
			if !mutate(seen, completed) {
				return nil
			}
			if row.SeenSet, err = seen.Bytes(); err != nil {
				return fmt.Errorf("encode seen set: %w", err)
			}
			if row.CompletedSet, err = completed.Bytes(); err != nil {
				return fmt.Errorf("encode completed set: %w", err)
			}
			row.LastUpdated = nextUpdated(row.LastUpdated)
			if err := s.repo.Save(ctx, tx, row); err != nil {
				return err
			}
			seenBlob, version = row.SeenSet, cacheVersion(row.LastUpdated)
			changed = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}
	if changed && s.cache != nil {
		if _, err := s.cache.SetSeen(ctx, userID, contentType, seenBlob, version); err != nil {
			s.log.Warn("Seen cache write-through failed", "user_id", userID, "content_type", contentType, "error", err)
			if err := s.cache.Invalidate(ctx, userID, contentType); err != nil {
				s.log.Warn("Seen cache invalidation failed", "user_id", userID, "content_type", contentType, "error", err)
			}
		}
	}
	return changed, nil
}
