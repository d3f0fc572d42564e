package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/contentstream-backend/internal/domain"
	apperr "github.com/yungbote/contentstream-backend/internal/pkg/errors"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
	"github.com/yungbote/contentstream-backend/internal/seenset"
)

type StatsService interface {
	GetStats(ctx context.Context, userID uuid.UUID, contentType string) (*types.Stats, error)
	GetStatsSummary(ctx context.Context, userID uuid.UUID) ([]*types.Stats, error)
}

type statsService struct {
	log      *logger.Logger
	types    *types.TypeRegistry
	identity IdentityService
	store    MembershipStore
}

func NewStatsService(baseLog *logger.Logger, registry *types.TypeRegistry, identity IdentityService, store MembershipStore) StatsService {
	return &statsService{
		log:      baseLog.With("service", "StatsService"),
		types:    registry,
		identity: identity,
		store:    store,
	}
}

func (s *statsService) GetStats(ctx context.Context, userID uuid.UUID, contentType string) (*types.Stats, error) {
	ct, err := s.types.Validate(contentType)
	if err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user required", apperr.ErrUnauthorized)
	}
	m, err := s.store.Load(ctx, userID, ct.String())
	if err != nil {
		return nil, err
	}
	return s.build(ctx, ct.String(), m)
}

func (s *statsService) build(ctx context.Context, contentType string, m *Membership) (*types.Stats, error) {
	total, err := s.identity.TotalCount(ctx, nil, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	st := &types.Stats{
		ContentType:    contentType,
		SeenCount:      m.Seen.Cardinality(),
		CompletedCount: m.Completed.Cardinality(),
		TotalCount:     total,
	}
	if total > 0 {
		st.CompletionPercentage = float64(st.CompletedCount) / float64(total)
	}
	return st, nil
}

// GetStatsSummary returns stats for every configured type, sorted by type.
// Memberships come from one read; totals are fetched per type.
func (s *statsService) GetStatsSummary(ctx context.Context, userID uuid.UUID) ([]*types.Stats, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user required", apperr.ErrUnauthorized)
	}
	rows, err := s.store.LoadAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	all := s.types.All()
	out := make([]*types.Stats, len(all))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, ct := range all {
		m, ok := rows[ct.String()]
		if !ok {
			m = &Membership{Seen: seenset.New(), Completed: seenset.New()}
		}
		g.Go(func() error {
			st, err := s.build(gctx, ct.String(), m)
			if err != nil {
				return err
			}
			out[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
