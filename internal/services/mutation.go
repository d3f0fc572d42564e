package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	types "github.com/yungbote/contentstream-backend/internal/domain"
	"github.com/yungbote/contentstream-backend/internal/observability"
	apperr "github.com/yungbote/contentstream-backend/internal/pkg/errors"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
	"github.com/yungbote/contentstream-backend/internal/seenset"
)

const (
	MutationSeen      = "seen"
	MutationCompleted = "completed"
	MutationBatch     = "completed_batch"

	maxBatchSize = 500
)

// MutationService records what a user has seen and completed.
// Completing an item always marks it seen as well.
type MutationService interface {
	MarkSeen(ctx context.Context, userID uuid.UUID, contentType, externalID string) error
	MarkCompleted(ctx context.Context, userID uuid.UUID, contentType, externalID string) error
	MarkCompletedBatch(ctx context.Context, userID uuid.UUID, contentType string, externalIDs []string) (int, error)
}

type mutationService struct {
	log      *logger.Logger
	cfg      EngineConfig
	types    *types.TypeRegistry
	identity IdentityService
	store    MembershipStore
}

func NewMutationService(
	baseLog *logger.Logger,
	cfg EngineConfig,
	registry *types.TypeRegistry,
	identity IdentityService,
	store MembershipStore,
) MutationService {
	return &mutationService{
		log:      baseLog.With("service", "MutationService"),
		cfg:      cfg.withDefaults(),
		types:    registry,
		identity: identity,
		store:    store,
	}
}

func (s *mutationService) MarkSeen(ctx context.Context, userID uuid.UUID, contentType, externalID string) error {
	_, err := s.mark(ctx, MutationSeen, userID, contentType, []string{externalID}, func(seen, _ *seenset.Set, ids []uint32) int {
		return seen.AddMany(ids)
	})
	return err
}

func (s *mutationService) MarkCompleted(ctx context.Context, userID uuid.UUID, contentType, externalID string) error {
	_, err := s.mark(ctx, MutationCompleted, userID, contentType, []string{externalID}, markCompleted)
	return err
}

// MarkCompletedBatch completes every id in one locked write and returns
// how many were newly completed.
func (s *mutationService) MarkCompletedBatch(ctx context.Context, userID uuid.UUID, contentType string, externalIDs []string) (int, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	if len(externalIDs) > maxBatchSize {
		return 0, fmt.Errorf("%w: batch exceeds %d ids", apperr.ErrInvalidArgument, maxBatchSize)
	}
	return s.mark(ctx, MutationBatch, userID, contentType, externalIDs, markCompleted)
}

func markCompleted(seen, completed *seenset.Set, ids []uint32) int {
	seen.AddMany(ids)
	return completed.AddMany(ids)
}

func (s *mutationService) mark(
	ctx context.Context,
	kind string,
	userID uuid.UUID,
	contentType string,
	externalIDs []string,
	apply func(seen, completed *seenset.Set, ids []uint32) int,
) (int, error) {
	ct, err := s.types.Validate(contentType)
	if err != nil {
		return 0, err
	}
	if userID == uuid.Nil {
		return 0, fmt.Errorf("%w: user required", apperr.ErrUnauthorized)
	}
	for _, ext := range externalIDs {
		if ext == "" {
			return 0, fmt.Errorf("%w: empty external id", apperr.ErrInvalidArgument)
		}
	}

	ctx, span := tracer.Start(ctx, "mutation."+kind, trace.WithAttributes(
		attribute.String("content_type", ct.String()),
		attribute.Int("ids", len(externalIDs)),
	))
	defer span.End()

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.cfg.MutationRetryInitial
	expo.MaxInterval = time.Second

	added := 0
	op := func() (struct{}, error) {
		ids, err := s.identity.ResolveMany(ctx, nil, ct.String(), externalIDs)
		if err != nil {
			return struct{}{}, classify(err)
		}
		dense := make([]uint32, 0, len(ids))
		for _, ext := range externalIDs {
			dense = append(dense, ids[ext])
		}
		_, err = s.store.Apply(ctx, userID, ct.String(), func(seen, completed *seenset.Set) bool {
			before := seen.Cardinality() + completed.Cardinality()
			added = apply(seen, completed, dense)
			return seen.Cardinality()+completed.Cardinality() != before
		})
		return struct{}{}, classify(err)
	}
	_, err = backoff.Retry(ctx, op,
		backoff.WithBackOff(expo),
		backoff.WithMaxElapsedTime(s.cfg.MutationRetryMaxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.log.Warn("Membership mutation failed, retrying", "kind", kind, "content_type", ct, "user_id", userID, "retry_in", next, "error", err)
		}),
	)
	observability.RecordMutation(ct.String(), kind, err)
	if err != nil {
		span.RecordError(err)
		if ctx.Err() == nil && !apperr.IsCallerError(err) && !errors.Is(err, apperr.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
		}
		return 0, err
	}
	return added, nil
}

// classify keeps transient failures and open-breaker rejections retryable
// and marks everything else permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if apperr.IsCallerError(err) || errors.Is(err, context.Canceled) {
		return backoff.Permanent(err)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || apperr.IsRetryable(err) {
		return err
	}
	return backoff.Permanent(err)
}
