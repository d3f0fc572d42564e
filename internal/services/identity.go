package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/contentstream-backend/internal/data/repos"
	types "github.com/yungbote/contentstream-backend/internal/domain"
	"github.com/yungbote/contentstream-backend/internal/observability"
	apperr "github.com/yungbote/contentstream-backend/internal/pkg/errors"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

const (
	maxAssignAttempts = 5
	lookupChunkSize   = 500
)

// IdentityService maps external content ids onto dense per-type integers.
type IdentityService interface {
	ResolveOrAssign(ctx context.Context, tx *gorm.DB, contentType, externalID string) (uint32, error)
	ResolveMany(ctx context.Context, tx *gorm.DB, contentType string, externalIDs []string) (map[string]uint32, error)
	TotalCount(ctx context.Context, tx *gorm.DB, contentType string) (uint64, error)
	Backfill(ctx context.Context, contentType string, batchSize int) (int, error)
	BackfillAll(ctx context.Context, batchSize, concurrency int) (map[string]int, error)
}

type identityService struct {
	db         *gorm.DB
	log        *logger.Logger
	types      *types.TypeRegistry
	items      repos.ContentItemRepo
	identities repos.ContentIdentityRepo
	counters   repos.ContentIDCounterRepo
}

func NewIdentityService(
	db *gorm.DB,
	baseLog *logger.Logger,
	registry *types.TypeRegistry,
	items repos.ContentItemRepo,
	identities repos.ContentIdentityRepo,
	counters repos.ContentIDCounterRepo,
) IdentityService {
	return &identityService{
		db:         db,
		log:        baseLog.With("service", "IdentityService"),
		types:      registry,
		items:      items,
		identities: identities,
		counters:   counters,
	}
}

func toDense(v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("dense id %d out of range", v)
	}
	return uint32(v), nil
}

func (s *identityService) ResolveOrAssign(ctx context.Context, tx *gorm.DB, contentType, externalID string) (uint32, error) {
	ct, err := s.types.Validate(contentType)
	if err != nil {
		return 0, err
	}
	if externalID == "" {
		return 0, fmt.Errorf("%w: empty external id", apperr.ErrInvalidArgument)
	}
	return s.resolveOrAssign(ctx, tx, ct.String(), externalID)
}

func (s *identityService) resolveOrAssign(ctx context.Context, tx *gorm.DB, ct, externalID string) (uint32, error) {
	for attempt := 1; attempt <= maxAssignAttempts; attempt++ {
		row, err := s.identities.GetByExternalID(ctx, tx, ct, externalID)
		if err != nil {
			return 0, fmt.Errorf("lookup identity: %w", err)
		}
		if row != nil {
			return toDense(row.DenseID)
		}

		dense, err := s.assign(ctx, tx, ct, externalID)
		if err == nil {
			observability.RecordIdentityAssigned(ct)
			return dense, nil
		}
		if !errors.Is(err, apperr.ErrIdentityConflict) {
			return 0, err
		}
		observability.RecordIdentityConflict(ct)
		s.log.Debug("Identity assignment lost race, re-reading", "content_type", ct, "external_id", externalID, "attempt", attempt)
	}
	return 0, fmt.Errorf("assign %s/%s: %w after %d attempts", ct, externalID, apperr.ErrIdentityConflict, maxAssignAttempts)
}

// assign allocates the next dense id and inserts the mapping in one
// transaction. A conflicting insert rolls the counter back with it.
func (s *identityService) assign(ctx context.Context, tx *gorm.DB, ct, externalID string) (uint32, error) {
	var dense uint32
	run := func(txx *gorm.DB) error {
		next, err := s.counters.Allocate(ctx, txx, ct)
		if err != nil {
			return fmt.Errorf("allocate dense id: %w", err)
		}
		d, err := toDense(next)
		if err != nil {
			return err
		}
		inserted, err := s.identities.InsertIfAbsent(ctx, txx, &types.ContentIdentity{
			ContentType: ct,
			ExternalID:  externalID,
			DenseID:     next,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			if apperr.IsUniqueViolation(err) {
				return apperr.ErrIdentityConflict
			}
			return fmt.Errorf("insert identity: %w", err)
		}
		if !inserted {
			return apperr.ErrIdentityConflict
		}
		dense = d
		return nil
	}
	t := tx
	if t == nil {
		t = s.db
	}
	if err := t.WithContext(ctx).Transaction(run); err != nil {
		return 0, err
	}
	return dense, nil
}

func (s *identityService) ResolveMany(ctx context.Context, tx *gorm.DB, contentType string, externalIDs []string) (map[string]uint32, error) {
	ct, err := s.types.Validate(contentType)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "identity.ResolveMany", trace.WithAttributes(
		attribute.String("content_type", ct.String()),
		attribute.Int("ids", len(externalIDs)),
	))
	defer span.End()

	out := make(map[string]uint32, len(externalIDs))
	uniq := make([]string, 0, len(externalIDs))
	seen := make(map[string]struct{}, len(externalIDs))
	for _, ext := range externalIDs {
		if ext == "" {
			return nil, fmt.Errorf("%w: empty external id", apperr.ErrInvalidArgument)
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		uniq = append(uniq, ext)
	}

	for start := 0; start < len(uniq); start += lookupChunkSize {
		end := start + lookupChunkSize
		if end > len(uniq) {
			end = len(uniq)
		}
		rows, err := s.identities.ListByExternalIDs(ctx, tx, ct.String(), uniq[start:end])
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("lookup identities: %w", err)
		}
		for _, row := range rows {
			d, err := toDense(row.DenseID)
			if err != nil {
				return nil, err
			}
			out[row.ExternalID] = d
		}
	}

	// Misses are assigned in input order so ids follow first appearance.
	assigned := 0
	for _, ext := range uniq {
		if _, ok := out[ext]; ok {
			continue
		}
		d, err := s.resolveOrAssign(ctx, tx, ct.String(), ext)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		out[ext] = d
		assigned++
	}
	span.SetAttributes(attribute.Int("assigned", assigned))
	return out, nil
}

// TotalCount is the size of the dense-id space: the highest assigned id
// plus one. The allocation counter should always agree; a counter that
// lags the assigned ids would hand out duplicates and is logged.
func (s *identityService) TotalCount(ctx context.Context, tx *gorm.DB, contentType string) (uint64, error) {
	ct, err := s.types.Validate(contentType)
	if err != nil {
		return 0, err
	}
	highest, ok, err := s.identities.MaxDenseID(ctx, tx, ct.String())
	if err != nil {
		return 0, fmt.Errorf("read max dense id: %w", err)
	}
	var total uint64
	if ok && highest >= 0 {
		total = uint64(highest) + 1
	}
	next, err := s.counters.Next(ctx, tx, ct.String())
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	if next < int64(total) {
		s.log.Warn("Dense id counter behind assigned ids",
			"content_type", ct, "counter", next, "assigned", total)
	}
	return total, nil
}

// Backfill assigns dense ids to every stored item of a type, active or
// not, in creation order. It is safe to re-run.
func (s *identityService) Backfill(ctx context.Context, contentType string, batchSize int) (int, error) {
	ct, err := s.types.Validate(contentType)
	if err != nil {
		return 0, err
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	processed := 0
	var after time.Time
	var afterID uuid.UUID
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		page, err := s.items.ListPage(ctx, nil, ct.String(), after, afterID, batchSize)
		if err != nil {
			return processed, fmt.Errorf("list items: %w", err)
		}
		if len(page) == 0 {
			break
		}
		ids := make([]string, 0, len(page))
		for _, it := range page {
			ids = append(ids, it.ExternalID())
		}
		if _, err := s.ResolveMany(ctx, nil, ct.String(), ids); err != nil {
			return processed, err
		}
		processed += len(page)
		last := page[len(page)-1]
		after, afterID = last.CreatedAt, last.ID
		s.log.Info("Backfilled dense ids", "content_type", ct, "processed", processed)
		if len(page) < batchSize {
			break
		}
	}
	return processed, nil
}

func (s *identityService) BackfillAll(ctx context.Context, batchSize, concurrency int) (map[string]int, error) {
	if concurrency <= 0 {
		concurrency = 2
	}
	all := s.types.All()
	out := make(map[string]int, len(all))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, ct := range all {
		g.Go(func() error {
			n, err := s.Backfill(gctx, ct.String(), batchSize)
			mu.Lock()
			out[ct.String()] = n
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("backfill %s: %w", ct, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return out, err
}
