package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/contentstream-backend/internal/data/repos"
	types "github.com/yungbote/contentstream-backend/internal/domain"
	"github.com/yungbote/contentstream-backend/internal/observability"
	apperr "github.com/yungbote/contentstream-backend/internal/pkg/errors"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
	"github.com/yungbote/contentstream-backend/internal/seenset"
)

type SelectionRequest struct {
	// UserID is uuid.Nil for anonymous callers.
	UserID      uuid.UUID
	ContentType string
	Category    string
	Count       int
	Policy      repos.Policy
}

type SelectedItem struct {
	Item *types.ContentItem `json:"item"`
	// DenseID is nil when the identifier could not be resolved.
	DenseID *uint32 `json:"dense_id,omitempty"`
	// Seen marks wraparound filler the user has already been shown.
	Seen bool `json:"seen"`
}

type SelectionResult struct {
	Items []SelectedItem `json:"items"`
	// Wraparound is set when seen items were returned to fill the request.
	Wraparound bool `json:"wraparound"`
	// Degraded is set when dedup was skipped because the membership store failed.
	Degraded bool `json:"degraded"`
	// Truncated is set when fewer than count items came back because the
	// candidate budget ran out before the whole pool was inspected.
	Truncated      bool  `json:"truncated"`
	Anonymous      bool  `json:"anonymous"`
	PoolSize       int64 `json:"pool_size"`
	UnseenReturned int   `json:"unseen_returned"`
	Attempts       int   `json:"attempts"`
}

// SelectionService picks items a user has not seen yet. It never writes
// membership state.
type SelectionService interface {
	GetUnseen(ctx context.Context, req SelectionRequest) (*SelectionResult, error)
}

type selectionService struct {
	db       *gorm.DB
	log      *logger.Logger
	cfg      EngineConfig
	types    *types.TypeRegistry
	items    repos.ContentItemRepo
	identity IdentityService
	store    MembershipStore
}

func NewSelectionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg EngineConfig,
	registry *types.TypeRegistry,
	items repos.ContentItemRepo,
	identity IdentityService,
	store MembershipStore,
) SelectionService {
	return &selectionService{
		db:       db,
		log:      baseLog.With("service", "SelectionService"),
		cfg:      cfg.withDefaults(),
		types:    registry,
		items:    items,
		identity: identity,
		store:    store,
	}
}

func (s *selectionService) GetUnseen(ctx context.Context, req SelectionRequest) (*SelectionResult, error) {
	start := time.Now()
	ct, err := s.types.Validate(req.ContentType)
	if err != nil {
		return nil, err
	}
	if req.Count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", apperr.ErrInvalidArgument)
	}
	count := req.Count
	if count > s.cfg.MaxSelectCount {
		count = s.cfg.MaxSelectCount
	}
	policy := repos.ParsePolicy(string(req.Policy), s.cfg.DefaultPolicy)

	ctx, span := tracer.Start(ctx, "selection.GetUnseen", trace.WithAttributes(
		attribute.String("content_type", ct.String()),
		attribute.String("category", req.Category),
		attribute.Int("count", count),
		attribute.String("policy", string(policy)),
		attribute.Bool("anonymous", req.UserID == uuid.Nil),
	))
	defer span.End()

	pool, err := s.items.CountActive(ctx, nil, ct.String(), req.Category)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("count pool: %w", err)
	}
	res := &SelectionResult{Items: []SelectedItem{}, PoolSize: pool, Anonymous: req.UserID == uuid.Nil}
	if pool == 0 {
		observability.RecordSelection(ct.String(), observability.OutcomeEmpty, 0, time.Since(start))
		return res, nil
	}

	if res.Anonymous {
		if err := s.fillRaw(ctx, res, ct.String(), req.Category, count, policy, true); err != nil {
			return nil, err
		}
		observability.RecordSelection(ct.String(), observability.OutcomeAnonymous, res.Attempts, time.Since(start))
		return res, nil
	}

	seen, err := s.store.LoadSeen(ctx, req.UserID, ct.String())
	if err != nil {
		s.log.Warn("Membership store unavailable, serving without dedup",
			"user_id", req.UserID, "content_type", ct, "error", err)
		span.RecordError(err)
		res.Degraded = true
		if err := s.fillRaw(ctx, res, ct.String(), req.Category, count, policy, false); err != nil {
			return nil, err
		}
		observability.RecordSelection(ct.String(), observability.OutcomeDegraded, res.Attempts, time.Since(start))
		return res, nil
	}

	degraded, err := s.collect(ctx, res, seen, ct.String(), req.Category, count, policy)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	outcome := observability.OutcomeUnseen
	switch {
	case degraded:
		outcome = observability.OutcomeDegraded
	case res.Wraparound:
		outcome = observability.OutcomeWraparound
	case res.Truncated:
		outcome = observability.OutcomeTruncated
	}
	span.SetAttributes(
		attribute.Int("returned", len(res.Items)),
		attribute.Int("unseen_returned", res.UnseenReturned),
		attribute.Int("attempts", res.Attempts),
		attribute.Bool("wraparound", res.Wraparound),
		attribute.Bool("truncated", res.Truncated),
	)
	observability.RecordSelection(ct.String(), outcome, res.Attempts, time.Since(start))
	return res, nil
}

// collect widens the candidate window until count unseen items are found
// or the attempt budget is spent. Seen items top up the response only when
// every active item in the pool was inspected.
func (s *selectionService) collect(
	ctx context.Context,
	res *SelectionResult,
	seen *seenset.Set,
	ct, category string,
	count int,
	policy repos.Policy,
) (bool, error) {
	unseen := make([]SelectedItem, 0, count)
	filler := make([]SelectedItem, 0, count)
	fetched := make([]uuid.UUID, 0, count*s.cfg.CandidateMultiplier)
	window := count * s.cfg.CandidateMultiplier
	budget := int64(s.cfg.MaxCandidatePool)
	if res.PoolSize < budget {
		budget = res.PoolSize
	}
	drained := false

	for res.Attempts < s.cfg.MaxWidenAttempts && len(unseen) < count {
		remaining := int(budget) - len(fetched)
		if remaining <= 0 {
			break
		}
		res.Attempts++
		limit := window
		p := policy
		// The final attempt covers whatever is left of the budget in any order.
		if res.Attempts == s.cfg.MaxWidenAttempts || limit >= remaining {
			limit = remaining
			p = repos.PolicyRandom
		}
		cands, err := s.items.ListCandidates(ctx, nil, repos.CandidateQuery{
			ContentType:  ct,
			Category:     category,
			Limit:        limit,
			Policy:       p,
			RecentWindow: limit * s.cfg.RecentWindowFactor,
			ExcludeIDs:   fetched,
		})
		if err != nil {
			return false, fmt.Errorf("list candidates: %w", err)
		}
		// A short page means nothing else is left in the pool.
		if len(cands) < limit {
			drained = true
		}
		if len(cands) == 0 {
			break
		}
		ids, err := s.identity.ResolveMany(ctx, nil, ct, externalIDs(cands))
		if err != nil {
			s.log.Warn("Identity resolution failed, serving without dedup", "content_type", ct, "error", err)
			res.Degraded = true
			res.UnseenReturned = len(unseen)
			res.Items, err = s.topUpRaw(ctx, unseen, filler, cands, ct, category, count, policy, fetched)
			if err != nil {
				return false, err
			}
			return true, nil
		}
		for _, c := range cands {
			fetched = append(fetched, c.ID)
			d := ids[c.ExternalID()]
			item := SelectedItem{Item: c, DenseID: &d}
			if seen.Contains(d) {
				item.Seen = true
				filler = append(filler, item)
				continue
			}
			if len(unseen) < count {
				unseen = append(unseen, item)
			}
		}
		window *= 2
	}

	res.UnseenReturned = len(unseen)
	res.Items = unseen
	need := count - len(unseen)
	if need <= 0 {
		return false, nil
	}
	if !drained && int64(len(fetched)) < res.PoolSize {
		// Unseen items may remain outside the inspected budget.
		res.Truncated = true
		return false, nil
	}
	if len(filler) > need {
		filler = filler[:need]
	}
	if len(filler) > 0 {
		res.Items = append(res.Items, filler...)
		res.Wraparound = true
	}
	return false, nil
}

// topUpRaw completes a response after identity resolution failed. Unseen
// items collected so far come first, then the failed window, then fresh
// candidates outside every window, and known seen items last.
func (s *selectionService) topUpRaw(
	ctx context.Context,
	unseen, filler []SelectedItem,
	cands []*types.ContentItem,
	ct, category string,
	count int,
	policy repos.Policy,
	fetched []uuid.UUID,
) ([]SelectedItem, error) {
	out := append(make([]SelectedItem, 0, count), unseen...)
	out = append(out, rawItems(cands, nil, count-len(out))...)
	need := count - len(out)
	if need <= 0 {
		return out, nil
	}
	exclude := make([]uuid.UUID, 0, len(fetched)+len(cands))
	exclude = append(exclude, fetched...)
	for _, c := range cands {
		exclude = append(exclude, c.ID)
	}
	more, err := s.items.ListCandidates(ctx, nil, repos.CandidateQuery{
		ContentType:  ct,
		Category:     category,
		Limit:        need,
		Policy:       policy,
		RecentWindow: need * s.cfg.RecentWindowFactor,
		ExcludeIDs:   exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("list raw top-up: %w", err)
	}
	out = append(out, rawItems(more, nil, need)...)
	if need = count - len(out); need > 0 {
		if len(filler) > need {
			filler = filler[:need]
		}
		out = append(out, filler...)
	}
	return out, nil
}

// fillRaw serves candidates with no dedup. Dense ids are attached on a
// best-effort basis when resolve is set.
func (s *selectionService) fillRaw(ctx context.Context, res *SelectionResult, ct, category string, count int, policy repos.Policy, resolve bool) error {
	res.Attempts = 1
	cands, err := s.items.ListCandidates(ctx, nil, repos.CandidateQuery{
		ContentType:  ct,
		Category:     category,
		Limit:        count,
		Policy:       policy,
		RecentWindow: count * s.cfg.RecentWindowFactor,
	})
	if err != nil {
		return fmt.Errorf("list candidates: %w", err)
	}
	var ids map[string]uint32
	if resolve {
		ids, err = s.identity.ResolveMany(ctx, nil, ct, externalIDs(cands))
		if err != nil {
			s.log.Debug("Identity resolution skipped for raw selection", "content_type", ct, "error", err)
			ids = nil
		}
	}
	res.Items = rawItems(cands, ids, count)
	if resolve {
		res.UnseenReturned = len(res.Items)
	}
	return nil
}

func rawItems(cands []*types.ContentItem, ids map[string]uint32, limit int) []SelectedItem {
	out := make([]SelectedItem, 0, len(cands))
	for _, c := range cands {
		if len(out) >= limit {
			break
		}
		item := SelectedItem{Item: c}
		if d, ok := ids[c.ExternalID()]; ok {
			item.DenseID = &d
		}
		out = append(out, item)
	}
	return out
}

func externalIDs(items []*types.ContentItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ExternalID())
	}
	return out
}
