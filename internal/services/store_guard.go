package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/yungbote/contentstream-backend/internal/observability"
	apperr "github.com/yungbote/contentstream-backend/internal/pkg/errors"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

// StoreGuard fronts membership store calls with a circuit breaker.
// Failures that are not the caller's fault come back wrapping
// apperr.ErrStoreUnavailable.
type StoreGuard interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	State() gobreaker.State
}

type storeGuard struct {
	cb  *gobreaker.CircuitBreaker[struct{}]
	log *logger.Logger
}

func NewStoreGuard(baseLog *logger.Logger, failures uint32, openTimeout time.Duration) StoreGuard {
	log := baseLog.With("service", "StoreGuard")
	if failures == 0 {
		failures = 5
	}
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        "membership-store",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || apperr.IsCallerError(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			observability.StoreBreakerState.Set(float64(to))
		},
	}
	return &storeGuard{cb: gobreaker.NewCircuitBreaker[struct{}](settings), log: log}
}

func (g *storeGuard) State() gobreaker.State { return g.cb.State() }

func (g *storeGuard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := g.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
	}
	if apperr.IsCallerError(err) || errors.Is(err, context.Canceled) || errors.Is(err, apperr.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", apperr.ErrStoreUnavailable, err)
}
