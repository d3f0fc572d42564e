package errors

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidContentType is returned for content types outside the configured set.
	ErrInvalidContentType = errors.New("invalid content type")
	// ErrIdentityConflict marks a lost race while assigning a dense id.
	// It is retried internally and never returned to API callers.
	ErrIdentityConflict = errors.New("identity assignment conflict")
	// ErrStoreUnavailable means the membership store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsUniqueViolation reports whether err is a unique-constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}

// IsRetryable reports whether err is a transient store failure worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidContentType) || errors.Is(err, ErrInvalidArgument) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrIdentityConflict) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			// serialization failure, deadlock, lock not available
			return true
		}
		return strings.HasPrefix(pgErr.Code, "08") // connection exceptions
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range []string{"deadlock", "serialization", "timeout", "temporar", "connection refused", "connection reset", "bad connection", "database is locked", "broken pipe"} {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// IsCallerError reports whether err was caused by bad input rather than infrastructure.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidContentType) || errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrUnauthorized)
}
