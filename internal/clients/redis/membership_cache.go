package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

// MembershipCache holds serialized seen sets so selection can skip the
// membership table on hot paths. Every entry carries the version of the row
// it was read from, and SetSeen never replaces an entry with an older one.
type MembershipCache interface {
	GetSeen(ctx context.Context, userID uuid.UUID, contentType string) ([]byte, bool, error)
	// SetSeen stores blob unless the cached entry is at version or newer.
	// It reports whether the entry was written.
	SetSeen(ctx context.Context, userID uuid.UUID, contentType string, blob []byte, version int64) (bool, error)
	Invalidate(ctx context.Context, userID uuid.UUID, contentType string) error
	Close() error
}

// setIfNewer writes {v, b} to a hash unless its stored v is >= ARGV[1].
var setIfNewer = goredis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'b', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

type membershipCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewMembershipCache dials addr and verifies the connection with a ping.
func NewMembershipCache(log *logger.Logger, addr string, ttl time.Duration) (MembershipCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
		ReadTimeout: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewMembershipCacheFromClient(log, rdb, ttl), nil
}

func NewMembershipCacheFromClient(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) MembershipCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &membershipCache{
		log:    log.With("client", "RedisMembershipCache"),
		rdb:    rdb,
		prefix: "contentstream:seenv",
		ttl:    ttl,
	}
}

func (c *membershipCache) key(userID uuid.UUID, contentType string) string {
	return c.prefix + ":" + contentType + ":" + userID.String()
}

func (c *membershipCache) GetSeen(ctx context.Context, userID uuid.UUID, contentType string) ([]byte, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	b, err := c.rdb.HGet(ctx, c.key(userID, contentType), "b").Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *membershipCache) SetSeen(ctx context.Context, userID uuid.UUID, contentType string, blob []byte, version int64) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}
	if blob == nil {
		blob = []byte{}
	}
	n, err := setIfNewer.Run(ctx, c.rdb, []string{c.key(userID, contentType)}, version, blob, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *membershipCache) Invalidate(ctx context.Context, userID uuid.UUID, contentType string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.key(userID, contentType)).Err()
}

func (c *membershipCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
