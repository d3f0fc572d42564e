package app

import (
	"fmt"

	"github.com/yungbote/contentstream-backend/internal/clients/redis"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

type Clients struct {
	// SeenCache is nil when REDIS_ADDR is unset.
	SeenCache redis.MembershipCache
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var cache redis.MembershipCache
	if cfg.RedisAddr != "" {
		c, err := redis.NewMembershipCache(log, cfg.RedisAddr, cfg.SeenCacheTTL)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis seen cache: %w", err)
		}
		cache = c
	}
	return Clients{SeenCache: cache}, nil
}

func (c Clients) Close() {
	if c.SeenCache != nil {
		_ = c.SeenCache.Close()
	}
}
