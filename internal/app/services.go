package app

import (
	"gorm.io/gorm"

	types "github.com/yungbote/contentstream-backend/internal/domain"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
	"github.com/yungbote/contentstream-backend/internal/services"
)

type Services struct {
	Registry  *types.TypeRegistry
	Guard     services.StoreGuard
	Identity  services.IdentityService
	Store     services.MembershipStore
	Selection services.SelectionService
	Mutation  services.MutationService
	Stats     services.StatsService
	Auth      services.AuthService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")
	registry := types.NewTypeRegistry(cfg.ContentTypes)
	guard := services.NewStoreGuard(log, cfg.BreakerFailures, cfg.BreakerTimeout)
	identity := services.NewIdentityService(db, log, registry, reposet.Items, reposet.Identities, reposet.Counters)
	store := services.NewMembershipStore(db, log, reposet.Memberships, clients.SeenCache, guard)
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY not set; every request is anonymous")
	}
	return Services{
		Registry:  registry,
		Guard:     guard,
		Identity:  identity,
		Store:     store,
		Selection: services.NewSelectionService(db, log, cfg.Engine, registry, reposet.Items, identity, store),
		Mutation:  services.NewMutationService(log, cfg.Engine, registry, identity, store),
		Stats:     services.NewStatsService(log, registry, identity, store),
		Auth:      services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL),
	}
}
