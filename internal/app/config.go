package app

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/contentstream-backend/internal/data/repos"
	"github.com/yungbote/contentstream-backend/internal/observability"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
	"github.com/yungbote/contentstream-backend/internal/services"
	"github.com/yungbote/contentstream-backend/internal/utils"
)

type Config struct {
	Port        string
	DBDriver    string
	SQLitePath  string
	RedisAddr   string
	CORSOrigins []string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	ContentTypes []string
	Engine       services.EngineConfig

	SeenCacheTTL    time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	MetricsEnabled bool
	Otel           observability.OtelConfig
}

// engineOverlay is the shape of the DEDUP_CONFIG_FILE document. Zero
// fields leave the environment value in place.
type engineOverlay struct {
	ContentTypes        []string `yaml:"content_types"`
	CandidateMultiplier int      `yaml:"candidate_multiplier"`
	MaxWidenAttempts    int      `yaml:"max_widen_attempts"`
	MaxCandidatePool    int      `yaml:"max_candidate_pool"`
	RecentWindowFactor  int      `yaml:"recent_window_factor"`
	MaxSelectCount      int      `yaml:"max_select_count"`
	DefaultPolicy       string   `yaml:"default_policy"`
	SeenCacheTTLSeconds int      `yaml:"seen_cache_ttl_seconds"`
	BreakerFailures     int      `yaml:"breaker_failures"`
	BreakerTimeoutSecs  int      `yaml:"breaker_timeout_seconds"`
	MutationRetrySecs   int      `yaml:"mutation_retry_seconds"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	d := services.DefaultEngineConfig()
	cfg := Config{
		Port:        utils.GetEnv("PORT", "8080", log),
		DBDriver:    strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", log)),
		SQLitePath:  utils.GetEnv("SQLITE_PATH", "contentstream.db", log),
		RedisAddr:   strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log)),
		CORSOrigins: utils.GetEnvAsList("CORS_ALLOWED_ORIGINS", nil, log),

		JWTSecretKey:   utils.GetEnv("JWT_SECRET_KEY", "", log),
		AccessTokenTTL: utils.GetEnvAsSeconds("ACCESS_TOKEN_TTL", time.Hour, log),

		ContentTypes: utils.GetEnvAsList("CONTENT_TYPES", nil, log),
		Engine: services.EngineConfig{
			CandidateMultiplier:     utils.GetEnvAsInt("DEDUP_CANDIDATE_MULTIPLIER", d.CandidateMultiplier, log),
			MaxWidenAttempts:        utils.GetEnvAsInt("DEDUP_MAX_WIDEN_ATTEMPTS", d.MaxWidenAttempts, log),
			MaxCandidatePool:        utils.GetEnvAsInt("DEDUP_MAX_CANDIDATE_POOL", d.MaxCandidatePool, log),
			RecentWindowFactor:      utils.GetEnvAsInt("DEDUP_RECENT_WINDOW_FACTOR", d.RecentWindowFactor, log),
			MaxSelectCount:          utils.GetEnvAsInt("DEDUP_MAX_SELECT_COUNT", d.MaxSelectCount, log),
			DefaultPolicy:           repos.ParsePolicy(utils.GetEnv("DEDUP_DEFAULT_POLICY", string(d.DefaultPolicy), log), d.DefaultPolicy),
			MutationRetryMaxElapsed: utils.GetEnvAsSeconds("DEDUP_MUTATION_RETRY_SECONDS", d.MutationRetryMaxElapsed, log),
		},

		SeenCacheTTL:    utils.GetEnvAsSeconds("DEDUP_SEEN_CACHE_TTL_SECONDS", 5*time.Minute, log),
		BreakerFailures: breakerFailures(utils.GetEnvAsInt("DEDUP_BREAKER_FAILURES", defaultBreakerFailures, log)),
		BreakerTimeout:  utils.GetEnvAsSeconds("DEDUP_BREAKER_TIMEOUT_SECONDS", 30*time.Second, log),

		MetricsEnabled: utils.GetEnvAsBool("METRICS_ENABLED", true, log),
		Otel: observability.OtelConfig{
			Enabled:     utils.GetEnvAsBool("OTEL_ENABLED", false, log),
			ServiceName: utils.GetEnv("OTEL_SERVICE_NAME", "contentstream", log),
			Environment: utils.GetEnv("APP_ENV", "development", log),
			Version:     utils.GetEnv("APP_VERSION", "", log),
			Insecure:    utils.GetEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true, log),
			Headers:     observability.ParseHeaders(utils.GetEnv("OTEL_EXPORTER_OTLP_HEADERS", "", log)),
		},
	}
	if strings.EqualFold(utils.GetEnv("OTEL_EXPORTER", "otlp", log), "otlp") {
		cfg.Otel.Endpoint = utils.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log)
	}
	if ratio := utils.GetEnvAsInt("OTEL_SAMPLE_PERCENT", 10, log); ratio > 0 {
		cfg.Otel.SampleRatio = float64(ratio) / 100
	}

	if path := strings.TrimSpace(utils.GetEnv("DEDUP_CONFIG_FILE", "", log)); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
		if err := applyOverlay(&cfg, raw); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		log.Info("Applied engine config overlay", "path", path)
	}
	return cfg, nil
}

func applyOverlay(cfg *Config, raw []byte) error {
	var o engineOverlay
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return err
	}
	if len(o.ContentTypes) > 0 {
		cfg.ContentTypes = o.ContentTypes
	}
	setInt := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	setInt(&cfg.Engine.CandidateMultiplier, o.CandidateMultiplier)
	setInt(&cfg.Engine.MaxWidenAttempts, o.MaxWidenAttempts)
	setInt(&cfg.Engine.MaxCandidatePool, o.MaxCandidatePool)
	setInt(&cfg.Engine.RecentWindowFactor, o.RecentWindowFactor)
	setInt(&cfg.Engine.MaxSelectCount, o.MaxSelectCount)
	if o.DefaultPolicy != "" {
		cfg.Engine.DefaultPolicy = repos.ParsePolicy(o.DefaultPolicy, cfg.Engine.DefaultPolicy)
	}
	if o.SeenCacheTTLSeconds > 0 {
		cfg.SeenCacheTTL = time.Duration(o.SeenCacheTTLSeconds) * time.Second
	}
	if o.BreakerFailures > 0 {
		cfg.BreakerFailures = uint32(o.BreakerFailures)
	}
	if o.BreakerTimeoutSecs > 0 {
		cfg.BreakerTimeout = time.Duration(o.BreakerTimeoutSecs) * time.Second
	}
	if o.MutationRetrySecs > 0 {
		cfg.Engine.MutationRetryMaxElapsed = time.Duration(o.MutationRetrySecs) * time.Second
	}
	return nil
}

const defaultBreakerFailures = 5

// breakerFailures falls back to the default for non-positive values so a
// bad setting cannot wrap around to a breaker that never trips.
func breakerFailures(n int) uint32 {
	if n <= 0 {
		return defaultBreakerFailures
	}
	if uint64(n) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}
