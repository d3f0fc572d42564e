package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/contentstream-backend/internal/data/repos"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

func TestLoadConfigEnvAndOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	doc := []byte("content_types: [quiz, joke]\nmax_widen_attempts: 6\ndefault_policy: recent\nbreaker_timeout_seconds: 9\n")
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("DEDUP_CANDIDATE_MULTIPLIER", "7")
	t.Setenv("DEDUP_MAX_WIDEN_ATTEMPTS", "2")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DEDUP_CONFIG_FILE", path)

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("driver: %q", cfg.DBDriver)
	}
	if cfg.Engine.CandidateMultiplier != 7 {
		t.Fatalf("multiplier from env: %d", cfg.Engine.CandidateMultiplier)
	}
	if cfg.Engine.MaxWidenAttempts != 6 {
		t.Fatalf("overlay should win over env: %d", cfg.Engine.MaxWidenAttempts)
	}
	if cfg.Engine.DefaultPolicy != repos.PolicyRecent {
		t.Fatalf("policy: %q", cfg.Engine.DefaultPolicy)
	}
	if cfg.BreakerTimeout != 9*time.Second {
		t.Fatalf("breaker timeout: %v", cfg.BreakerTimeout)
	}
	if len(cfg.ContentTypes) != 2 {
		t.Fatalf("content types: %v", cfg.ContentTypes)
	}
}

func TestLoadConfigMissingOverlay(t *testing.T) {
	t.Setenv("DEDUP_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("expected error for missing overlay")
	}
}

func TestLoadConfigClampsBreakerFailures(t *testing.T) {
	for _, raw := range []string{"-3", "0"} {
		t.Setenv("DEDUP_BREAKER_FAILURES", raw)
		cfg, err := LoadConfig(logger.Nop())
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.BreakerFailures != 5 {
			t.Fatalf("%s: breaker failures=%d want default 5", raw, cfg.BreakerFailures)
		}
	}
	t.Setenv("DEDUP_BREAKER_FAILURES", "12")
	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BreakerFailures != 12 {
		t.Fatalf("breaker failures=%d want 12", cfg.BreakerFailures)
	}
}
