package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

func TestMembershipCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis cache tests")
	}
	cache, err := NewMembershipCache(logger.Nop(), addr, time.Minute)
	if err != nil {
		t.Fatalf("NewMembershipCache: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	userID := uuid.New()

	if _, ok, err := cache.GetSeen(ctx, userID, "quiz"); err != nil || ok {
		t.Fatalf("GetSeen(missing): ok=%v err=%v", ok, err)
	}
	if ok, err := cache.SetSeen(ctx, userID, "quiz", []byte{1, 2, 3}, 10); err != nil || !ok {
		t.Fatalf("SetSeen: ok=%v err=%v", ok, err)
	}
	// Older and equal versions never replace a newer entry.
	for _, v := range []int64{9, 10} {
		if ok, err := cache.SetSeen(ctx, userID, "quiz", []byte{9}, v); err != nil || ok {
			t.Fatalf("SetSeen(v=%d): ok=%v err=%v", v, ok, err)
		}
	}
	b, ok, err := cache.GetSeen(ctx, userID, "quiz")
	if err != nil || !ok || string(b) != string([]byte{1, 2, 3}) {
		t.Fatalf("GetSeen: b=%v ok=%v err=%v", b, ok, err)
	}
	if ok, err := cache.SetSeen(ctx, userID, "quiz", []byte{4}, 11); err != nil || !ok {
		t.Fatalf("SetSeen(newer): ok=%v err=%v", ok, err)
	}
	if err := cache.Invalidate(ctx, userID, "quiz"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := cache.GetSeen(ctx, userID, "quiz"); ok {
		t.Fatalf("entry survived Invalidate")
	}
}

func TestNewMembershipCacheRequiresAddress(t *testing.T) {
	if _, err := NewMembershipCache(logger.Nop(), " ", time.Minute); err == nil {
		t.Fatalf("expected error for empty address")
	}
	if _, err := NewMembershipCache(nil, "localhost:6379", time.Minute); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}
