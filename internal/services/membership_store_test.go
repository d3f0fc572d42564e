package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/contentstream-backend/internal/data/repos"
	"github.com/yungbote/contentstream-backend/internal/data/repos/testutil"
	"github.com/yungbote/contentstream-backend/internal/seenset"
)

type memEntry struct {
	blob    []byte
	version int64
}

type memCache struct {
	mu          sync.Mutex
	entries     map[string]memEntry
	hits        int
	writes      int
	invalidated int
}

func newMemCache() *memCache { return &memCache{entries: map[string]memEntry{}} }

func (c *memCache) key(userID uuid.UUID, contentType string) string {
	return contentType + ":" + userID.String()
}

func (c *memCache) GetSeen(_ context.Context, userID uuid.UUID, contentType string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[c.key(userID, contentType)]
	if ok {
		c.hits++
	}
	return e.blob, ok, nil
}

func (c *memCache) SetSeen(_ context.Context, userID uuid.UUID, contentType string, blob []byte, version int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.key(userID, contentType)
	if cur, ok := c.entries[k]; ok && cur.version >= version {
		return false, nil
	}
	c.entries[k] = memEntry{blob: blob, version: version}
	c.writes++
	return true, nil
}

func (c *memCache) Invalidate(_ context.Context, userID uuid.UUID, contentType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, c.key(userID, contentType))
	c.invalidated++
	return nil
}

func (c *memCache) version(userID uuid.UUID, contentType string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[c.key(userID, contentType)].version
}

func (c *memCache) Close() error { return nil }

func TestMembershipStoreWritesThroughOnChange(t *testing.T) {
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	rs := repos.NewSet(db, log)
	cache := newMemCache()
	store := NewMembershipStore(db, log, rs.Memberships, cache, NewStoreGuard(log, 5, time.Second))
	ctx := context.Background()
	user := uuid.New()

	seen, err := store.LoadSeen(ctx, user, "quiz")
	if err != nil {
		t.Fatalf("LoadSeen: %v", err)
	}
	if !seen.IsEmpty() {
		t.Fatalf("expected empty set for new user")
	}
	if _, err := store.LoadSeen(ctx, user, "quiz"); err != nil {
		t.Fatalf("LoadSeen: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("expected second read from cache, hits=%d", cache.hits)
	}

	changed, err := store.Apply(ctx, user, "quiz", func(seen, _ *seenset.Set) bool {
		return seen.Add(7)
	})
	if err != nil || !changed {
		t.Fatalf("Apply: changed=%v err=%v", changed, err)
	}
	seen, err = store.LoadSeen(ctx, user, "quiz")
	if err != nil {
		t.Fatalf("LoadSeen: %v", err)
	}
	if !seen.Contains(7) || cache.hits != 2 {
		t.Fatalf("cached read should include the new id: hits=%d", cache.hits)
	}

	writes := cache.writes
	changed, err = store.Apply(ctx, user, "quiz", func(seen, _ *seenset.Set) bool {
		return seen.Add(7)
	})
	if err != nil || changed {
		t.Fatalf("no-op Apply: changed=%v err=%v", changed, err)
	}
	if cache.writes != writes {
		t.Fatalf("no-op write must not touch the cache")
	}
}

func TestMembershipStoreCacheRejectsStaleFill(t *testing.T) {
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	rs := repos.NewSet(db, log)
	cache := newMemCache()
	store := NewMembershipStore(db, log, rs.Memberships, cache, NewStoreGuard(log, 5, time.Second))
	ctx := context.Background()
	user := uuid.New()

	if _, err := store.Apply(ctx, user, "quiz", func(seen, _ *seenset.Set) bool { return seen.Add(1) }); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	staleBlob, err := seenset.New(1).Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	staleVersion := cache.version(user, "quiz")

	for _, id := range []uint32{2, 3} {
		if _, err := store.Apply(ctx, user, "quiz", func(seen, _ *seenset.Set) bool { return seen.Add(id) }); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	if v := cache.version(user, "quiz"); v <= staleVersion {
		t.Fatalf("version did not advance: %d <= %d", v, staleVersion)
	}

	// A reader that loaded the row before those commits tries to fill late.
	ok, err := cache.SetSeen(ctx, user, "quiz", staleBlob, staleVersion)
	if err != nil || ok {
		t.Fatalf("stale fill accepted: ok=%v err=%v", ok, err)
	}
	seen, err := store.LoadSeen(ctx, user, "quiz")
	if err != nil {
		t.Fatalf("LoadSeen: %v", err)
	}
	for _, id := range []uint32{1, 2, 3} {
		if !seen.Contains(id) {
			t.Fatalf("cached set lost id %d", id)
		}
	}

	row, err := rs.Memberships.Get(ctx, nil, user, "quiz")
	if err != nil || row == nil {
		t.Fatalf("Get: row=%v err=%v", row, err)
	}
	if got := cache.version(user, "quiz"); got != row.LastUpdated.UnixMicro() {
		t.Fatalf("cache version %d does not match row %d", got, row.LastUpdated.UnixMicro())
	}
}
