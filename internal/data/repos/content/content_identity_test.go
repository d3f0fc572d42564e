package content

import (
	"context"
	"testing"

	"github.com/yungbote/contentstream-backend/internal/data/repos/testutil"
	types "github.com/yungbote/contentstream-backend/internal/domain"
)

func TestContentIdentityRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewContentIdentityRepo(db, testutil.Logger(t))

	if got, err := repo.GetByExternalID(ctx, tx, "pun", "ext-1"); err != nil || got != nil {
		t.Fatalf("GetByExternalID(missing): got=%v err=%v", got, err)
	}
	if _, ok, err := repo.MaxDenseID(ctx, tx, "pun"); err != nil || ok {
		t.Fatalf("MaxDenseID(empty): ok=%v err=%v", ok, err)
	}

	ok, err := repo.InsertIfAbsent(ctx, tx, &types.ContentIdentity{ContentType: "pun", ExternalID: "ext-1", DenseID: 0})
	if err != nil || !ok {
		t.Fatalf("InsertIfAbsent(first): ok=%v err=%v", ok, err)
	}
	ok, err = repo.InsertIfAbsent(ctx, tx, &types.ContentIdentity{ContentType: "pun", ExternalID: "ext-1", DenseID: 7})
	if err != nil || ok {
		t.Fatalf("InsertIfAbsent(duplicate): ok=%v err=%v", ok, err)
	}
	if _, err := repo.InsertIfAbsent(ctx, tx, &types.ContentIdentity{ContentType: "pun", ExternalID: "ext-2", DenseID: 1}); err != nil {
		t.Fatalf("InsertIfAbsent(second): %v", err)
	}

	got, err := repo.GetByExternalID(ctx, tx, "pun", "ext-1")
	if err != nil || got == nil || got.DenseID != 0 {
		t.Fatalf("GetByExternalID: got=%v err=%v", got, err)
	}
	rows, err := repo.ListByExternalIDs(ctx, tx, "pun", []string{"ext-1", "ext-2", "ext-3"})
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByExternalIDs: n=%d err=%v", len(rows), err)
	}
	if max, ok, err := repo.MaxDenseID(ctx, tx, "pun"); err != nil || !ok || max != 1 {
		t.Fatalf("MaxDenseID: max=%d ok=%v err=%v", max, ok, err)
	}
}

func TestContentIDCounterRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewContentIDCounterRepo(db, testutil.Logger(t))

	if n, err := repo.Next(ctx, tx, "quote"); err != nil || n != 0 {
		t.Fatalf("Next(empty): n=%d err=%v", n, err)
	}
	for want := int64(0); want < 3; want++ {
		got, err := repo.Allocate(ctx, tx, "quote")
		if err != nil || got != want {
			t.Fatalf("Allocate: got=%d want=%d err=%v", got, want, err)
		}
	}
	if n, err := repo.Next(ctx, tx, "quote"); err != nil || n != 3 {
		t.Fatalf("Next: n=%d err=%v", n, err)
	}
	if got, err := repo.Allocate(ctx, tx, "joke"); err != nil || got != 0 {
		t.Fatalf("Allocate(other type): got=%d err=%v", got, err)
	}
}
