//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"testing"

	"github.com/luct-reporting/luct-bot/internal/db"
	"github.com/luct-reporting/luct-bot/internal/testutil/testdb"
)

func TestPGStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	exerciseStore(t, db.NewPGStore(h.DB))
}

func TestPGStore_MigrateIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if err := db.Migrate(ctx, h.DB); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
