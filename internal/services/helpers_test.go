package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"techstore/internal/cart"
	"techstore/internal/repos"
	"techstore/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func registry(t *testing.T, db *sqlx.DB) *cart.Registry {
	t.Helper()
	r := cart.NewRegistry(cart.Tiers{
		Durable: repos.NewSnapshotRepo(db),
		Backup:  repos.NewSnapshotBackupRepo(db),
	}, cart.RegistryOptions{Debounce: time.Hour})
	t.Cleanup(func() { r.Close(context.Background()) })
	return r
}

type fixture struct {
	db       *sqlx.DB
	carts    *cart.Registry
	cart     *services.CartService
	settings *services.SettingsService
}

func newFixture(t *testing.T) *fixture {
	db := memdb(t)
	reg := registry(t, db)
	return &fixture{
		db:       db,
		carts:    reg,
		cart:     services.NewCartService(reg, repos.NewProductRepo(db)),
		settings: services.NewSettingsService(repos.NewSettingsRepo(db), nil),
	}
}
