package repos_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techstore/internal/cart"
	"techstore/internal/domain"
	"techstore/internal/repos"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenDB_MigratesAndSeedsOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, repos.RunMigrations(db.DB))

	cats, err := repos.NewCategoryRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Accessories", cats[0].NameEN)
	assert.Equal(t, "إكسسوارات", cats[0].NameAR)

	p, err := repos.NewProductRepo(db).Get(ctx, "lap-001")
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(1999)))
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, "Laptops", p.CategoryNameEN)
	assert.Equal(t, []string{"products/lap-001/main.jpg"}, p.Images)
}

func TestProductRepo_ListFilters(t *testing.T) {
	db := openTestDB(t)
	repo := repos.NewProductRepo(db)
	ctx := context.Background()

	all, err := repo.List(ctx, repos.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	byCat, err := repo.List(ctx, repos.ProductFilter{CategoryID: "laptops"})
	require.NoError(t, err)
	assert.Len(t, byCat, 2)

	byBrand, err := repo.List(ctx, repos.ProductFilter{Q: "LOGI"})
	require.NoError(t, err)
	assert.Len(t, byBrand, 2)

	byArabic, err := repo.List(ctx, repos.ProductFilter{Q: "لوحة"})
	require.NoError(t, err)
	require.Len(t, byArabic, 1)
	assert.Equal(t, "acc-001", byArabic[0].ID)

	require.NoError(t, repo.SetActive(ctx, "acc-001", false))
	active, err := repo.List(ctx, repos.ProductFilter{Q: "keyboard"})
	require.NoError(t, err)
	assert.Empty(t, active)
	withInactive, err := repo.List(ctx, repos.ProductFilter{Q: "keyboard", IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, withInactive, 1)

	page, err := repo.List(ctx, repos.ProductFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestProductRepo_CRUD(t *testing.T) {
	db := openTestDB(t)
	repo := repos.NewProductRepo(db)
	ctx := context.Background()

	p := &domain.Product{ID: "new-1", CategoryID: "components", NameEN: "GPU", NameAR: "بطاقة", Price: decimal.RequireFromString("499.99"), Stock: 2, Active: true}
	require.NoError(t, repo.Create(ctx, p))

	list, err := repo.List(ctx, repos.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, "new-1", list[0].ID, "newest first")

	p.Price = decimal.RequireFromString("450")
	require.NoError(t, repo.Update(ctx, p))
	got, err := repo.Get(ctx, "new-1")
	require.NoError(t, err)
	assert.Equal(t, "450", got.Price.String())

	imgs, err := repo.AppendImage(ctx, "new-1", "https://cdn.test/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/a.jpg"}, imgs)

	require.NoError(t, repo.Delete(ctx, "new-1"))
	_, err = repo.Get(ctx, "new-1")
	assert.ErrorIs(t, err, repos.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "new-1"), repos.ErrNotFound)
}

func TestCategoryRepo_DeleteRefusedWhileReferenced(t *testing.T) {
	db := openTestDB(t)
	repo := repos.NewCategoryRepo(db)
	ctx := context.Background()

	assert.Error(t, repo.Delete(ctx, "laptops"))

	require.NoError(t, repo.Create(ctx, &domain.Category{ID: "empty", NameEN: "Empty", Slug: "empty"}))
	require.NoError(t, repo.Delete(ctx, "empty"))
	_, err := repo.Get(ctx, "empty")
	assert.ErrorIs(t, err, repos.ErrNotFound)
}

func TestStockRepo(t *testing.T) {
	db := openTestDB(t)
	repo := repos.NewStockRepo(db)
	ctx := context.Background()

	qty, err := repo.Qty(ctx, "lap-001")
	require.NoError(t, err)
	assert.Equal(t, 5, qty)

	require.NoError(t, repo.Set(ctx, "lap-001", 9))
	qty, _ = repo.Qty(ctx, "lap-001")
	assert.Equal(t, 9, qty)

	_, err = repo.Qty(ctx, "nope")
	assert.ErrorIs(t, err, repos.ErrNotFound)

	rows, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-002", rows[0].ProductID)
}

func TestReservationRepo_ListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := repos.NewReservationRepo(db)
	ctx := context.Background()

	for _, id := range []string{"r1", "r2", "r3"} {
		res := &domain.Reservation{
			ID: id, ReferenceNumber: "RSV-20260101-" + id, CustomerName: "Sara", CustomerPhone: "+966500000001",
			PickupBranch: "Riyadh Main", ProposedDate: "2026-12-01", ProposedTime: "10:30",
			Items:       []domain.CartLine{{Product: domain.ProductRef{ID: "lap-001", Price: decimal.NewFromInt(1999)}, Quantity: 1}},
			TotalAmount: decimal.NewFromInt(1999),
		}
		require.NoError(t, repo.Create(ctx, res))
		assert.Equal(t, domain.StatusPending, res.Status)
	}
	require.NoError(t, repo.UpdateStatus(ctx, "r2", domain.StatusConfirmed))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", domain.StatusConfirmed), repos.ErrNotFound)

	list, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"r3", "r2", "r1"}, []string{list[0].ID, list[1].ID, list[2].ID})

	confirmed, err := repo.List(ctx, domain.StatusConfirmed, 0)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "r2", confirmed[0].ID)

	got, err := repo.ByReference(ctx, "RSV-20260101-r1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "1999", got.TotalAmount.String())
}

func TestSettingsRepo_LatestWins(t *testing.T) {
	db := openTestDB(t)
	repo := repos.NewSettingsRepo(db)
	ctx := context.Background()

	s, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Riyadh Main", "Jeddah Mall"}, s.Branches)

	s.StoreNameEN = "Tech Store Plus"
	s.Branches = []string{"Dammam"}
	require.NoError(t, repo.Update(ctx, &s))
	got, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tech Store Plus", got.StoreNameEN)
	assert.Equal(t, []string{"Dammam"}, got.Branches)

	_, err = db.Exec(`DELETE FROM settings`)
	require.NoError(t, err)
	_, err = repo.Latest(ctx)
	assert.ErrorIs(t, err, repos.ErrNotFound)
}

func TestUserRepo_Sessions(t *testing.T) {
	db := openTestDB(t)
	repo := repos.NewUserRepo(db)
	ctx := context.Background()

	u := &domain.User{ID: "u1", Email: "Staff@Shop.test", Name: "Staff", Hash: "x", Role: domain.RoleAdmin}
	require.NoError(t, repo.Create(ctx, u))
	got, err := repo.ByEmail(ctx, "staff@shop.test")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	require.NoError(t, repo.BindSession(ctx, "sid-1", "u1"))
	su, err := repo.SessionUser(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, su.Role)

	require.NoError(t, repo.UnbindSession(ctx, "sid-1"))
	_, err = repo.SessionUser(ctx, "sid-1")
	assert.ErrorIs(t, err, repos.ErrNotFound)

	require.NoError(t, repo.BindSession(ctx, "sid-2", "u1"))
	require.NoError(t, repo.Delete(ctx, "u1"))
	_, err = repo.SessionUser(ctx, "sid-2")
	assert.ErrorIs(t, err, repos.ErrNotFound)
}

func TestSnapshotRepo_VersionGuard(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, tier := range []*repos.SnapshotRepo{repos.NewSnapshotRepo(db), repos.NewSnapshotBackupRepo(db)} {
		t.Run(tier.Name(), func(t *testing.T) {
			_, err := tier.Load(ctx, "sid")
			assert.ErrorIs(t, err, cart.ErrMiss)

			require.NoError(t, tier.Save(ctx, "sid", 5, []byte(`{"version":5}`)))
			require.NoError(t, tier.Save(ctx, "sid", 3, []byte(`{"version":3}`)))
			got, err := tier.Load(ctx, "sid")
			require.NoError(t, err)
			assert.JSONEq(t, `{"version":5}`, string(got))

			require.NoError(t, tier.Save(ctx, "sid", 6, []byte(`{"version":6}`)))
			got, _ = tier.Load(ctx, "sid")
			assert.JSONEq(t, `{"version":6}`, string(got))

			require.NoError(t, tier.Delete(ctx, "sid"))
			_, err = tier.Load(ctx, "sid")
			assert.ErrorIs(t, err, cart.ErrMiss)
		})
	}
}

func TestSnapshotRepo_BackupFallbackThroughRegistry(t *testing.T) {
	db := openTestDB(t)
	durable := repos.NewSnapshotRepo(db)
	backup := repos.NewSnapshotBackupRepo(db)
	ctx := context.Background()

	require.NoError(t, backup.Save(ctx, "sid", 2, []byte(`{"version":2,"items":[{"product":{"id":"lap-001","price":"1999","stock":5},"quantity":1}]}`)))
	_, err := db.Exec(`INSERT INTO cart_snapshots(session_id,version,payload,updated_at) VALUES ('sid',9,'corrupt','x')`)
	require.NoError(t, err)

	r := cart.NewRegistry(cart.Tiers{Durable: durable, Backup: backup}, cart.RegistryOptions{})
	defer r.Close(ctx)
	s, err := r.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, 1, s.ItemCount())
	assert.Equal(t, "1999", s.TotalAmount().String())
}
