package mongostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"techstore/internal/cart"
)

func setupTestDB(t *testing.T) *BackupTier {
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)
	db, err := ConnectMongoDB(ctx, uri, "techstore_test")
	require.NoError(t, err)
	return NewBackupTier(db)
}

func TestBackupTier_RoundTripAndVersionGuard(t *testing.T) {
	tier := setupTestDB(t)
	ctx := context.Background()

	_, err := tier.Load(ctx, "sid")
	assert.ErrorIs(t, err, cart.ErrMiss)

	require.NoError(t, tier.Save(ctx, "sid", 4, []byte(`{"version":4}`)))
	require.NoError(t, tier.Save(ctx, "sid", 2, []byte(`{"version":2}`)))
	got, err := tier.Load(ctx, "sid")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":4}`, string(got))

	require.NoError(t, tier.Save(ctx, "sid", 7, []byte(`{"version":7}`)))
	got, err = tier.Load(ctx, "sid")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":7}`, string(got))

	require.NoError(t, tier.Delete(ctx, "sid"))
	_, err = tier.Load(ctx, "sid")
	assert.ErrorIs(t, err, cart.ErrMiss)
}
