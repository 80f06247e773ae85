package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// These tests exercise a real Postgres instance and are skipped unless
// TEST_DATABASE_URL is set, matching the original implementation's
// expectation of a live database for its storage layer.
func testPostgres(t *testing.T) (*Postgres, func()) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, dsn))

	pg, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	return pg, pg.Close
}

func TestKVSetGetDeleteRoundTrip(t *testing.T) {
	pg, cleanup := testPostgres(t)
	defer cleanup()
	ctx := context.Background()

	const namespaceID = "1"
	require.NoError(t, pg.KVClear(ctx, namespaceID))

	require.NoError(t, pg.KVSet(ctx, namespaceID, "greeting", []byte(`"hello"`)))

	value, ok, err := pg.KVGet(ctx, namespaceID, "greeting")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`"hello"`), value)

	require.NoError(t, pg.KVDelete(ctx, namespaceID, "greeting"))

	_, ok, err = pg.KVGet(ctx, namespaceID, "greeting")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVSetOverwritesExistingKey(t *testing.T) {
	pg, cleanup := testPostgres(t)
	defer cleanup()
	ctx := context.Background()

	const namespaceID = "1"
	require.NoError(t, pg.KVClear(ctx, namespaceID))
	require.NoError(t, pg.KVSet(ctx, namespaceID, "counter", []byte("1")))
	require.NoError(t, pg.KVSet(ctx, namespaceID, "counter", []byte("2")))

	value, ok, err := pg.KVGet(ctx, namespaceID, "counter")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("2"), value)
}

func TestKVAllAndClear(t *testing.T) {
	pg, cleanup := testPostgres(t)
	defer cleanup()
	ctx := context.Background()

	const namespaceID = "1"
	require.NoError(t, pg.KVClear(ctx, namespaceID))
	require.NoError(t, pg.KVSet(ctx, namespaceID, "a", []byte("1")))
	require.NoError(t, pg.KVSet(ctx, namespaceID, "b", []byte("2")))

	all, err := pg.KVAll(ctx, namespaceID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, pg.KVClear(ctx, namespaceID))
	all, err = pg.KVAll(ctx, namespaceID)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestGetTenantNotFound(t *testing.T) {
	pg, cleanup := testPostgres(t)
	defer cleanup()

	_, err := pg.GetTenant(context.Background(), "999999")
	require.ErrorIs(t, err, ErrNotFound)
}
