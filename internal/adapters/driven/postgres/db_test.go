package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to DOCSPACE_TEST_DATABASE_URL or skips the test
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("DOCSPACE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("DOCSPACE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, DefaultConfig(url))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema(ctx))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// testSpace inserts a space with a unique slug so tests can share a database
func testSpace(t *testing.T, db *DB) *domain.Space {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.NewString()
	space := &domain.Space{ID: id, Name: "Test " + id, Slug: "test-" + id[:8], CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewSpaceStore(db).Create(context.Background(), space))
	return space
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("postgres://localhost/docspace")
	require.Equal(t, "postgres://localhost/docspace", cfg.URL)
	require.Equal(t, 25, cfg.MaxOpenConns)
	require.Equal(t, 5, cfg.MaxIdleConns)
	require.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
}

func TestNullStringRoundTrip(t *testing.T) {
	require.False(t, NullString(nil).Valid)
	require.Nil(t, StringPtr(NullString(nil)))

	v := "parent"
	require.Equal(t, "parent", *StringPtr(NullString(&v)))
}

func TestLockKeyIsStable(t *testing.T) {
	require.Equal(t, lockKey("tree:s1"), lockKey("tree:s1"))
	require.NotEqual(t, lockKey("tree:s1"), lockKey("tree:s2"))
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InitSchema(context.Background()))
}
