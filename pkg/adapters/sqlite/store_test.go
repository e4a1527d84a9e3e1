package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/fullform/pkg/adapters/sqlite"
	"github.com/aretw0/fullform/pkg/domain"
	"github.com/aretw0/fullform/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "fullform.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, openDB(t).Snapshots())
}

func TestSQLiteOptionsStore_Contract(t *testing.T) {
	ports.RunOptionsStoreContract(t, openDB(t).Options())
}

func TestSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fullform.db")
	ctx := context.Background()

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Snapshots().Save(ctx, "s1", domain.NewSnapshot(domain.Payload{SessionID: "s1", SeqID: 4}, nil)))
	require.NoError(t, db.Close())

	db, err = sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()

	snap, err := db.Snapshots().Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Payload.SeqID)
}

func TestSQLite_InMemory(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ids, err := db.Snapshots().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
