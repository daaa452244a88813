package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tempDB opens a Database in a temporary directory.
func tempDB(t *testing.T) (*Database, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "library.db")
	db, err := NewDatabase(dbPath)
	require.NoError(t, err, "NewDatabase")
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

// testKVContract checks the behavior every KV backend shares.
func testKVContract(t *testing.T, kv KV) {
	t.Helper()

	_, found, err := kv.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set("k", "v1"))
	v, found, err := kv.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v1", v)

	require.NoError(t, kv.Set("k", "v2"))
	v, _, err = kv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	require.NoError(t, kv.Set("empty", ""))
	v, found, err = kv.Get("empty")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "", v)

	require.NoError(t, kv.Delete("k"))
	_, found, err = kv.Get("k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Delete("never-set"))
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	testKVContract(t, kv)
	assert.Equal(t, []string{"empty"}, kv.Keys())
}

func TestDatabaseKV(t *testing.T) {
	db, _ := tempDB(t)
	testKVContract(t, db)

	keys, err := db.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"empty"}, keys)
}

func TestDatabaseMigrationsAreIdempotent(t *testing.T) {
	db, dbPath := tempDB(t)
	require.NoError(t, db.Set(KeyBooks, "[]"))
	require.NoError(t, db.Close())

	reopened, err := NewDatabase(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	var version int
	require.NoError(t, reopened.db.QueryRow(`SELECT value FROM meta WHERE key='schema_version'`).Scan(&version))
	assert.Equal(t, schemaVersion, version)

	v, found, err := reopened.Get(KeyBooks)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", v)
}

func TestNewDatabaseCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "library.db")
	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
	assert.FileExists(t, dbPath)
}

func TestStoreOverDatabaseReloads(t *testing.T) {
	db, dbPath := tempDB(t)
	s, err := Open(db, WithIDFunc(seqIDs("id")), WithClock(fixedClock(testNow)))
	require.NoError(t, err)

	b := mustAddBook(t, s, "Persisted", 2)
	m := mustAddMember(t, s, "m1")
	r, err := s.AddRental(RentalFields{BookID: b.ID, MemberID: m.ID})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db2, err := NewDatabase(dbPath)
	require.NoError(t, err)
	defer db2.Close()
	reloaded, err := Open(db2)
	require.NoError(t, err)

	assert.Equal(t, s.Books(), reloaded.Books())
	assert.Equal(t, s.Members(), reloaded.Members())
	got, ok := reloaded.GetRentalByID(r.ID)
	require.True(t, ok)
	assert.Equal(t, r, got)
	assert.Equal(t, 1, available(t, reloaded, b.ID))
}

func TestOpenKV(t *testing.T) {
	kv, closeKV, err := OpenKV(ManagerConfig{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryKV{}, kv)
	assert.NoError(t, closeKV())

	kv, closeKV, err = OpenKV(ManagerConfig{DBPath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &Database{}, kv)
	assert.NoError(t, closeKV())

	_, _, err = OpenKV(ManagerConfig{Backend: BackendPostgres})
	assert.Error(t, err)

	_, _, err = OpenKV(ManagerConfig{Backend: "redis"})
	assert.ErrorContains(t, err, "unknown backend")
}
