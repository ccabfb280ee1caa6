package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestOpenPoolClosesHandleWhenMigrationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.db")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	// A read-only database connects but rejects CREATE TABLE.
	pool, err := sql.Open(sqlite.DriverName, "file:"+path+"?mode=ro")
	require.NoError(t, err)

	db, err := openPool(pool)
	require.Error(t, err)
	assert.Nil(t, db)
	assert.ErrorContains(t, err, "migrate")
	assert.EqualError(t, pool.Ping(), "sql: database is closed")
}

func TestOpenPoolClosesHandleWhenConnectFails(t *testing.T) {
	pool, err := sql.Open(sqlite.DriverName, filepath.Join(t.TempDir(), "missing", "crm.db"))
	require.NoError(t, err)

	_, err = openPool(pool)
	require.Error(t, err)
	assert.EqualError(t, pool.Ping(), "sql: database is closed")
}

func TestOpenMigratesInMemoryDatabase(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.True(t, db.Migrator().HasTable(&orderItemModel{}))
}
