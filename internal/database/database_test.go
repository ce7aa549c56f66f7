package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mauv0809/prizeplay/internal/database/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"), "", "")
	require.NoError(t, err, "InitDB should not return an error")
	defer db.Close()

	for _, table := range []string{"users", "tournaments", "tournament_participants", "transactions"} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %q should exist", table)
		assert.Equal(t, table, name)
	}

	require.NoError(t, migrations.Run(db), "running migrations again should be a no-op")
}

func TestTransactionReferenceIsUnique(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"), "", "")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO users (id, name, balance, created_at, updated_at) VALUES ('u1', 'Alice', '0', 0, 0)`)
	require.NoError(t, err)

	insert := `INSERT INTO transactions (id, user_id, type, amount, reference, created_at) VALUES (?, 'u1', 'prize', '1', 'ref-1', 0)`
	_, err = db.Exec(insert, "t1")
	require.NoError(t, err)
	_, err = db.Exec(insert, "t2")
	assert.Error(t, err)
}

func TestWithTx(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"), "", "")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	boom := errors.New("boom")
	err = WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id, name, balance, created_at, updated_at) VALUES ('u1', 'Alice', '0', 0, 0)`)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 0, count, "failed unit of work must roll back")

	err = WithTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id, name, balance, created_at, updated_at) VALUES ('u1', 'Alice', '0', 0, 0)`)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 1, count)
}
