package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManager_WithinTx(t *testing.T) {
	t.Run("Commit on success", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tm := NewTxManager(sqlDB)
		err = tm.WithinTx(context.Background(), func(ctx context.Context) error {
			assert.True(t, InTx(ctx))
			_, err := Conn(ctx, sqlDB).ExecContext(ctx, "UPDATE orders SET status = 'PAID'")
			return err
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback on error", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		tm := NewTxManager(sqlDB)
		err = tm.WithinTx(context.Background(), func(ctx context.Context) error {
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Begin failure", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		mock.ExpectBegin().WillReturnError(errors.New("no conn"))

		called := false
		tm := NewTxManager(sqlDB)
		err = tm.WithinTx(context.Background(), func(ctx context.Context) error {
			called = true
			return nil
		})

		assert.EqualError(t, err, "no conn")
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nested calls join the outer transaction", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		tm := NewTxManager(sqlDB)
		err = tm.WithinTx(context.Background(), func(ctx context.Context) error {
			return tm.WithinTx(ctx, func(inner context.Context) error {
				assert.True(t, InTx(inner))
				return nil
			})
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConn_WithoutTx(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.False(t, InTx(context.Background()))
	assert.Equal(t, sqlDB, Conn(context.Background(), sqlDB))
}

func TestMigrationFiles(t *testing.T) {
	names, err := MigrationFiles()

	assert.NoError(t, err)
	assert.Contains(t, names, "000001_init_checkout.up.sql")
	assert.Contains(t, names, "000001_init_checkout.down.sql")
}
