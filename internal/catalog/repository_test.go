package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_FindItem(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := NewRepository(sqlDB)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, price, kind FROM items WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "kind"}).
				AddRow(1, "Linen Shirt", 39000, "CLOTHES"))

		item, err := repo.FindItem(context.Background(), 1)
		assert.NoError(t, err)
		assert.Equal(t, "Linen Shirt", item.Name)
		assert.Equal(t, int64(39000), item.Price)
		assert.True(t, item.Sized())
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, price, kind FROM items").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "kind"}))

		item, err := repo.FindItem(context.Background(), 2)
		assert.ErrorIs(t, err, ErrItemNotFound)
		assert.Nil(t, item)
	})

	t.Run("DB error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, name, price, kind FROM items").
			WillReturnError(errors.New("db down"))

		_, err := repo.FindItem(context.Background(), 3)
		assert.EqualError(t, err, "db down")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindItems(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := NewRepository(sqlDB)

	t.Run("Empty input skips the query", func(t *testing.T) {
		items, err := repo.FindItems(context.Background(), nil)
		assert.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("WHERE id = ANY\\(\\$1\\)").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "kind"}).
				AddRow(1, "Linen Shirt", 39000, "CLOTHES").
				AddRow(2, "Silver Ring", 15000, "ACCESSORY"))

		items, err := repo.FindItems(context.Background(), []int64{1, 2, 3})
		assert.NoError(t, err)
		assert.Len(t, items, 2)
		assert.False(t, items[2].Sized())
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindSizedVariant(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	repo := NewRepository(sqlDB)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("FROM item_sizes WHERE item_id = \\$1 AND size_label = \\$2").
			WithArgs(int64(1), "M").
			WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "size_label"}).
				AddRow(10, 1, "M"))

		v, err := repo.FindSizedVariant(context.Background(), 1, "M")
		assert.NoError(t, err)
		assert.Equal(t, "M", v.SizeLabel)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("FROM item_sizes").
			WithArgs(int64(1), "XXL").
			WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "size_label"}))

		_, err := repo.FindSizedVariant(context.Background(), 1, "XXL")
		assert.ErrorIs(t, err, ErrSizeNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
