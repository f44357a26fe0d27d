package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSetUpsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "kv_entries")
	require.NoError(t, err)

	value := []byte(`{"next_page":25,"slugs":["a-b"]}`)
	mock.ExpectExec("INSERT INTO kv_entries").
		WithArgs("tlobf_cache", value).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Set(context.Background(), "tlobf_cache", value))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetReturnsValue(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT value FROM kv_entries").
		WithArgs("tlobf_cache").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`{"next_page":3}`)))

	got, ok, err := store.Get(context.Background(), "tlobf_cache")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"next_page":3}`, string(got))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetMiss(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT value FROM kv_entries").
		WithArgs("absent").
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT value FROM kv_entries").
		WithArgs("k").
		WillReturnError(errors.New("connection lost"))

	_, _, err = store.Get(context.Background(), "k")
	assert.ErrorContains(t, err, "connection lost")
}

func TestEnsureTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "review_cache")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS review_cache").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, store.EnsureTable(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{})
	assert.Error(t, err)

	_, err = NewWithPool(nil, "")
	assert.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewWithPool(mock, "bad;name")
	assert.Error(t, err)
}
