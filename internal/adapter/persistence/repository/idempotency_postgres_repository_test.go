package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"payment_binder/internal/domain/entities"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostgresRepo(t *testing.T) (*IdempotencyPostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewIdempotencyPostgresRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func TestIdempotencyPostgresRepository_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newTestPostgresRepo(t)
		data, err := encodeRecord(successRecord("k1"))
		require.NoError(t, err)

		mock.ExpectQuery(selectIdempotencyRecordSQL).
			WithArgs("k1", fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"record"}).AddRow(data))

		got, found, err := repo.Get(context.Background(), "k1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "pi_123", got.Result.ProviderTransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing or expired", func(t *testing.T) {
		repo, mock := newTestPostgresRepo(t)
		mock.ExpectQuery(selectIdempotencyRecordSQL).
			WithArgs("k1", fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"record"}))

		_, found, err := repo.Get(context.Background(), "k1")
		require.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newTestPostgresRepo(t)
		dbErr := errors.New("connection reset")
		mock.ExpectQuery(selectIdempotencyRecordSQL).WillReturnError(dbErr)

		_, _, err := repo.Get(context.Background(), "k1")
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestIdempotencyPostgresRepository_Save(t *testing.T) {
	t.Run("inserted", func(t *testing.T) {
		repo, mock := newTestPostgresRepo(t)
		rec := successRecord("k1")

		mock.ExpectQuery(insertIdempotencyRecordSQL).
			WithArgs("k1", "stripe", "fp-k1", sqlmock.AnyArg(), fixedNow, fixedNow.Add(time.Hour), fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"record"}).AddRow([]byte(`{}`)))

		winner, err := repo.Save(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, rec.Fingerprint, winner.Fingerprint)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("live row wins", func(t *testing.T) {
		repo, mock := newTestPostgresRepo(t)
		existing, err := encodeRecord(failureRecord("k1"))
		require.NoError(t, err)

		mock.ExpectQuery(insertIdempotencyRecordSQL).
			WillReturnRows(sqlmock.NewRows([]string{"record"}))
		mock.ExpectQuery(selectIdempotencyRecordSQL).
			WithArgs("k1", fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"record"}).AddRow(existing))

		winner, err := repo.Save(context.Background(), successRecord("k1"))
		require.NoError(t, err)
		require.NotNil(t, winner.Failure)
		assert.Equal(t, entities.ErrorKindProviderRejected, winner.Failure.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert error", func(t *testing.T) {
		repo, mock := newTestPostgresRepo(t)
		dbErr := errors.New("disk full")
		mock.ExpectQuery(insertIdempotencyRecordSQL).WillReturnError(dbErr)

		_, err := repo.Save(context.Background(), successRecord("k1"))
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestIdempotencyPostgresRepository_Sweep(t *testing.T) {
	repo, mock := newTestPostgresRepo(t)
	mock.ExpectExec(deleteExpiredIdempotencyRecordsSQL).
		WithArgs(fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.Sweep(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyPostgresRepository_InitSchema(t *testing.T) {
	repo, mock := newTestPostgresRepo(t)
	mock.ExpectExec(IdempotencySchema).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
