package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	kv "github.com/fxpocket/fxpocket/pkg/store"
)

func newGormTestStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewGormStore(db, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func TestGormStore_GetValue(t *testing.T) {
	s, mock := newGormTestStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM "kv_entries" WHERE key = (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).
			AddRow(kv.KeyLocale, "de", time.Now()))

	v, ok, err := s.GetValue(context.Background(), kv.KeyLocale)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "de", v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetValue_Miss(t *testing.T) {
	s, mock := newGormTestStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM "kv_entries" WHERE key = (.+)`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, ok, err := s.GetValue(context.Background(), "pref_missing")
	require.NoError(t, err, "record-not-found is a miss, not an error")
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SetValue_Upsert(t *testing.T) {
	s, mock := newGormTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "kv_entries" (.+) ON CONFLICT (.+) DO UPDATE (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.SetValue(context.Background(), kv.KeyTheme, "dark")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SaveRate_WritesRateAndTimestamp(t *testing.T) {
	s, mock := newGormTestStore(t)

	// One upsert for the rate, one for its write-time bookkeeping.
	for range 2 {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "kv_entries" (.+) ON CONFLICT (.+) DO UPDATE (.+)`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	err := s.SaveRate(context.Background(), sampleRate())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_GetRate_CorruptValueIsMiss(t *testing.T) {
	s, mock := newGormTestStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM "kv_entries" WHERE key = (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).
			AddRow(kv.RateKey("USD", "EUR"), "{corrupt", time.Now()))

	rate, err := s.GetRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Nil(t, rate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ClearRates_PrefixDelete(t *testing.T) {
	s, mock := newGormTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "kv_entries" WHERE key LIKE (.+)`).
		WithArgs(kv.RatePrefix + "%").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, s.ClearRates(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_ClearAll(t *testing.T) {
	s, mock := newGormTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "kv_entries"`).
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectCommit()

	require.NoError(t, s.ClearAll(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
