package mixtape

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewStore(mock), mock
}

func TestLoadForReadNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery("FROM mixtapes").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.loadForRead(context.Background(), mock, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadForReadScansTracksInPositionOrder(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery("FROM mixtapes").
		WithArgs("pid-1").
		WillReturnRows(headRow(nil, 2, intPtr(1), nil))
	mock.ExpectQuery("FROM mixtape_tracks").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(trackCols).
			AddRow(1, strPtr("opener"), "spotify:track:track1").
			AddRow(2, (*string)(nil), "spotify:track:track2"))

	m, err := store.loadForRead(context.Background(), mock, "pid-1")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Version)
	require.Len(t, m.Tracks, 2)
	assert.Equal(t, "opener", *m.Tracks[0].Text)
	assert.Equal(t, 2, m.Tracks[1].Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSnapshotByVersionNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery("FROM mixtape_snapshots").
		WithArgs(int64(7), 9).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.loadSnapshotByVersion(context.Background(), mock, 7, 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUserWithoutSearch(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM mixtapes").
		WithArgs("user-1", 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"public_id", "name", "last_modified_time"}).
			AddRow("pid-2", "Newer Mix", now).
			AddRow("pid-1", "Older Mix", now.Add(-time.Hour)))

	out, err := store.listForUser(context.Background(), mock, "user-1", "", 20, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "pid-2", out[0].PublicID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUserWithSearch(t *testing.T) {
	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery("ILIKE").
		WithArgs("user-1", "road", 10, 5).
		WillReturnRows(pgxmock.NewRows([]string{"public_id", "name", "last_modified_time"}))

	out, err := store.listForUser(context.Background(), mock, "user-1", "road", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("unique")))
	assert.False(t, isUniqueViolation(nil))
}
