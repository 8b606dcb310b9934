package mixtape

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixtape-service/internal/provider"
)

func newMockServer(t *testing.T) (*Server, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewServer(mock, provider.NewMockClient(), nil), mock
}

func doRequest(s *Server, method, path, userID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandleSearchTracks(t *testing.T) {
	s, mock := newMockServer(t)
	defer mock.Close()

	w := doRequest(s, "GET", "/tracks/search?query=song", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var results []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Len(t, results, 2)

	w = doRequest(s, "GET", "/tracks/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCreateMixtapeAnonymousMustBePublic(t *testing.T) {
	s, mock := newMockServer(t)
	defer mock.Close()

	w := doRequest(s, "POST", "/mixtapes", "", mixtapeRequest{
		Name:     "Secret Mix",
		IsPublic: false,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCreateMixtapeUnknownTrack(t *testing.T) {
	s, mock := newMockServer(t)
	defer mock.Close()

	w := doRequest(s, "POST", "/mixtapes", "user-1", mixtapeRequest{
		Name:     "Mix",
		IsPublic: true,
		Tracks: []trackRequest{
			{Position: 1, SpotifyURI: "spotify:track:nope"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "spotify:track:nope")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCreateMixtapeSuccess(t *testing.T) {
	s, mock := newMockServer(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO mixtapes").
		WithArgs(anyArgs(14)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("DELETE FROM mixtape_tracks").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO mixtape_tracks").
		WithArgs(anyArgs(4)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("INSERT INTO mixtape_snapshots").
		WithArgs(anyArgs(15)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(41)))
	mock.ExpectExec("INSERT INTO mixtape_snapshot_tracks").
		WithArgs(anyArgs(4)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	w := doRequest(s, "POST", "/mixtapes", "user-1", mixtapeRequest{
		Name:     "Mix",
		IsPublic: true,
		Tracks: []trackRequest{
			{Position: 1, Text: strPtr("First"), SpotifyURI: "spotify:track:track1"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["publicId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleGetMixtapePrivateRequiresOwner(t *testing.T) {
	s, mock := newMockServer(t)
	defer mock.Close()

	owner := "user-1"
	now := time.Now().UTC()
	private := pgxmock.NewRows(mixtapeCols).AddRow(
		int64(7), "pid-1", &owner, "Private Mix", (*string)(nil),
		(*string)(nil), (*string)(nil), (*string)(nil), false, (*string)(nil),
		1, (*int)(nil), (*int)(nil), now, now,
	)
	mock.ExpectQuery("FROM mixtapes").
		WithArgs("pid-1").
		WillReturnRows(private)
	mock.ExpectQuery("FROM mixtape_tracks").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(trackCols))

	w := doRequest(s, "GET", "/mixtapes/pid-1", "someone-else", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleGetMixtapeIncludesUndoRedoFlags(t *testing.T) {
	s, mock := newMockServer(t)
	defer mock.Close()

	mock.ExpectQuery("FROM mixtapes").
		WithArgs("pid-1").
		WillReturnRows(headRow(nil, 3, nil, intPtr(2)))
	mock.ExpectQuery("FROM mixtape_tracks").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(trackCols).
			AddRow(1, (*string)(nil), "spotify:track:track1"))

	w := doRequest(s, "GET", "/mixtapes/pid-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp mixtapeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Version)
	assert.False(t, resp.CanUndo)
	assert.True(t, resp.CanRedo)
	require.Len(t, resp.Tracks, 1)
	require.NotNil(t, resp.Tracks[0].Track)
	assert.Equal(t, "Mock Song One", resp.Tracks[0].Track.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleGetMixtapeNotFound(t *testing.T) {
	s, mock := newMockServer(t)
	defer mock.Close()

	mock.ExpectQuery("FROM mixtapes").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows(mixtapeCols))

	w := doRequest(s, "GET", "/mixtapes/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleUpdateMixtapeOwnedByAnotherUser(t *testing.T) {
	s, mock := newMockServer(t)
	defer mock.Close()

	owner := "user-1"
	mock.ExpectQuery("FROM mixtapes").
		WithArgs("pid-1").
		WillReturnRows(headRowOwned(&owner))
	mock.ExpectQuery("FROM mixtape_tracks").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(trackCols))

	w := doRequest(s, "PUT", "/mixtapes/pid-1", "user-2", mixtapeRequest{
		Name:     "Hijack",
		IsPublic: true,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleClaimRequiresAuth(t *testing.T) {
	s, mock := newMockServer(t)
	defer mock.Close()

	w := doRequest(s, "POST", "/mixtapes/pid-1/claim", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleListRequiresAuth(t *testing.T) {
	s, mock := newMockServer(t)
	defer mock.Close()

	w := doRequest(s, "GET", "/mixtapes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleUndoNothingToUndo(t *testing.T) {
	s, mock := newMockServer(t)
	defer mock.Close()

	// Permission pre-check read, then the locked attempt.
	mock.ExpectQuery("FROM mixtapes").
		WithArgs("pid-1").
		WillReturnRows(headRow(nil, 1, nil, nil))
	mock.ExpectQuery("FROM mixtape_tracks").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(trackCols))
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("pid-1").
		WillReturnRows(headRow(nil, 1, nil, nil))
	mock.ExpectQuery("FROM mixtape_tracks").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(trackCols))
	mock.ExpectRollback()

	w := doRequest(s, "POST", "/mixtapes/pid-1/undo", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "nothing to undo")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func headRowOwned(owner *string) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows(mixtapeCols).AddRow(
		int64(7), "pid-1", owner, "My Mix", (*string)(nil),
		(*string)(nil), (*string)(nil), (*string)(nil), true, (*string)(nil),
		2, intPtr(1), (*int)(nil), now, now,
	)
}
