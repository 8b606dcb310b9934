package mixtape

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store needs. It allows injecting a
// pgxmock pool in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier is the read/write surface shared by DB and pgx.Tx, so store methods
// can run either inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store owns the mixtape, track, snapshot and snapshot-track tables.
type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

const mixtapeColumns = `id, public_id, owner_id, name, intro_text,
          subtitle1, subtitle2, subtitle3, is_public, spotify_playlist_uri,
          version, undo_to_version, redo_to_version, create_time, last_modified_time`

func scanMixtape(row pgx.Row) (*Mixtape, error) {
	var m Mixtape
	err := row.Scan(
		&m.ID,
		&m.PublicID,
		&m.OwnerID,
		&m.Name,
		&m.IntroText,
		&m.Subtitle1,
		&m.Subtitle2,
		&m.Subtitle3,
		&m.IsPublic,
		&m.SpotifyPlaylistURI,
		&m.Version,
		&m.UndoToVersion,
		&m.RedoToVersion,
		&m.CreateTime,
		&m.LastModifiedTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// loadForRead fetches a mixtape and its tracks without taking any lock.
func (s *Store) loadForRead(ctx context.Context, q querier, publicID string) (*Mixtape, error) {
	m, err := scanMixtape(q.QueryRow(ctx, `
      SELECT `+mixtapeColumns+`
      FROM mixtapes
      WHERE public_id = $1
    `, publicID))
	if err != nil {
		return nil, err
	}
	m.Tracks, err = s.loadTracks(ctx, q, m.ID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// loadForUpdate locks the mixtape row for the rest of the caller's
// transaction. Concurrent mutations on the same public_id block here until
// the holder commits or rolls back. This is the only entry point the
// version-chain operations use.
func (s *Store) loadForUpdate(ctx context.Context, tx pgx.Tx, publicID string) (*Mixtape, error) {
	m, err := scanMixtape(tx.QueryRow(ctx, `
      SELECT `+mixtapeColumns+`
      FROM mixtapes
      WHERE public_id = $1
      FOR UPDATE
    `, publicID))
	if err != nil {
		return nil, err
	}
	m.Tracks, err = s.loadTracks(ctx, tx, m.ID)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) loadTracks(ctx context.Context, q querier, mixtapeID int64) ([]Track, error) {
	rows, err := q.Query(ctx, `
      SELECT position, track_text, spotify_uri
      FROM mixtape_tracks
      WHERE mixtape_id = $1
      ORDER BY position ASC
    `, mixtapeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []Track{}
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.Position, &t.Text, &t.SpotifyURI); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// insertMixtape persists a brand-new head row at version 1 and fills in the
// generated surrogate id. A public_id collision surfaces as ErrConflict.
func (s *Store) insertMixtape(ctx context.Context, tx pgx.Tx, m *Mixtape) error {
	err := tx.QueryRow(ctx, `
      INSERT INTO mixtapes (
          public_id, owner_id, name, intro_text,
          subtitle1, subtitle2, subtitle3, is_public, spotify_playlist_uri,
          version, undo_to_version, redo_to_version,
          create_time, last_modified_time
      )
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
      RETURNING id
    `,
		m.PublicID,
		m.OwnerID,
		m.Name,
		m.IntroText,
		m.Subtitle1,
		m.Subtitle2,
		m.Subtitle3,
		m.IsPublic,
		m.SpotifyPlaylistURI,
		m.Version,
		m.UndoToVersion,
		m.RedoToVersion,
		m.CreateTime,
		m.LastModifiedTime,
	).Scan(&m.ID)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// updateMixtape writes the head row's new state. The caller must hold the
// row lock from loadForUpdate.
func (s *Store) updateMixtape(ctx context.Context, tx pgx.Tx, m *Mixtape) error {
	_, err := tx.Exec(ctx, `
      UPDATE mixtapes
      SET owner_id = $2,
          name = $3,
          intro_text = $4,
          subtitle1 = $5,
          subtitle2 = $6,
          subtitle3 = $7,
          is_public = $8,
          spotify_playlist_uri = $9,
          version = $10,
          undo_to_version = $11,
          redo_to_version = $12,
          last_modified_time = $13
      WHERE id = $1
    `,
		m.ID,
		m.OwnerID,
		m.Name,
		m.IntroText,
		m.Subtitle1,
		m.Subtitle2,
		m.Subtitle3,
		m.IsPublic,
		m.SpotifyPlaylistURI,
		m.Version,
		m.UndoToVersion,
		m.RedoToVersion,
		m.LastModifiedTime,
	)
	return err
}

// replaceTracks swaps out the mixtape's whole live track list.
func (s *Store) replaceTracks(ctx context.Context, tx pgx.Tx, mixtapeID int64, tracks []Track) error {
	if _, err := tx.Exec(ctx, `
      DELETE FROM mixtape_tracks WHERE mixtape_id = $1
    `, mixtapeID); err != nil {
		return err
	}
	for _, t := range tracks {
		if _, err := tx.Exec(ctx, `
          INSERT INTO mixtape_tracks (mixtape_id, position, track_text, spotify_uri)
          VALUES ($1, $2, $3, $4)
        `, mixtapeID, t.Position, t.Text, t.SpotifyURI); err != nil {
			return err
		}
	}
	return nil
}

// insertSnapshot appends the immutable record for one committed version,
// along with its frozen track copies.
func (s *Store) insertSnapshot(ctx context.Context, tx pgx.Tx, snap *Snapshot) error {
	err := tx.QueryRow(ctx, `
      INSERT INTO mixtape_snapshots (
          mixtape_id, public_id, owner_id, name, intro_text,
          subtitle1, subtitle2, subtitle3, is_public, spotify_playlist_uri,
          version, undo_to_version, redo_to_version,
          create_time, last_modified_time
      )
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
      RETURNING id
    `,
		snap.MixtapeID,
		snap.PublicID,
		snap.OwnerID,
		snap.Name,
		snap.IntroText,
		snap.Subtitle1,
		snap.Subtitle2,
		snap.Subtitle3,
		snap.IsPublic,
		snap.SpotifyPlaylistURI,
		snap.Version,
		snap.UndoToVersion,
		snap.RedoToVersion,
		snap.CreateTime,
		snap.LastModifiedTime,
	).Scan(&snap.ID)
	if err != nil {
		return err
	}
	for _, t := range snap.Tracks {
		if _, err := tx.Exec(ctx, `
          INSERT INTO mixtape_snapshot_tracks (snapshot_id, position, track_text, spotify_uri)
          VALUES ($1, $2, $3, $4)
        `, snap.ID, t.Position, t.Text, t.SpotifyURI); err != nil {
			return err
		}
	}
	return nil
}

// loadSnapshotByVersion is a point lookup of one immutable snapshot plus its
// tracks. Snapshots never change after commit, so no lock is needed even
// while a mutation on the same mixtape is in flight.
func (s *Store) loadSnapshotByVersion(ctx context.Context, q querier, mixtapeID int64, version int) (*Snapshot, error) {
	var snap Snapshot
	err := q.QueryRow(ctx, `
      SELECT id, mixtape_id, public_id, owner_id, name, intro_text,
             subtitle1, subtitle2, subtitle3, is_public, spotify_playlist_uri,
             version, undo_to_version, redo_to_version, create_time, last_modified_time
      FROM mixtape_snapshots
      WHERE mixtape_id = $1 AND version = $2
    `, mixtapeID, version).Scan(
		&snap.ID,
		&snap.MixtapeID,
		&snap.PublicID,
		&snap.OwnerID,
		&snap.Name,
		&snap.IntroText,
		&snap.Subtitle1,
		&snap.Subtitle2,
		&snap.Subtitle3,
		&snap.IsPublic,
		&snap.SpotifyPlaylistURI,
		&snap.Version,
		&snap.UndoToVersion,
		&snap.RedoToVersion,
		&snap.CreateTime,
		&snap.LastModifiedTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
      SELECT position, track_text, spotify_uri
      FROM mixtape_snapshot_tracks
      WHERE snapshot_id = $1
      ORDER BY position ASC
    `, snap.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap.Tracks = []Track{}
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.Position, &t.Text, &t.SpotifyURI); err != nil {
			return nil, err
		}
		snap.Tracks = append(snap.Tracks, t)
	}
	return &snap, rows.Err()
}

// listForUser returns the caller's mixtapes ordered by recency, with optional
// case-insensitive name search and offset pagination.
func (s *Store) listForUser(ctx context.Context, q querier, ownerID, search string, limit, offset int) ([]Overview, error) {
	sql := `
      SELECT public_id, name, last_modified_time
      FROM mixtapes
      WHERE owner_id = $1`
	args := []any{ownerID}
	if search != "" {
		sql += `
        AND name ILIKE '%' || $2 || '%'`
		args = append(args, search)
	}
	sql += `
      ORDER BY last_modified_time DESC
      LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Overview{}
	for rows.Next() {
		var o Overview
		if err := rows.Scan(&o.PublicID, &o.Name, &o.LastModifiedTime); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
