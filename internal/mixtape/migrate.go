package mixtape

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func AutoMigrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS mixtapes (
          id                   BIGSERIAL PRIMARY KEY,
          public_id            TEXT NOT NULL UNIQUE,
          owner_id             TEXT,
          name                 TEXT NOT NULL,
          intro_text           TEXT,
          subtitle1            TEXT,
          subtitle2            TEXT,
          subtitle3            TEXT,
          is_public            BOOLEAN NOT NULL DEFAULT FALSE,
          spotify_playlist_uri TEXT,
          version              INT NOT NULL DEFAULT 1,
          undo_to_version      INT,
          redo_to_version      INT,
          create_time          TIMESTAMPTZ NOT NULL DEFAULT now(),
          last_modified_time   TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		log.Printf("mixtape-service: migrate mixtapes: %v", err)
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_mixtapes_owner_last_modified
      ON mixtapes(owner_id, last_modified_time)
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS mixtape_tracks (
          id          BIGSERIAL PRIMARY KEY,
          mixtape_id  BIGINT NOT NULL REFERENCES mixtapes(id) ON DELETE CASCADE,
          position    INT NOT NULL,
          track_text  TEXT,
          spotify_uri TEXT NOT NULL
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE UNIQUE INDEX IF NOT EXISTS idx_mixtape_tracks_position
      ON mixtape_tracks(mixtape_id, position)
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS mixtape_snapshots (
          id                   BIGSERIAL PRIMARY KEY,
          mixtape_id           BIGINT NOT NULL REFERENCES mixtapes(id) ON DELETE CASCADE,
          public_id            TEXT NOT NULL,
          owner_id             TEXT,
          name                 TEXT NOT NULL,
          intro_text           TEXT,
          subtitle1            TEXT,
          subtitle2            TEXT,
          subtitle3            TEXT,
          is_public            BOOLEAN NOT NULL DEFAULT FALSE,
          spotify_playlist_uri TEXT,
          version              INT NOT NULL,
          undo_to_version      INT,
          redo_to_version      INT,
          create_time          TIMESTAMPTZ NOT NULL,
          last_modified_time   TIMESTAMPTZ NOT NULL
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE UNIQUE INDEX IF NOT EXISTS idx_mixtape_snapshots_version
      ON mixtape_snapshots(mixtape_id, version)
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS mixtape_snapshot_tracks (
          id          BIGSERIAL PRIMARY KEY,
          snapshot_id BIGINT NOT NULL REFERENCES mixtape_snapshots(id) ON DELETE CASCADE,
          position    INT NOT NULL,
          track_text  TEXT,
          spotify_uri TEXT NOT NULL
      )
    `); err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
      CREATE UNIQUE INDEX IF NOT EXISTS idx_mixtape_snapshot_tracks_position
      ON mixtape_snapshot_tracks(snapshot_id, position)
    `); err != nil {
		return err
	}

	return nil
}
