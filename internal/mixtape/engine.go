package mixtape

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Engine implements the version-chain algorithm on top of the Store. Every
// mutation runs in exactly one transaction, bumps the version by one, writes
// a snapshot of the resulting state, and rewires the undo/redo pointers.
//
// The transaction starts by locking the mixtape row (SELECT ... FOR UPDATE),
// so mutations on the same public id are serialized: versions are assigned
// in lock acquisition order and committed in the same order.
type Engine struct {
	store *Store

	// pauseBeforeCommit, when non-nil, blocks a mutation after all rows are
	// written but before commit, while the row lock is still held. Only
	// tests set it; production paths leave it nil.
	pauseBeforeCommit func()
}

func NewEngine(db DB) *Engine {
	return &Engine{store: NewStore(db)}
}

func (e *Engine) pause() {
	if e.pauseBeforeCommit != nil {
		e.pauseBeforeCommit()
	}
}

// Create persists a new mixtape at version 1 together with its tracks and the
// version-1 snapshot. publicID may be empty, in which case one is generated.
// ownerID is nil for anonymous mixtapes. Returns the public id.
func (e *Engine) Create(ctx context.Context, ownerID *string, publicID string, c Content) (string, error) {
	c = sanitizeContent(c)
	if err := validateContent(c); err != nil {
		return "", err
	}
	if publicID == "" {
		publicID = uuid.NewString()
	}

	now := time.Now().UTC()
	m := &Mixtape{
		PublicID:         publicID,
		OwnerID:          ownerID,
		Version:          1,
		CreateTime:       now,
		LastModifiedTime: now,
	}
	m.apply(c)

	tx, err := e.store.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if err := e.store.insertMixtape(ctx, tx, m); err != nil {
		return "", err
	}
	if err := e.store.replaceTracks(ctx, tx, m.ID, m.Tracks); err != nil {
		return "", err
	}
	if err := e.store.insertSnapshot(ctx, tx, snapshotOf(m)); err != nil {
		return "", err
	}

	e.pause()
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return publicID, nil
}

// Update replaces the mixtape's content, producing version N+1 with
// undo_to_version = N. Any pending redo chain is cut: redo_to_version
// becomes NULL, leaving the forward versions reachable only as snapshots.
func (e *Engine) Update(ctx context.Context, publicID string, c Content) (*Mixtape, error) {
	c = sanitizeContent(c)
	if err := validateContent(c); err != nil {
		return nil, err
	}
	return e.mutate(ctx, publicID, func(tx pgx.Tx, m *Mixtape) error {
		prev := m.Version
		m.apply(c)
		m.Version = prev + 1
		m.UndoToVersion = &prev
		m.RedoToVersion = nil
		return nil
	})
}

// Claim assigns an owner to an unowned mixtape. Content and tracks stay as
// they are; the claim itself is a versioned, undoable mutation.
func (e *Engine) Claim(ctx context.Context, publicID, ownerID string) (*Mixtape, error) {
	return e.mutate(ctx, publicID, func(tx pgx.Tx, m *Mixtape) error {
		if m.OwnerID != nil {
			return ErrAlreadyClaimed
		}
		prev := m.Version
		m.OwnerID = &ownerID
		m.Version = prev + 1
		m.UndoToVersion = &prev
		m.RedoToVersion = nil
		return nil
	})
}

// SetPlaylistURI records the exported playlist reference. It behaves like an
// edit that changes only that field.
func (e *Engine) SetPlaylistURI(ctx context.Context, publicID, playlistURI string) (*Mixtape, error) {
	return e.mutate(ctx, publicID, func(tx pgx.Tx, m *Mixtape) error {
		prev := m.Version
		m.SpotifyPlaylistURI = &playlistURI
		m.Version = prev + 1
		m.UndoToVersion = &prev
		m.RedoToVersion = nil
		return nil
	})
}

// Undo restores the content of the snapshot that undo_to_version points at.
// History is never rewritten: the restored content is committed as a new
// version whose redo pointer names the version we just stepped away from,
// and whose undo pointer is the target snapshot's own undo pointer.
func (e *Engine) Undo(ctx context.Context, publicID string) (*Mixtape, error) {
	return e.mutate(ctx, publicID, func(tx pgx.Tx, m *Mixtape) error {
		if m.UndoToVersion == nil {
			return ErrInvalidState
		}
		snap, err := e.store.loadSnapshotByVersion(ctx, tx, m.ID, *m.UndoToVersion)
		if err != nil {
			return fmt.Errorf("load undo target snapshot v%d: %w", *m.UndoToVersion, err)
		}
		prev := m.Version
		m.restore(snap)
		m.Version = prev + 1
		m.UndoToVersion = snap.UndoToVersion
		m.RedoToVersion = &prev
		return nil
	})
}

// Redo is the mirror of Undo: it restores the snapshot named by
// redo_to_version as a new version whose undo pointer is the version we were
// on, and whose redo pointer is the target snapshot's own redo pointer.
func (e *Engine) Redo(ctx context.Context, publicID string) (*Mixtape, error) {
	return e.mutate(ctx, publicID, func(tx pgx.Tx, m *Mixtape) error {
		if m.RedoToVersion == nil {
			return ErrInvalidState
		}
		snap, err := e.store.loadSnapshotByVersion(ctx, tx, m.ID, *m.RedoToVersion)
		if err != nil {
			return fmt.Errorf("load redo target snapshot v%d: %w", *m.RedoToVersion, err)
		}
		prev := m.Version
		m.restore(snap)
		m.Version = prev + 1
		m.UndoToVersion = &prev
		m.RedoToVersion = snap.RedoToVersion
		return nil
	})
}

// Get loads the current state of a mixtape without locking it.
func (e *Engine) Get(ctx context.Context, publicID string) (*Mixtape, error) {
	return e.store.loadForRead(ctx, e.store.db, publicID)
}

// ListForUser lists a user's mixtapes, newest first.
func (e *Engine) ListForUser(ctx context.Context, ownerID, search string, limit, offset int) ([]Overview, error) {
	return e.store.listForUser(ctx, e.store.db, ownerID, search, limit, offset)
}

// mutate runs one locked mutation: load-for-update, apply fn to the in-memory
// head, then persist the head row, its replaced tracks, and the snapshot of
// the new version, all in the same transaction. fn is responsible for the
// version bump and pointer rewiring.
func (e *Engine) mutate(ctx context.Context, publicID string, fn func(tx pgx.Tx, m *Mixtape) error) (*Mixtape, error) {
	tx, err := e.store.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	m, err := e.store.loadForUpdate(ctx, tx, publicID)
	if err != nil {
		return nil, err
	}

	if err := fn(tx, m); err != nil {
		return nil, err
	}
	m.LastModifiedTime = time.Now().UTC()

	if err := e.store.updateMixtape(ctx, tx, m); err != nil {
		return nil, err
	}
	if err := e.store.replaceTracks(ctx, tx, m.ID, m.Tracks); err != nil {
		return nil, err
	}
	if err := e.store.insertSnapshot(ctx, tx, snapshotOf(m)); err != nil {
		return nil, err
	}

	e.pause()
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}
