package mixtape

import (
	"time"
)

// Mixtape is the current head record for a mixtape, addressed externally by
// PublicID. Version increases by one on every mutation; UndoToVersion and
// RedoToVersion point at snapshot versions reachable by undo/redo.
type Mixtape struct {
	ID                 int64      `json:"-"`
	PublicID           string     `json:"publicId"`
	OwnerID            *string    `json:"ownerId,omitempty"`
	Name               string     `json:"name"`
	IntroText          *string    `json:"introText,omitempty"`
	Subtitle1          *string    `json:"subtitle1,omitempty"`
	Subtitle2          *string    `json:"subtitle2,omitempty"`
	Subtitle3          *string    `json:"subtitle3,omitempty"`
	IsPublic           bool       `json:"isPublic"`
	SpotifyPlaylistURI *string    `json:"spotifyPlaylistUri,omitempty"`
	Version            int        `json:"version"`
	UndoToVersion      *int       `json:"-"`
	RedoToVersion      *int       `json:"-"`
	CreateTime         time.Time  `json:"createTime"`
	LastModifiedTime   time.Time  `json:"lastModifiedTime"`

	Tracks []Track `json:"tracks"`
}

func (m *Mixtape) CanUndo() bool { return m.UndoToVersion != nil }
func (m *Mixtape) CanRedo() bool { return m.RedoToVersion != nil }

// Track is one entry of a mixtape. Positions are 1-based and unique within
// the mixtape; gaps are allowed.
type Track struct {
	Position   int     `json:"position"`
	Text       *string `json:"text,omitempty"`
	SpotifyURI string  `json:"spotifyUri"`
}

// Snapshot is an immutable copy of a mixtape's mutable fields as they existed
// right after the mutation that produced the tagged version. Snapshots are
// append-only; nothing in this service ever updates or deletes one.
type Snapshot struct {
	ID                 int64
	MixtapeID          int64
	PublicID           string
	OwnerID            *string
	Name               string
	IntroText          *string
	Subtitle1          *string
	Subtitle2          *string
	Subtitle3          *string
	IsPublic           bool
	SpotifyPlaylistURI *string
	Version            int
	UndoToVersion      *int
	RedoToVersion      *int
	CreateTime         time.Time
	LastModifiedTime   time.Time

	Tracks []Track
}

// Content carries the caller-editable fields of a mixtape through the engine.
type Content struct {
	Name      string
	IntroText *string
	Subtitle1 *string
	Subtitle2 *string
	Subtitle3 *string
	IsPublic  bool
	Tracks    []Track
}

// Overview is the trimmed listing row for a user's mixtape collection.
type Overview struct {
	PublicID         string    `json:"publicId"`
	Name             string    `json:"name"`
	LastModifiedTime time.Time `json:"lastModifiedTime"`
}

func (m *Mixtape) apply(c Content) {
	m.Name = c.Name
	m.IntroText = c.IntroText
	m.Subtitle1 = c.Subtitle1
	m.Subtitle2 = c.Subtitle2
	m.Subtitle3 = c.Subtitle3
	m.IsPublic = c.IsPublic
	m.Tracks = c.Tracks
}

// restore copies a snapshot's content back onto the head record. Ownership is
// part of the recorded state, so undoing a claim reverts the owner as well.
func (m *Mixtape) restore(s *Snapshot) {
	m.OwnerID = s.OwnerID
	m.Name = s.Name
	m.IntroText = s.IntroText
	m.Subtitle1 = s.Subtitle1
	m.Subtitle2 = s.Subtitle2
	m.Subtitle3 = s.Subtitle3
	m.IsPublic = s.IsPublic
	m.SpotifyPlaylistURI = s.SpotifyPlaylistURI
	m.Tracks = s.Tracks
}

func snapshotOf(m *Mixtape) *Snapshot {
	return &Snapshot{
		MixtapeID:          m.ID,
		PublicID:           m.PublicID,
		OwnerID:            m.OwnerID,
		Name:               m.Name,
		IntroText:          m.IntroText,
		Subtitle1:          m.Subtitle1,
		Subtitle2:          m.Subtitle2,
		Subtitle3:          m.Subtitle3,
		IsPublic:           m.IsPublic,
		SpotifyPlaylistURI: m.SpotifyPlaylistURI,
		Version:            m.Version,
		UndoToVersion:      m.UndoToVersion,
		RedoToVersion:      m.RedoToVersion,
		CreateTime:         m.CreateTime,
		LastModifiedTime:   m.LastModifiedTime,
		Tracks:             m.Tracks,
	}
}
