package provider

import "context"

// Client is the external music-catalog boundary: track lookup plus playlist
// export. The engine itself never calls it; only the HTTP layer does, before
// content reaches the engine.
type Client interface {
	GetTrack(ctx context.Context, trackID string) (*TrackDetails, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]TrackDetails, error)
	// CreatePlaylist creates a playlist on the provider and returns its URI.
	CreatePlaylist(ctx context.Context, title, description string, trackURIs []string) (string, error)
	// UpdatePlaylist replaces an existing playlist's metadata and tracks.
	UpdatePlaylist(ctx context.Context, playlistURI, title, description string, trackURIs []string) error
}

// TrackIDFromURI strips the spotify:track: prefix if present.
func TrackIDFromURI(uri string) string {
	const prefix = "spotify:track:"
	if len(uri) > len(prefix) && uri[:len(prefix)] == prefix {
		return uri[len(prefix):]
	}
	return uri
}
