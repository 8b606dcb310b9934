package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockClient serves canned tracks for local runs and tests. Playlists it
// "creates" are remembered in memory so export round trips behave.
type MockClient struct {
	mu        sync.Mutex
	playlists map[string][]string
	nextID    int
}

func NewMockClient() *MockClient {
	return &MockClient{playlists: map[string][]string{}}
}

var mockTracks = []TrackDetails{
	{ID: "track1", Name: "Mock Song One", Artists: []Artist{{Name: "Mock Artist"}}, Album: Album{Name: "Mock Album"}, URI: "spotify:track:track1"},
	{ID: "track2", Name: "Another Track", Artists: []Artist{{Name: "Another Artist"}}, Album: Album{Name: "Another Album"}, URI: "spotify:track:track2"},
	{ID: "track3", Name: "Third Song", Artists: []Artist{{Name: "Mock Artist"}}, Album: Album{Name: "Mock Album"}, URI: "spotify:track:track3"},
}

func (c *MockClient) GetTrack(ctx context.Context, trackID string) (*TrackDetails, error) {
	for i := range mockTracks {
		if mockTracks[i].ID == trackID {
			td := mockTracks[i]
			return &td, nil
		}
	}
	return nil, fmt.Errorf("track %q not found", trackID)
}

func (c *MockClient) SearchTracks(ctx context.Context, query string, limit int) ([]TrackDetails, error) {
	out := []TrackDetails{}
	for _, t := range mockTracks {
		if strings.Contains(strings.ToLower(t.Name), strings.ToLower(query)) {
			out = append(out, t)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (c *MockClient) CreatePlaylist(ctx context.Context, title, description string, trackURIs []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	uri := fmt.Sprintf("spotify:playlist:mock-%d", c.nextID)
	c.playlists[uri] = trackURIs
	return uri, nil
}

func (c *MockClient) UpdatePlaylist(ctx context.Context, playlistURI, title, description string, trackURIs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.playlists[playlistURI]; !ok {
		return fmt.Errorf("playlist %q not found", playlistURI)
	}
	c.playlists[playlistURI] = trackURIs
	return nil
}
