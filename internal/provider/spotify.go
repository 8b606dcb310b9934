package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

const trackCacheTTL = time.Hour

// SpotifyClient talks to the Spotify Web API. Track lookups go through a
// redis read-through cache when a client is configured, since mixtape reads
// re-resolve the same URIs over and over.
type SpotifyClient struct {
	token   string
	userID  string
	baseURL string
	http    *http.Client
	rdb     *redis.Client
}

func NewSpotifyClient(token, userID, baseURL string, rdb *redis.Client) *SpotifyClient {
	if baseURL == "" {
		baseURL = "https://api.spotify.com/v1"
	}
	return &SpotifyClient{
		token:   token,
		userID:  userID,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		rdb: rdb,
	}
}

func (c *SpotifyClient) GetTrack(ctx context.Context, trackID string) (*TrackDetails, error) {
	cacheKey := "spotify:track:" + trackID
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var td TrackDetails
			if err := json.Unmarshal([]byte(raw), &td); err == nil {
				return &td, nil
			}
		}
	}

	var td TrackDetails
	if err := c.getJSON(ctx, "/tracks/"+url.PathEscape(trackID), &td); err != nil {
		return nil, err
	}

	if c.rdb != nil {
		if raw, err := json.Marshal(td); err == nil {
			if err := c.rdb.Set(ctx, cacheKey, raw, trackCacheTTL).Err(); err != nil {
				log.Printf("mixtape-service: cache track %s: %v", trackID, err)
			}
		}
	}
	return &td, nil
}

func (c *SpotifyClient) SearchTracks(ctx context.Context, query string, limit int) ([]TrackDetails, error) {
	if limit <= 0 || limit > 25 {
		limit = 10
	}
	val := url.Values{}
	val.Set("q", query)
	val.Set("type", "track")
	val.Set("limit", fmt.Sprint(limit))

	var body struct {
		Tracks struct {
			Items []TrackDetails `json:"items"`
		} `json:"tracks"`
	}
	if err := c.getJSON(ctx, "/search?"+val.Encode(), &body); err != nil {
		return nil, err
	}
	return body.Tracks.Items, nil
}

func (c *SpotifyClient) CreatePlaylist(ctx context.Context, title, description string, trackURIs []string) (string, error) {
	var created struct {
		ID  string `json:"id"`
		URI string `json:"uri"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/users/"+url.PathEscape(c.userID)+"/playlists", map[string]any{
		"name":        title,
		"description": description,
		"public":      true,
	}, &created)
	if err != nil {
		return "", err
	}
	if err := c.doJSON(ctx, http.MethodPut, "/playlists/"+url.PathEscape(created.ID)+"/tracks", map[string]any{
		"uris": trackURIs,
	}, nil); err != nil {
		return "", err
	}
	return created.URI, nil
}

func (c *SpotifyClient) UpdatePlaylist(ctx context.Context, playlistURI, title, description string, trackURIs []string) error {
	id := playlistIDFromURI(playlistURI)
	if err := c.doJSON(ctx, http.MethodPut, "/playlists/"+url.PathEscape(id), map[string]any{
		"name":        title,
		"description": description,
	}, nil); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPut, "/playlists/"+url.PathEscape(id)+"/tracks", map[string]any{
		"uris": trackURIs,
	}, nil)
}

func (c *SpotifyClient) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *SpotifyClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spotify status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func playlistIDFromURI(uri string) string {
	const prefix = "spotify:playlist:"
	if len(uri) > len(prefix) && uri[:len(prefix)] == prefix {
		return uri[len(prefix):]
	}
	return uri
}
