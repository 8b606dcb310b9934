package mixtape

import "strings"

const (
	maxNameLen     = 255
	maxSubtitleLen = 60
	maxURILen      = 255
)

// validateContent checks caller-supplied mixtape content. It is pure and runs
// before any database work, so a rejected request never creates a version.
func validateContent(c Content) error {
	if c.Name == "" || len(c.Name) > maxNameLen {
		return validationErrorf("name must be between 1 and %d characters", maxNameLen)
	}
	for _, sub := range []*string{c.Subtitle1, c.Subtitle2, c.Subtitle3} {
		if sub != nil && len(*sub) > maxSubtitleLen {
			return validationErrorf("subtitles must be at most %d characters", maxSubtitleLen)
		}
	}
	return validateTracks(c.Tracks)
}

// validateTracks enforces unique, positive 1-based positions. There is no
// contiguity requirement; 1, 3, 7 is a valid ordering.
func validateTracks(tracks []Track) error {
	seen := make(map[int]struct{}, len(tracks))
	for _, t := range tracks {
		if t.Position < 1 {
			return validationErrorf("track position %d is invalid: positions are 1-based", t.Position)
		}
		if _, dup := seen[t.Position]; dup {
			return validationErrorf("duplicate track position %d", t.Position)
		}
		seen[t.Position] = struct{}{}
		if t.SpotifyURI == "" || len(t.SpotifyURI) > maxURILen {
			return validationErrorf("track at position %d has an invalid spotify uri", t.Position)
		}
	}
	return nil
}

// flattenNewlines keeps subtitles single-line.
func flattenNewlines(s *string) *string {
	if s == nil {
		return nil
	}
	out := strings.NewReplacer("\n", " ", "\r", " ").Replace(*s)
	return &out
}

func sanitizeContent(c Content) Content {
	c.Subtitle1 = flattenNewlines(c.Subtitle1)
	c.Subtitle2 = flattenNewlines(c.Subtitle2)
	c.Subtitle3 = flattenNewlines(c.Subtitle3)
	return c
}
