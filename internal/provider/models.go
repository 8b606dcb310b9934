package provider

// TrackDetails is the provider's description of one track, as returned by
// track lookup and search.
type TrackDetails struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists"`
	Album   Album    `json:"album"`
	URI     string   `json:"uri"`
}

type Artist struct {
	Name string `json:"name"`
}

type Album struct {
	Name   string       `json:"name"`
	Images []AlbumImage `json:"images"`
}

type AlbumImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
