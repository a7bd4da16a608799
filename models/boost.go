package models

// Boost is a single value-for-value payment as shown on the dashboard.
// The JSON shape is what the embedded page script consumes.
type Boost struct {
	Timestamp int64   `json:"timestamp"`
	Podcast   string  `json:"podcast"`
	Episode   string  `json:"episode"`
	Sender    string  `json:"sender"`
	Message   string  `json:"message"`
	Value     float64 `json:"value"` // sats
}

type PodcastTotal struct {
	Podcast string  `json:"podcast"`
	Boosts  int     `json:"boosts"`
	Sats    float64 `json:"sats"`
}

type Summary struct {
	Boosts   int            `json:"boosts"`
	Messages int            `json:"messages"`
	Sats     float64        `json:"sats"`
	Podcasts []PodcastTotal `json:"podcasts"`
}
