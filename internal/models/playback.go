package models

// PlaybackEvent is one play of a track, as recorded in the log.
//
// Fields are free text: Date is expected to start with a month name and to contain the year, but nothing is validated.
type PlaybackEvent struct {
	Date      string `json:"date"`
	Performer string `json:"performer"`
	Title     string `json:"title"`
}

// ItemCount pairs a name (month token, performer or title) with its number of plays.
type ItemCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary holds the headline numbers of an [AggregationResult].
type Summary struct {
	TotalEvents         int `json:"total_events"`
	DistinctPerformers  int `json:"distinct_performers"`
	DistinctTracks      int `json:"distinct_tracks"`
	SingletonPerformers int `json:"singleton_performers"`
	SingletonTracks     int `json:"singleton_tracks"`
}

// AggregationResult contains the statistics computed for one year of the playback log.
type AggregationResult struct {
	Year                int         `json:"year"`
	TopK                int         `json:"top_k"`
	MonthlyCounts       []ItemCount `json:"monthly_counts"`       // Sorted by month token, lexicographically
	TopPerformers       []ItemCount `json:"top_performers"`       // Count descending, first-seen order on ties
	TopTracks           []ItemCount `json:"top_tracks"`           // Count descending, first-seen order on ties
	SingletonPerformers []string    `json:"singleton_performers"` // Performers played exactly once
	SingletonTracks     []string    `json:"singleton_tracks"`     // Tracks played exactly once
	Summary             Summary     `json:"summary"`
}

// MergeReport describes the outcome of merging fetched rows into the local store.
type MergeReport struct {
	StorePath         string `json:"store_path"`
	ExistingRows      int    `json:"existing_rows"`
	FetchedRows       int    `json:"fetched_rows"`
	DroppedDuplicates int    `json:"dropped_duplicates"`
	TotalRows         int    `json:"total_rows"`
}

// AddedRows returns how many rows the merge added to the store.
func (r MergeReport) AddedRows() int {
	return r.TotalRows - r.ExistingRows
}
