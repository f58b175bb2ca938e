package domain

import "time"

// Staleness enumerates the cache states of one tier.
type Staleness string

const (
	StateFresh   Staleness = "fresh"
	StateStale   Staleness = "stale"
	StateUnknown Staleness = "unknown"
)

// NeedsRefresh reports whether the pipeline has to run for this state.
func (s Staleness) NeedsRefresh() bool {
	return s != StateFresh
}

// FetchState is what a tier knows about its last successful fetch.
type FetchState struct {
	LastFetch time.Time
	HasStamp  bool
	State     Staleness
}

// PageLoad is the answer of the server-tier gate. Pieces is empty when the
// caller's last fetch is still fresh.
type PageLoad struct {
	Fetched   bool            `json:"fetched"`
	LastFetch string          `json:"lacarteLastFetch"`
	Pieces    []EnrichedPiece `json:"pieces"`
}
