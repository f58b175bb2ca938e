package domain

import (
	"errors"
	"time"
)

// Neutral defaults used when a model gives no answer for a post.
const (
	DefaultTone       = 0.499999
	DefaultProjection = 0.5
)

// ErrUpstream marks failures of the post source or the model providers that
// must surface at the request boundary instead of degrading to defaults.
var ErrUpstream = errors.New("upstream failure")

// RawPost is a post as delivered by the platform; the core only reads it.
type RawPost struct {
	ID          string
	FullName    string
	Title       string
	Subreddit   string
	URL         string
	Permalink   string
	Author      string
	Domain      string
	Excerpt     string
	Score       int
	NumComments int
	Over18      bool
	CreatedAt   time.Time
}

// TonedTopics is the per-post model output of one enrichment run.
type TonedTopics struct {
	Tone float64
	Tags []string
}

// EnrichedPiece is the record served to clients.
type EnrichedPiece struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	PublishedUTC    string   `json:"published_utc"`
	Tone            float64  `json:"tone"`
	Topics          []string `json:"topics"`
	TopicProjection float64  `json:"topicProjection"`
	Subreddit       string   `json:"subreddit,omitempty"`
	Source          string   `json:"source,omitempty"`
	Permalink       string   `json:"permalink,omitempty"`
	Author          string   `json:"author,omitempty"`
	Score           int      `json:"score"`
	NumComments     int      `json:"num_comments"`
	Over18          bool     `json:"over_18,omitempty"`
	Excerpt         string   `json:"excerpt,omitempty"`
}

// NewEnrichedPiece joins a post with its model results.
func NewEnrichedPiece(post RawPost, toned TonedTopics, projection float64, source string) EnrichedPiece {
	tags := toned.Tags
	if tags == nil {
		tags = []string{}
	}
	return EnrichedPiece{
		ID:              post.ID,
		Title:           post.Title,
		URL:             post.URL,
		PublishedUTC:    post.CreatedAt.UTC().Format(time.RFC3339),
		Tone:            Clamp01(toned.Tone),
		Topics:          tags,
		TopicProjection: Clamp01(projection),
		Subreddit:       post.Subreddit,
		Source:          source,
		Permalink:       post.Permalink,
		Author:          post.Author,
		Score:           post.Score,
		NumComments:     post.NumComments,
		Over18:          post.Over18,
		Excerpt:         post.Excerpt,
	}
}

// Clamp01 bounds v to [0,1]; NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
