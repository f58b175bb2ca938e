package reddit

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"LaCarte/internal/domain"
	"LaCarte/internal/scanner"
)

const (
	webBaseURL  = "https://www.reddit.com"
	defaultPath = "/best"
	kindLink    = "t3"
)

// listing is the subset of a Reddit listing envelope the scanner reads.
type listing struct {
	Data struct {
		After    string  `json:"after"`
		Children []child `json:"children"`
	} `json:"data"`
}

type child struct {
	Kind string   `json:"kind"`
	Data linkData `json:"data"`
}

type linkData struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Title        string  `json:"title"`
	Subreddit    string  `json:"subreddit"`
	URL          string  `json:"url"`
	Permalink    string  `json:"permalink"`
	Author       string  `json:"author"`
	Domain       string  `json:"domain"`
	Selftext     string  `json:"selftext"`
	SelftextHTML *string `json:"selftext_html"`
	Score        int     `json:"score"`
	NumComments  int     `json:"num_comments"`
	Over18       bool    `json:"over_18"`
	CreatedUTC   float64 `json:"created_utc"`
}

// ListingScanner reads one Reddit listing (e.g. /best) as a post strategy.
type ListingScanner struct {
	client *Client
}

var _ scanner.Scanner = (*ListingScanner)(nil)

func NewListingScanner(client *Client) *ListingScanner {
	return &ListingScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (l *ListingScanner) Name() string {
	return "reddit"
}

// Scan fetches one page of the requested listing.
func (l *ListingScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawPost, error) {
	path := req.Listing
	if path == "" {
		path = defaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	query := url.Values{}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}

	var page listing
	if err := l.client.get(ctx, path, query, &page); err != nil {
		return nil, err
	}

	posts := make([]domain.RawPost, 0, len(page.Data.Children))
	for _, c := range page.Data.Children {
		if c.Kind != "" && c.Kind != kindLink {
			continue
		}
		if c.Data.ID == "" {
			continue
		}
		posts = append(posts, toRawPost(c.Data))
	}

	l.client.logger.Debug("listing scanned", "listing", path, "posts", len(posts))
	return posts, nil
}

func toRawPost(d linkData) domain.RawPost {
	permalink := d.Permalink
	if strings.HasPrefix(permalink, "/") {
		permalink = webBaseURL + permalink
	}

	link := d.URL
	if link == "" {
		link = permalink
	}

	sec, frac := math.Modf(d.CreatedUTC)
	created := time.Unix(int64(sec), int64(frac*1e9)).UTC()

	var html string
	if d.SelftextHTML != nil {
		html = *d.SelftextHTML
	}

	return domain.RawPost{
		ID:          d.ID,
		FullName:    d.Name,
		Title:       strings.TrimSpace(d.Title),
		Subreddit:   d.Subreddit,
		URL:         link,
		Permalink:   permalink,
		Author:      d.Author,
		Domain:      d.Domain,
		Excerpt:     excerpt(html, d.Selftext, excerptRunes),
		Score:       d.Score,
		NumComments: d.NumComments,
		Over18:      d.Over18,
		CreatedAt:   created,
	}
}
