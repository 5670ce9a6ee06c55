// Package youtube searches videos through the YouTube Data API v3.
package youtube

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
	"tvcast.app/tvcast/utils"
)

// DefaultEndpoint is the Data API base path.
const DefaultEndpoint = "https://youtube.googleapis.com/"

var (
	// ErrMissingAPIKey is returned before any request when no key is set.
	ErrMissingAPIKey = errors.New("youtube: no API key configured")
	// ErrNoResults means the provider answered but matched no video.
	ErrNoResults = errors.New("youtube: search returned no videos")
)

// SearchResult is a single video match.
type SearchResult struct {
	ID          string
	Title       string
	Channel     string
	ChannelID   string
	Description string
	Thumbnail   string
}

// WatchURL is the public page for the video.
func (r SearchResult) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(r.ID)
}

// Client queries the search resource.
type Client struct {
	APIKey      string
	Endpoint    string
	HTTPClient  *http.Client
	LogOutput   io.Writer
	Logger      zerolog.Logger
	initLogOnce sync.Once
}

// NewClient returns a search client for apiKey.
func NewClient(apiKey string, retryMax int, logOutput io.Writer) *Client {
	return &Client{
		APIKey:     apiKey,
		Endpoint:   DefaultEndpoint,
		HTTPClient: utils.NewRetryableHTTPClient(retryMax),
		LogOutput:  logOutput,
	}
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (c *Client) Log() *zerolog.Logger {
	if c.LogOutput != nil {
		c.initLogOnce.Do(func() {
			c.Logger = zerolog.New(c.LogOutput).With().Timestamp().Logger()
		})
	}
	return &c.Logger
}

// service builds a Data API service. A caller supplied http.Client makes the
// library skip its own credential handling, so the key rides on the transport.
func (c *Client) service(ctx context.Context) (*ytapi.Service, error) {
	hc := c.HTTPClient
	if hc == nil {
		hc = utils.NewHTTPClient()
	}

	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	keyed := &http.Client{
		Timeout:   hc.Timeout,
		Transport: &transport.APIKey{Key: c.APIKey, Transport: base},
	}

	opts := []option.ClientOption{option.WithHTTPClient(keyed)}
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}

	return ytapi.NewService(ctx, opts...)
}

// Search returns up to maxResults videos matching query, in API order.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if c.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if maxResults <= 0 {
		maxResults = 1
	}

	svc, err := c.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("Search service error: %w", err)
	}

	c.Log().Debug().Str("Method", "Search").Str("Query", query).Int("MaxResults", maxResults).Msg("searching")

	resp, err := svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("Search provider error: %w", err)
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}

		r := SearchResult{ID: item.Id.VideoId}
		if sn := item.Snippet; sn != nil {
			r.Title = html.UnescapeString(sn.Title)
			r.Channel = sn.ChannelTitle
			r.ChannelID = sn.ChannelId
			r.Description = sn.Description
			if sn.Thumbnails != nil && sn.Thumbnails.Default != nil {
				r.Thumbnail = sn.Thumbnails.Default.Url
			}
		}

		results = append(results, r)
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}

	return results, nil
}

// First returns the top match for query.
func (c *Client) First(ctx context.Context, query string) (*SearchResult, error) {
	results, err := c.Search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}
