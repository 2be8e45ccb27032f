package providers

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"github.com/sportsettle/sportsettle/internal/circuit"
	"github.com/sportsettle/sportsettle/internal/domain"
)

// defaultFeeds are used when SPORTS_RSS_FEEDS is unset.
var defaultFeeds = []string{
	"https://www.espn.com/espn/rss/news",
	"https://feeds.bbci.co.uk/sport/rss.xml",
	"https://www.skysports.com/rss/12040",
}

// Feeds returns the configured RSS URLs: SPORTS_RSS_FEEDS split on commas,
// or the built-in defaults.
func Feeds(getenv func(string) string) []string {
	raw := getenv("SPORTS_RSS_FEEDS")
	if strings.TrimSpace(raw) == "" {
		return defaultFeeds
	}
	var feeds []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			feeds = append(feeds, f)
		}
	}
	return feeds
}

// RSSClient retrieves feeds and flattens items into the opaque payload shape
// the outcome normalizer scans.
type RSSClient struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

// NewRSSClient builds a client with the default feed timeout.
func NewRSSClient() *RSSClient {
	return &RSSClient{parser: gofeed.NewParser(), timeout: 10 * time.Second}
}

// FetchAll fetches each feed; one envelope per feed, failures recorded on
// the envelope. RSS providers are tier 3.
func (c *RSSClient) FetchAll(ctx context.Context, feeds []string) []domain.ProviderResponse {
	envs := make([]domain.ProviderResponse, 0, len(feeds))
	for _, feed := range feeds {
		envs = append(envs, c.fetch(ctx, feed))
	}
	return envs
}

func (c *RSSClient) fetch(ctx context.Context, feedURL string) domain.ProviderResponse {
	provider := RSSPrefix + circuit.Host(feedURL)
	env := domain.ProviderResponse{
		Provider:    provider,
		Tier:        3,
		Weight:      Weight(3),
		CollectedAt: time.Now(),
		Meta:        map[string]string{"feed": feedURL},
	}

	fctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	feed, err := c.parser.ParseURLWithContext(feedURL, fctx)
	if err != nil {
		log.Warn().Err(err).Str("feed", feedURL).Msg("rss fetch failed")
		env.Err = err.Error()
		return env
	}

	items := make([]any, 0, len(feed.Items))
	for _, item := range feed.Items {
		entry := map[string]any{
			"title": item.Title,
			"link":  item.Link,
		}
		if item.PublishedParsed != nil {
			entry["published"] = item.PublishedParsed.Format(time.RFC3339)
		}
		items = append(items, entry)
	}
	env.Payload = items
	return env
}
