// Package providers declares the upstream data sources and issues the typed
// envelopes the reconciliation pipeline consumes. Providers are configured
// entirely through environment variables; an unset base URL yields a Skipped
// envelope instead of a request.
package providers

import (
	"net/url"
	"strings"

	"github.com/sportsettle/sportsettle/internal/httpclient"
)

// Canonical provider keys.
const (
	TheSportsDB   = "THESPORTSDB"
	APIFootball   = "API_FOOTBALL"
	APIBasketball = "API_BASKETBALL"
	TheOddsAPI    = "THE_ODDS_API"
	OptaStats     = "OPTA_STATS"
	StatsBomb     = "STATSBOMB"
	SportsRadar   = "SPORTSRADAR"
	Flashscore    = "FLASHSCORE"
	Sofascore     = "SOFASCORE"
	OfficialLeague = "OFFICIAL_LEAGUE"
	BettingMarket  = "BETTING_MARKET"
	SportsSearch   = "SPORTS_SEARCH"
	RSSPrefix      = "rss:"
)

// StatsProviders are the industry statistics suppliers whose presence gates
// statistic consensus.
var StatsProviders = map[string]struct{}{
	OptaStats:   {},
	StatsBomb:   {},
	SportsRadar: {},
}

// Pipeline marks which resolution path a provider serves.
type Pipeline int

const (
	PipelineOutcome Pipeline = 1 << iota
	PipelineStatistic
)

// Spec declares one provider: its quality tier, environment wiring, and how
// to compose a request against it.
type Spec struct {
	Key        string
	Name       string
	Tier       int
	Pipelines  Pipeline
	BaseURLEnv string
	APIKeyEnv  string // optional; when set, a missing key skips the provider
	Path       string
	Retry      *httpclient.RetryPolicy

	// ComposeURL overrides default base+path+query composition.
	ComposeURL func(base, apiKey string, p Params) string
	// BuildHeaders overrides default bearer auth.
	BuildHeaders func(apiKey string) map[string]string
}

// Weight returns the advisory weight for a tier. Weights feed confidence,
// not consensus selection.
func Weight(tier int) float64 {
	switch tier {
	case 1:
		return 0.45
	case 2:
		return 0.30
	case 3:
		return 0.25
	default:
		return 0.15
	}
}

// Params is the shared request parameter set appended to every provider URL.
type Params struct {
	Statistic   string
	MatchID     string
	HomeTeam    string
	AwayTeam    string
	Date        string
	Competition string
	Team        string
	Player      string
	Period      string
}

// Encode renders the shared query string, omitting absent fields and keeping
// the declared parameter order.
func (p Params) Encode() string {
	pairs := []struct{ k, v string }{
		{"statistic", p.Statistic},
		{"matchId", p.MatchID},
		{"homeTeam", p.HomeTeam},
		{"awayTeam", p.AwayTeam},
		{"date", p.Date},
		{"competition", p.Competition},
		{"team", p.Team},
		{"player", p.Player},
		{"period", p.Period},
	}
	var b strings.Builder
	for _, kv := range pairs {
		if kv.v == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv.k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.v))
	}
	return b.String()
}

// composeURL joins base, path and the shared query string.
func composeURL(base, path, query string) string {
	u := strings.TrimRight(base, "/") + path
	if query == "" {
		return u
	}
	if strings.Contains(u, "?") {
		return u + "&" + query
	}
	return u + "?" + query
}

// bearerHeaders is the default auth shape when an API key exists.
func bearerHeaders(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

// Defaults is the static provider table. Tier 1 holds official and industry
// statistics feeds, tier 2 the commercial sports APIs, tier 3 aggregators,
// odds boards and news sources.
func Defaults() []Spec {
	return []Spec{
		{
			Key: OfficialLeague, Name: "Official league feed", Tier: 1,
			Pipelines:  PipelineStatistic,
			BaseURLEnv: "OFFICIAL_LEAGUE_BASE_URL", APIKeyEnv: "OFFICIAL_LEAGUE_API_KEY",
			Path: "/v1/match-stats",
		},
		{
			Key: OptaStats, Name: "Opta", Tier: 1,
			Pipelines:  PipelineStatistic,
			BaseURLEnv: "OPTA_BASE_URL", APIKeyEnv: "OPTA_API_KEY",
			Path: "/stats",
		},
		{
			Key: SportsRadar, Name: "Sportradar", Tier: 1,
			Pipelines:  PipelineStatistic,
			BaseURLEnv: "SPORTRADAR_BASE_URL", APIKeyEnv: "SPORTRADAR_API_KEY",
			Path: "/statistics",
		},
		{
			Key: StatsBomb, Name: "StatsBomb", Tier: 2,
			Pipelines:  PipelineStatistic,
			BaseURLEnv: "STATSBOMB_BASE_URL", APIKeyEnv: "STATSBOMB_API_KEY",
			Path: "/api/events",
		},
		{
			Key: APIFootball, Name: "API-Sports football", Tier: 2,
			Pipelines:  PipelineOutcome | PipelineStatistic,
			BaseURLEnv: "API_FOOTBALL_BASE_URL", APIKeyEnv: "API_FOOTBALL_API_KEY",
			Path: "/fixtures",
			BuildHeaders: func(apiKey string) map[string]string {
				return map[string]string{"x-apisports-key": apiKey}
			},
		},
		{
			Key: APIBasketball, Name: "API-Sports basketball", Tier: 2,
			Pipelines:  PipelineOutcome,
			BaseURLEnv: "API_BASKETBALL_BASE_URL", APIKeyEnv: "API_BASKETBALL_API_KEY",
			Path: "/games",
			BuildHeaders: func(apiKey string) map[string]string {
				return map[string]string{"x-apisports-key": apiKey}
			},
		},
		{
			Key: TheSportsDB, Name: "TheSportsDB", Tier: 3,
			Pipelines:  PipelineOutcome,
			BaseURLEnv: "THESPORTSDB_BASE_URL", APIKeyEnv: "",
			Path: "/api/v1/json/3/searchevents.php",
		},
		{
			Key: TheOddsAPI, Name: "The Odds API", Tier: 3,
			Pipelines:  PipelineOutcome,
			BaseURLEnv: "THE_ODDS_API_BASE_URL", APIKeyEnv: "THE_ODDS_API_KEY",
			Path: "/v4/sports/scores",
			// Odds API authenticates with a query parameter, not a header.
			ComposeURL: func(base, apiKey string, p Params) string {
				u := composeURL(base, "/v4/sports/scores", p.Encode())
				if apiKey != "" {
					sep := "?"
					if strings.Contains(u, "?") {
						sep = "&"
					}
					u += sep + "apiKey=" + url.QueryEscape(apiKey)
				}
				return u
			},
			BuildHeaders: func(string) map[string]string { return nil },
		},
		{
			Key: Flashscore, Name: "Flashscore", Tier: 3,
			Pipelines:  PipelineStatistic,
			BaseURLEnv: "FLASHSCORE_BASE_URL",
			Path: "/match/statistics",
		},
		{
			Key: Sofascore, Name: "Sofascore", Tier: 3,
			Pipelines:  PipelineStatistic,
			BaseURLEnv: "SOFASCORE_BASE_URL",
			Path: "/api/v1/event/statistics",
		},
		{
			Key: BettingMarket, Name: "Betting market board", Tier: 3,
			Pipelines:  PipelineStatistic,
			BaseURLEnv: "BETTING_MARKET_BASE_URL", APIKeyEnv: "BETTING_MARKET_API_KEY",
			Path: "/markets/settled",
		},
		{
			Key: SportsSearch, Name: "Sports search", Tier: 3,
			Pipelines:  PipelineOutcome,
			BaseURLEnv: "SPORTS_SEARCH_BASE_URL", APIKeyEnv: "SPORTS_SEARCH_API_KEY",
			Path: "/search",
		},
	}
}
