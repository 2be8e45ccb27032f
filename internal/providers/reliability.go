package providers

import "strings"

// reliabilityTable maps provider keys to the reliability attached to their
// normalized facts. News feeds are capped below corroborating APIs so a feed
// can never carry a resolution alone.
var reliabilityTable = map[string]float64{
	OfficialLeague: 0.95,
	OptaStats:      0.92,
	SportsRadar:    0.92,
	StatsBomb:      0.85,
	APIFootball:    0.80,
	APIBasketball:  0.80,
	TheOddsAPI:     0.75,
	TheSportsDB:    0.70,
	Flashscore:     0.65,
	Sofascore:      0.65,
	BettingMarket:  0.70,
	SportsSearch:   0.55,
}

const (
	rssReliability     = 0.60
	unknownReliability = 0.50
)

// Reliability returns the reliability score for a provider id. RSS sources
// get the news cap, unknown providers the neutral default.
func Reliability(provider string) float64 {
	if strings.HasPrefix(provider, RSSPrefix) {
		return rssReliability
	}
	if r, ok := reliabilityTable[provider]; ok {
		return r
	}
	return unknownReliability
}
