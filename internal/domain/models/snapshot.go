package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// MarketData holds the market section of a snapshot. Every field is optional:
// a nil pointer means the provider did not return the value this cycle.
type MarketData struct {
	CurrentPrice  *float64 `json:"currentPrice,omitempty"`
	MarketCap     *float64 `json:"marketCap,omitempty"`
	PERatio       *float64 `json:"peRatio,omitempty"`
	ForwardPE     *float64 `json:"forwardPe,omitempty"`
	PriceToSales  *float64 `json:"priceToSales,omitempty"`
	DividendYield *float64 `json:"dividendYield,omitempty"`
	Beta          *float64 `json:"beta,omitempty"`
	Volume        *float64 `json:"volume,omitempty"`
	AvgVolume     *float64 `json:"avgVolume,omitempty"`
	PriceChange1D *float64 `json:"priceChange1d,omitempty"`
	PriceChange1W *float64 `json:"priceChange1w,omitempty"`
	PriceChange1M *float64 `json:"priceChange1m,omitempty"`
}

// AIMetrics holds fundamentals tied to AI exposure. All optional.
type AIMetrics struct {
	RDExpense   *float64 `json:"rdExpense,omitempty"`
	RDToRevenue *float64 `json:"rdToRevenue,omitempty"`
	PatentCount *int     `json:"patentCount,omitempty"`
	AIMentions  *int     `json:"aiMentions,omitempty"`
}

// NewsItem is opaque to scoring; only its existence is counted.
type NewsItem struct {
	Title     string    `json:"title"`
	Link      string    `json:"link,omitempty"`
	Published time.Time `json:"published,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// ForumPost is one social post with engagement counters.
type ForumPost struct {
	Title       string `json:"title,omitempty"`
	Score       int    `json:"score"`
	NumComments int    `json:"numComments"`
	Subreddit   string `json:"subreddit,omitempty"`
	CreatedUTC  int64  `json:"createdUtc,omitempty"`
}

// RawTickerSnapshot is one immutable bundle of per-ticker data for a single
// scoring call. Sections are independently optional; a nil slice means the
// provider was never reached, a non-nil empty slice means it returned nothing.
type RawTickerSnapshot struct {
	Ticker     string      `json:"ticker"`
	Timestamp  time.Time   `json:"timestamp"`
	Market     *MarketData `json:"market,omitempty"`
	AIMetrics  *AIMetrics  `json:"aiMetrics,omitempty"`
	News       []NewsItem  `json:"news"`
	ForumPosts []ForumPost `json:"forumPosts"`
}

// asFloat coerces a raw JSON value to a float pointer. Numbers and numeric
// strings pass; null, junk strings, and structured values count as absent.
func asFloat(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return &v
		}
	}
	return nil
}

// asInt coerces like asFloat and truncates fractional counts.
func asInt(raw json.RawMessage) *int {
	f := asFloat(raw)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

// UnmarshalJSON decodes market fields tolerantly: a present-but-malformed
// field is treated as absent rather than failing the whole snapshot.
func (m *MarketData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.CurrentPrice = asFloat(raw["currentPrice"])
	m.MarketCap = asFloat(raw["marketCap"])
	m.PERatio = asFloat(raw["peRatio"])
	m.ForwardPE = asFloat(raw["forwardPe"])
	m.PriceToSales = asFloat(raw["priceToSales"])
	m.DividendYield = asFloat(raw["dividendYield"])
	m.Beta = asFloat(raw["beta"])
	m.Volume = asFloat(raw["volume"])
	m.AvgVolume = asFloat(raw["avgVolume"])
	m.PriceChange1D = asFloat(raw["priceChange1d"])
	m.PriceChange1W = asFloat(raw["priceChange1w"])
	m.PriceChange1M = asFloat(raw["priceChange1m"])
	return nil
}

// UnmarshalJSON decodes AI metrics tolerantly, same policy as MarketData.
func (a *AIMetrics) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	a.RDExpense = asFloat(raw["rdExpense"])
	a.RDToRevenue = asFloat(raw["rdToRevenue"])
	a.PatentCount = asInt(raw["patentCount"])
	a.AIMentions = asInt(raw["aiMentions"])
	return nil
}

// Float returns a pointer to v; convenience for building snapshots.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
