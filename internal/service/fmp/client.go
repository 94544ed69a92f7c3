package fmp

import (
	"context"
	"fmt"
	"time"

	"BubbleWatch/internal/domain/models"
	domsvc "BubbleWatch/internal/domain/service"
	"BubbleWatch/internal/service/ratelimit"
	"BubbleWatch/internal/services/features"
	xhttp "BubbleWatch/pkg/http"
)

// Client fetches market data and fundamentals from a Financial Modeling
// Prep-compatible JSON API. Every method tolerates partial upstream data:
// missing fields stay nil and flow into the snapshot as absent.
type Client struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
	rl      *ratelimit.Limiter
}

// New creates an FMP client with a per-request timeout.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		rl:      ratelimit.New(),
	}
}

// rate limit tuned for the free FMP tier
const (
	rlCapacity = 10
	rlRefill   = 4 // requests per second
)

func (c *Client) getJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if !c.rl.Allow("fmp", rlCapacity, rlRefill) {
		return fmt.Errorf("fmp: rate limited")
	}
	q := map[string][]string{"apikey": {c.apiKey}}
	for k, v := range query {
		q[k] = v
	}
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: q,
	}, dest)
	if err != nil {
		return fmt.Errorf("fmp get %s: %w", path, err)
	}
	return nil
}

type quoteRow struct {
	Price     *float64 `json:"price"`
	MarketCap *float64 `json:"marketCap"`
	PE        *float64 `json:"pe"`
	Volume    *float64 `json:"volume"`
	AvgVolume *float64 `json:"avgVolume"`
}

type profileRow struct {
	Beta *float64 `json:"beta"`
}

type ratiosRow struct {
	PriceToSales  *float64 `json:"priceToSalesRatioTTM"`
	DividendYield *float64 `json:"dividendYielTTM"` // field name as served upstream
	ForwardPE     *float64 `json:"forwardPERatioTTM"`
}

type historicalResp struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date  string  `json:"date"`
		Close float64 `json:"close"`
	} `json:"historical"`
}

// MarketData assembles the market section for one ticker from the quote,
// profile, ratios, and price-history endpoints. A failed sub-call leaves its
// fields absent; only a fully failed assembly is an error.
func (c *Client) MarketData(ctx context.Context, ticker string) (*models.MarketData, error) {
	md := &models.MarketData{}
	fetched := 0

	var quotes []quoteRow
	if err := c.getJSON(ctx, "/quote/"+ticker, nil, &quotes); err == nil && len(quotes) > 0 {
		q := quotes[0]
		md.CurrentPrice = q.Price
		md.MarketCap = q.MarketCap
		md.PERatio = q.PE
		md.Volume = q.Volume
		md.AvgVolume = q.AvgVolume
		fetched++
	}

	var profiles []profileRow
	if err := c.getJSON(ctx, "/profile/"+ticker, nil, &profiles); err == nil && len(profiles) > 0 {
		md.Beta = profiles[0].Beta
		fetched++
	}

	var ratios []ratiosRow
	if err := c.getJSON(ctx, "/ratios-ttm/"+ticker, nil, &ratios); err == nil && len(ratios) > 0 {
		md.PriceToSales = ratios[0].PriceToSales
		md.DividendYield = ratios[0].DividendYield
		md.ForwardPE = ratios[0].ForwardPE
		fetched++
	}

	var hist historicalResp
	if err := c.getJSON(ctx, "/historical-price-full/"+ticker, map[string][]string{
		"serietype":  {"line"},
		"timeseries": {"30"},
	}, &hist); err == nil && len(hist.Historical) > 0 {
		// served newest first; features helpers expect oldest first
		closes := make([]float64, len(hist.Historical))
		for i, h := range hist.Historical {
			closes[len(closes)-1-i] = h.Close
		}
		pc := features.DerivePriceChanges(closes)
		md.PriceChange1D = pc.OneDay
		md.PriceChange1W = pc.OneWeek
		md.PriceChange1M = pc.OneMonth
		fetched++
	}

	if fetched == 0 {
		return nil, fmt.Errorf("fmp: no market data for %s", ticker)
	}
	return md, nil
}

type incomeRow struct {
	Revenue   *float64 `json:"revenue"`
	RDExpense *float64 `json:"researchAndDevelopmentExpenses"`
}

// AIMetrics fetches R&D spend from the latest income statement and derives
// the R&D-to-revenue ratio. Mentions and patent counts come from elsewhere.
func (c *Client) AIMetrics(ctx context.Context, ticker string) (*models.AIMetrics, error) {
	var rows []incomeRow
	if err := c.getJSON(ctx, "/income-statement/"+ticker, map[string][]string{
		"limit": {"1"},
	}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("fmp: no income statement for %s", ticker)
	}

	ai := &models.AIMetrics{RDExpense: rows[0].RDExpense}
	if rows[0].RDExpense != nil && rows[0].Revenue != nil && *rows[0].Revenue != 0 {
		ai.RDToRevenue = models.Float(*rows[0].RDExpense / *rows[0].Revenue)
	}
	return ai, nil
}

type newsRow struct {
	Title         string `json:"title"`
	PublishedDate string `json:"publishedDate"`
	Site          string `json:"site"`
	URL           string `json:"url"`
}

// News fetches recent stock news for a ticker.
func (c *Client) News(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	var rows []newsRow
	if err := c.getJSON(ctx, "/stock_news", map[string][]string{
		"tickers": {ticker},
		"limit":   {fmt.Sprintf("%d", limit)},
	}, &rows); err != nil {
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(rows))
	for _, r := range rows {
		item := models.NewsItem{Title: r.Title, Link: r.URL, Source: r.Site}
		if t, err := time.Parse("2006-01-02 15:04:05", r.PublishedDate); err == nil {
			item.Published = t
		}
		items = append(items, item)
	}
	return items, nil
}

type filingRow struct {
	Type      string `json:"type"`
	FilledAt  string `json:"fillingDate"`
	FinalLink string `json:"finalLink"`
}

// Filings returns the form types of recent SEC filings, used as keyword
// material when counting AI mentions.
func (c *Client) Filings(ctx context.Context, ticker string, limit int) ([]string, error) {
	var rows []filingRow
	if err := c.getJSON(ctx, "/sec_filings/"+ticker, map[string][]string{
		"limit": {fmt.Sprintf("%d", limit)},
	}, &rows); err != nil {
		return nil, err
	}
	types := make([]string, 0, len(rows))
	for _, r := range rows {
		types = append(types, r.Type)
	}
	return types, nil
}

var (
	_ domsvc.MarketDataProvider   = (*Client)(nil)
	_ domsvc.FundamentalsProvider = (*Client)(nil)
	_ domsvc.NewsProvider         = (*Client)(nil)
	_ domsvc.FilingsProvider      = (*Client)(nil)
)
