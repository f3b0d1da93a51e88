package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/prostockhq/prostock/pkg/models"
)

// Yahoo implements the Provider interface using the Yahoo Finance API.
type Yahoo struct {
	limiter *RateLimiter
}

// NewYahoo creates a new Yahoo Finance provider.
func NewYahoo() *Yahoo {
	return &Yahoo{
		limiter: NewRateLimiter(5, time.Second), // 5 req/s
	}
}

// Name returns the provider name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance API types ---

type yfQuoteResponse struct {
	QuoteResponse struct {
		Result []yfQuoteResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"quoteResponse"`
}

type yfQuoteResult struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	LongName                   string  `json:"longName"`
	Currency                   string  `json:"currency"`
	FullExchangeName           string  `json:"fullExchangeName"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	MarketCap                  float64 `json:"marketCap"`
	RegularMarketTime          int64   `json:"regularMarketTime"`
}

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yfSearchResponse struct {
	News []map[string]any `json:"news"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// BaseURL is swappable for tests.
var yahooBaseURL = "https://query1.finance.yahoo.com"

// --- Provider methods ---

// FetchHistory returns price bars from the Yahoo Finance chart API. For
// daily interval with explicit bounds it uses period1/period2; everything
// else uses the range parameter.
func (y *Yahoo) FetchHistory(ctx context.Context, id, interval, period string, start, end time.Time) ([]PriceBarRow, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("interval", interval)
	if interval == "1d" && (!start.IsZero() || !end.IsZero()) {
		if !start.IsZero() {
			q.Set("period1", fmt.Sprintf("%d", start.Unix()))
		} else {
			q.Set("period1", "0")
		}
		if !end.IsZero() {
			q.Set("period2", fmt.Sprintf("%d", end.Unix()))
		} else {
			q.Set("period2", fmt.Sprintf("%d", time.Now().Unix()))
		}
	} else {
		q.Set("range", period)
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", yahooBaseURL, url.PathEscape(id), q.Encode())
	body, _, err := doGet(ctx, reqURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", id, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo chart: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, id)
	}

	return parseYahooRows(resp.Chart.Result[0]), nil
}

// FetchLiveQuote returns the current price and previous close from the
// Yahoo Finance quote API.
func (y *Yahoo) FetchLiveQuote(ctx context.Context, id string) (float64, float64, error) {
	r, err := y.fetchQuote(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	return r.RegularMarketPrice, r.RegularMarketPreviousClose, nil
}

// FetchInfo returns descriptive instrument fields.
func (y *Yahoo) FetchInfo(ctx context.Context, id string) (*models.InstrumentInfo, error) {
	r, err := y.fetchQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.InstrumentInfo{
		Ticker:    r.Symbol,
		Name:      coalesce(r.LongName, r.ShortName, r.Symbol),
		Exchange:  r.FullExchangeName,
		Currency:  r.Currency,
		MarketCap: r.MarketCap,
	}, nil
}

// FetchNews returns raw news records from the Yahoo Finance search API.
// Records are heterogeneous maps; title extraction is the caller's concern.
func (y *Yahoo) FetchNews(ctx context.Context, id string) ([]map[string]any, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/v1/finance/search?q=%s&newsCount=10&quotesCount=0", yahooBaseURL, url.QueryEscape(id))
	body, _, err := doGet(ctx, reqURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("yahoo news %s: %w", id, err)
	}
	defer body.Close()

	var resp yfSearchResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("parse yahoo news: %w", err)
	}
	return resp.News, nil
}

// --- Helpers ---

func (y *Yahoo) fetchQuote(ctx context.Context, id string) (*yfQuoteResult, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", yahooBaseURL, url.QueryEscape(id))
	body, _, err := doGet(ctx, reqURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", id, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfQuoteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yahoo quote: %w", err)
	}

	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo API error: %s", resp.QuoteResponse.Error.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, id)
	}

	return &resp.QuoteResponse.Result[0], nil
}

// parseYahooRows converts a chart result into raw rows. Missing price
// fields become NaN so downstream filtering can drop the row.
func parseYahooRows(result yfChartResult) []PriceBarRow {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	q := result.Indicators.Quote[0]
	rows := make([]PriceBarRow, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		row := PriceBarRow{
			Timestamp: time.Unix(ts, 0),
			Open:      math.NaN(),
			High:      math.NaN(),
			Low:       math.NaN(),
			Close:     math.NaN(),
		}
		if i < len(q.Open) && q.Open[i] != nil {
			row.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			row.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			row.Low = *q.Low[i]
		}
		if i < len(q.Close) && q.Close[i] != nil {
			row.Close = *q.Close[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			row.Volume = *q.Volume[i]
		}
		rows = append(rows, row)
	}
	return rows
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
