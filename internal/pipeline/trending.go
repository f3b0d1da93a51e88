package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prostockhq/prostock/pkg/models"
)

// Board is a named group of tickers shown on the home screen.
type Board struct {
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
}

// DefaultBoards lists the trending groups, in display order.
var DefaultBoards = []Board{
	{Name: "US Stocks", Tickers: []string{"NVDA", "TSLA", "AAPL", "005930.KS"}},
	{Name: "Korea", Tickers: []string{"^KS11", "^KQ11", "005930.KS", "000660.KS"}},
	{Name: "Crypto", Tickers: []string{"BTC-USD", "ETH-USD", "SOL-USD", "XRP-USD"}},
	{Name: "FX & Commodities", Tickers: []string{"KRW=X", "EURUSD=X", "JPY=X", "GC=F"}},
}

// BoardQuotes is one board with its live quotes filled in.
type BoardQuotes struct {
	Name   string         `json:"name"`
	Quotes []models.Quote `json:"quotes"`
}

// maxQuoteFetches bounds concurrent upstream calls during board refresh.
const maxQuoteFetches = 8

// TrendingBoards fetches live quotes for every default board concurrently.
// Tickers whose quotes cannot be fetched still appear, with zero values, so
// board shape stays stable for rendering.
func (a *Analyzer) TrendingBoards(ctx context.Context) []BoardQuotes {
	return a.Boards(ctx, DefaultBoards)
}

// Boards fetches live quotes for the given boards.
func (a *Analyzer) Boards(ctx context.Context, boards []Board) []BoardQuotes {
	out := make([]BoardQuotes, len(boards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxQuoteFetches)

	for i, board := range boards {
		out[i] = BoardQuotes{
			Name:   board.Name,
			Quotes: make([]models.Quote, len(board.Tickers)),
		}
		for j, ticker := range board.Tickers {
			i, j, ticker := i, j, ticker
			g.Go(func() error {
				out[i].Quotes[j] = a.quote(gctx, ticker)
				return nil
			})
		}
	}

	// Workers never return errors; Wait is only a join point.
	_ = g.Wait()
	return out
}

// Quote fetches one live quote for a resolved query.
func (a *Analyzer) Quote(ctx context.Context, query string) models.Quote {
	inst := a.resolver.Resolve(query)
	return a.quote(ctx, inst.ID)
}

func (a *Analyzer) quote(ctx context.Context, ticker string) models.Quote {
	price, changePct := a.market.GetLivePrice(ctx, ticker)
	info := a.market.GetInfo(ctx, ticker)

	name := ticker
	if info != nil && info.Name != "" {
		name = info.Name
	}
	return models.Quote{
		Ticker:    ticker,
		Name:      name,
		Price:     price,
		ChangePct: changePct,
		Timestamp: time.Now(),
	}
}
