// Package resolver maps free-text asset queries to canonical market
// identifiers and classifies the instrument kind from the identifier shape.
package resolver

import (
	"strings"

	"github.com/prostockhq/prostock/pkg/models"
)

// DefaultAliases maps common asset names (English and Korean) to their
// canonical market identifiers.
var DefaultAliases = map[string]string{
	"BITCOIN": "BTC-USD", "BTC": "BTC-USD", "ETHEREUM": "ETH-USD", "ETH": "ETH-USD",
	"SOLANA": "SOL-USD", "XRP": "XRP-USD", "GOLD": "GC=F", "SILVER": "SI=F",
	"OIL": "CL=F", "USD/KRW": "KRW=X", "APPLE": "AAPL", "TESLA": "TSLA",
	"NVIDIA": "NVDA", "GOOGLE": "GOOGL", "AMAZON": "AMZN", "SAMSUNG": "005930.KS",
	"DISNEY": "DIS", "KOSPI": "^KS11", "KOSDAQ": "^KQ11",
	"비트코인": "BTC-USD", "이더리움": "ETH-USD", "리플": "XRP-USD", "솔라나": "SOL-USD",
	"삼성전자": "005930.KS", "삼성": "005930.KS", "애플": "AAPL", "테슬라": "TSLA",
	"엔비디아": "NVDA", "금": "GC=F", "원유": "CL=F", "환율": "KRW=X",
	"원달러": "KRW=X", "코스피": "^KS11", "코스닥": "^KQ11",
}

// Resolver resolves user queries against an injected alias table.
// Resolution is pure and total: unknown queries pass through normalized.
type Resolver struct {
	aliases map[string]string
}

// New creates a resolver with the given alias table.
// A nil table falls back to DefaultAliases.
func New(aliases map[string]string) *Resolver {
	if aliases == nil {
		aliases = DefaultAliases
	}
	return &Resolver{aliases: aliases}
}

// Resolve maps a free-text query to an instrument. It never fails; queries
// absent from the alias table are treated as literal identifier guesses.
func (r *Resolver) Resolve(query string) models.Instrument {
	id := strings.ToUpper(strings.TrimSpace(query))
	if canonical, ok := r.aliases[id]; ok {
		id = canonical
	}
	return models.Instrument{ID: id, Class: Classify(id)}
}

// Classify derives the instrument class from identifier suffix conventions.
func Classify(id string) models.InstrumentClass {
	switch {
	case strings.HasSuffix(id, "=X"):
		return models.ClassCurrency
	case strings.HasSuffix(id, "=F"):
		return models.ClassCommodity
	case strings.HasSuffix(id, "-USD"):
		return models.ClassCrypto
	case strings.HasPrefix(id, "^"):
		return models.ClassIndex
	default:
		return models.ClassEquity
	}
}
