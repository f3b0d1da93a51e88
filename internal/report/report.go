// Package report composes the analytics outputs into a deterministic
// executive-summary text artifact. Reports are transient, regenerated per
// request, never persisted.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/prostockhq/prostock/pkg/models"
	"github.com/prostockhq/prostock/pkg/utils"
)

// Fixed technical thresholds.
const (
	OverboughtRSI = 70.0
	OversoldRSI   = 30.0
)

// Input carries everything the composer needs. Undefined indicator values
// are NaN and render as degraded placeholders instead of blocking the rest
// of the report.
type Input struct {
	Ticker    string
	Price     float64
	SMA       float64
	RSI       float64
	FearGreed models.FearGreedResult
	NewsLabel string
}

// Compose renders the three-section executive summary: market sentiment,
// news tone, and technicals.
func Compose(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### 🧠 AI Executive Summary for %s\n\n", in.Ticker)
	fmt.Fprintf(&b, "**1. Market Sentiment:** %s (%d/100).\n", in.FearGreed.Label, in.FearGreed.Score)

	newsLabel := in.NewsLabel
	if newsLabel == "" {
		newsLabel = "Neutral"
	}
	fmt.Fprintf(&b, "**2. News Analysis:** %s sentiment detected.\n", newsLabel)

	fmt.Fprintf(&b, "**3. Technicals:** %s trend, RSI is %s.", trendState(in.Price, in.SMA), rsiState(in.RSI))

	return b.String()
}

func trendState(price, sma float64) string {
	if math.IsNaN(sma) || price == 0 {
		return "Unavailable"
	}
	if price > sma {
		return "Bullish 🟢"
	}
	return "Bearish 🔴"
}

func rsiState(rsi float64) string {
	switch {
	case math.IsNaN(rsi):
		return "Unavailable (insufficient data)"
	case rsi > OverboughtRSI:
		return "Overbought ⚠️"
	case rsi < OversoldRSI:
		return "Oversold 🛒"
	default:
		return "Neutral ⚖️"
	}
}

// Snapshot renders a terminal-friendly quote block used by the CLI.
func Snapshot(info *models.InstrumentInfo, price, changePct float64, fg models.FearGreedResult) string {
	var b strings.Builder

	name := info.Ticker
	if info.Name != "" {
		name = fmt.Sprintf("%s (%s)", info.Name, info.Ticker)
	}

	b.WriteString("═══════════════════════════════════════\n")
	fmt.Fprintf(&b, "  %s\n", name)
	b.WriteString("═══════════════════════════════════════\n")
	fmt.Fprintf(&b, "  Price:       %s (%s)\n", utils.FormatPrice(price), utils.FormatPct(changePct))
	if info.MarketCap > 0 {
		fmt.Fprintf(&b, "  Market Cap:  %s\n", utils.FormatCompact(info.MarketCap))
	}
	fmt.Fprintf(&b, "  Fear/Greed:  %d (%s)\n", fg.Score, fg.Label)
	b.WriteString("═══════════════════════════════════════")

	return b.String()
}
