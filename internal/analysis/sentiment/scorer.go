// Package sentiment scores headline polarity with a keyword lexicon and
// aggregates a set of headlines into a tri-state label. The aggregate label
// follows the mean polarity, not a majority vote of per-headline labels;
// the counts are informational.
package sentiment

import (
	"strings"

	"github.com/prostockhq/prostock/pkg/models"
)

// Classification thresholds on polarity, fixed.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Weighted keyword lexicons (lowercase). Multi-word phrases are matched as
// substrings, so "record high" scores even inside longer headlines.
var positiveWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "soar": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"gain": 0.4, "strong": 0.4, "recovery": 0.5, "rebound": 0.5,
	"breakout": 0.6, "record high": 0.7, "all-time high": 0.7, "beat": 0.5,
	"exceeds": 0.5, "expansion": 0.4, "profit": 0.3, "dividend": 0.3,
	"optimism": 0.5, "jump": 0.5,
}

var negativeWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6, "tumble": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6, "drop": 0.4,
	"weak": 0.4, "decline": 0.5, "loss": 0.4, "selloff": 0.7, "fall": 0.4,
	"correction": 0.5, "default": 0.7, "fraud": 0.8, "recession": 0.6,
	"fear": 0.5, "miss": 0.5, "warning": 0.5, "concern": 0.3, "slide": 0.5,
	"cut": 0.3,
}

// Polarity scores a single headline in [-1, 1]. Headlines matching no
// lexicon entry score zero.
func Polarity(headline string) float64 {
	lower := strings.ToLower(headline)

	sum := 0.0
	matches := 0
	for word, weight := range positiveWords {
		if strings.Contains(lower, word) {
			sum += weight
			matches++
		}
	}
	for word, weight := range negativeWords {
		if strings.Contains(lower, word) {
			sum -= weight
			matches++
		}
	}

	if matches == 0 {
		return 0
	}
	p := sum / float64(matches)
	if p > 1 {
		p = 1
	} else if p < -1 {
		p = -1
	}
	return p
}

// Score classifies each headline and aggregates the set. Empty input yields
// a Neutral result with zero counts.
func Score(headlines []string) models.SentimentResult {
	if len(headlines) == 0 {
		return models.SentimentResult{Label: "Neutral"}
	}

	var res models.SentimentResult
	sum := 0.0
	for _, h := range headlines {
		p := Polarity(h)
		sum += p
		switch {
		case p > PositiveThreshold:
			res.Positive++
		case p < NegativeThreshold:
			res.Negative++
		default:
			res.Neutral++
		}
	}

	res.Mean = sum / float64(len(headlines))
	res.Label = labelFor(res.Mean)
	return res
}

// ScoreRecords extracts titles from heterogeneous news records and scores
// them. Records yielding no title are skipped entirely rather than counted
// as Neutral.
func ScoreRecords(records []map[string]any) models.SentimentResult {
	var headlines []string
	for _, rec := range records {
		if title, ok := ExtractTitle(rec); ok {
			headlines = append(headlines, title)
		}
	}
	return Score(headlines)
}

func labelFor(mean float64) string {
	switch {
	case mean > PositiveThreshold:
		return "Positive"
	case mean < NegativeThreshold:
		return "Negative"
	default:
		return "Neutral"
	}
}
