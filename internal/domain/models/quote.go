package models

import (
	"fmt"
	"time"
)

// Quote is the raw Finnhub /quote payload for one symbol.
type Quote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Valid reports whether the vendor returned a usable quote. Finnhub answers
// 200 with zeroed fields for unknown symbols, so presence of a positive
// current price is the validity signal.
func (q *Quote) Valid() bool {
	return q != nil && q.Current > 0
}

// StockRecord is the record published onto the stream, one per symbol.
type StockRecord struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent string  `json:"change_percent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previous_close"`
	Timestamp     string  `json:"timestamp"`
}

// RecordFromQuote derives the publishable record from a raw quote. Missing
// auxiliary fields fall back to the current price; change is recomputed from
// current vs previous close rather than trusting the vendor's delta.
func RecordFromQuote(symbol string, q *Quote, at time.Time) *StockRecord {
	prev := q.PreviousClose
	if prev == 0 {
		prev = q.Current
	}

	change := q.Current - prev
	var changePct float64
	if prev > 0 {
		changePct = change / prev * 100
	}

	orDefault := func(v float64) float64 {
		if v == 0 {
			return q.Current
		}
		return v
	}

	return &StockRecord{
		Symbol:        symbol,
		Price:         q.Current,
		Change:        change,
		ChangePercent: fmt.Sprintf("%.2f", changePct),
		High:          orDefault(q.High),
		Low:           orDefault(q.Low),
		Open:          orDefault(q.Open),
		PreviousClose: prev,
		Timestamp:     at.UTC().Format(time.RFC3339),
	}
}
