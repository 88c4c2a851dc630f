package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stockpulse/internal/domain/models"
	drepo "stockpulse/internal/domain/repository"
	"stockpulse/internal/markethours"
	"stockpulse/pkg/logger"
)

// QuoteProducer runs one trigger-invoked producer pass: gate on market
// hours, fetch quotes for the configured symbols, publish them onto the
// stream, and optionally archive them.
type QuoteProducer struct {
	oracle  *markethours.Oracle
	source  drepo.QuoteSource
	pub     drepo.Publisher
	archive drepo.Archive // nil when archiving is disabled
	metrics drepo.Metrics
	logger  *logger.Logger

	symbols      []string
	enforceHours bool
	testMode     bool
	now          drepo.Clock
}

// NewQuoteProducer creates the producer use case.
func NewQuoteProducer(
	oracle *markethours.Oracle,
	source drepo.QuoteSource,
	pub drepo.Publisher,
	archive drepo.Archive,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	symbols []string,
	enforceHours, testMode bool,
) *QuoteProducer {
	return &QuoteProducer{
		oracle:       oracle,
		source:       source,
		pub:          pub,
		archive:      archive,
		metrics:      metrics,
		logger:       lgr,
		symbols:      symbols,
		enforceHours: enforceHours,
		testMode:     testMode,
		now:          time.Now,
	}
}

// WithClock overrides the invocation clock, for tests.
func (p *QuoteProducer) WithClock(now drepo.Clock) *QuoteProducer {
	p.now = now
	return p
}

// Run executes one invocation and returns the result reported back to the
// trigger. The only failure outcome is a whole-batch publish error; every
// per-symbol problem is logged and skipped.
func (p *QuoteProducer) Run(ctx context.Context) *models.ProducerResult {
	stamp := models.NowStamp(p.now())

	switch {
	case p.enforceHours && !p.testMode:
		st := p.oracle.LogStatusAt(p.now(), p.logger)
		p.metrics.RecordGateDecision(string(st.Reason))
		if !st.Open {
			p.logger.Info("skipping execution", logger.String("reason", st.Detail))
			return &models.ProducerResult{
				StatusCode:    http.StatusOK,
				Message:       fmt.Sprintf("Execution skipped: %s", st.Detail),
				MarketStatus:  "closed",
				HoursEnforced: true,
				Timestamp:     stamp,
			}
		}
	case p.testMode:
		p.logger.Info("running in TEST MODE - market hours check bypassed")
		p.metrics.RecordGateDecision("test_mode")
	default:
		p.logger.Info("market hours enforcement disabled")
		p.metrics.RecordGateDecision("disabled")
	}

	p.logger.Info("fetching stock prices", logger.Int("symbols", len(p.symbols)))
	records := p.fetchAll(ctx)

	if len(records) == 0 {
		p.logger.Warn("no stock data retrieved")
		return &models.ProducerResult{
			StatusCode:    http.StatusOK,
			Message:       "Successfully processed 0 stock prices",
			HoursEnforced: p.enforceHours,
			TestMode:      p.testMode,
			Timestamp:     stamp,
		}
	}

	start := time.Now()
	report, err := p.pub.PublishBatch(ctx, records)
	p.metrics.RecordLatency("publish_batch", time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordError("publish")
		p.logger.Error("publish batch failed", logger.Error(err))
		return &models.ProducerResult{
			StatusCode:    http.StatusInternalServerError,
			Message:       "publish failed",
			HoursEnforced: p.enforceHours,
			TestMode:      p.testMode,
			Timestamp:     stamp,
			Error:         err.Error(),
		}
	}
	if report.Failed > 0 {
		// Partial rejection is logged, never escalated.
		p.metrics.RecordPublishFailures(report.Failed)
		p.logger.Warn("stream rejected some records", logger.Int("failed", report.Failed))
	}
	for _, r := range records {
		p.metrics.RecordMessageSent("kafka", r.Symbol)
	}
	p.logger.Info("published stock records",
		logger.Int("published", report.Published),
		logger.Int("failed", report.Failed))

	if p.archive != nil {
		if err := p.archive.StoreBatch(ctx, records); err != nil {
			p.metrics.RecordError("archive")
			p.logger.Error("archive store failed", logger.Error(err))
		}
	}

	return &models.ProducerResult{
		StatusCode:       http.StatusOK,
		Message:          fmt.Sprintf("Successfully processed %d stock prices", len(records)),
		RecordsProcessed: len(records),
		HoursEnforced:    p.enforceHours,
		TestMode:         p.testMode,
		Timestamp:        stamp,
	}
}

// fetchAll collects one record per symbol. A failing symbol never blocks
// the rest of the batch.
func (p *QuoteProducer) fetchAll(ctx context.Context) []*models.StockRecord {
	records := make([]*models.StockRecord, 0, len(p.symbols))
	for _, symbol := range p.symbols {
		q, err := p.source.Fetch(ctx, symbol)
		if err != nil {
			p.metrics.RecordError("fetch")
			p.logger.Error("quote fetch failed", logger.String("symbol", symbol), logger.Error(err))
			continue
		}
		if !q.Valid() {
			p.logger.Warn("no valid data for symbol", logger.String("symbol", symbol))
			continue
		}
		rec := models.RecordFromQuote(symbol, q, p.now())
		p.metrics.RecordQuote(symbol)
		p.metrics.RecordLastPrice(symbol, rec.Price)
		p.logger.Debug("fetched quote",
			logger.String("symbol", symbol),
			logger.Float64("price", rec.Price))
		records = append(records, rec)
	}
	return records
}
