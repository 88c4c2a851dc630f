package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"stockpulse/internal/domain/models"
	drepo "stockpulse/internal/domain/repository"
	"stockpulse/internal/markethours"
	"stockpulse/pkg/logger"
)

type fakeSource struct {
	quotes map[string]*models.Quote
	errs   map[string]error
}

func (f *fakeSource) Fetch(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	if q, ok := f.quotes[symbol]; ok {
		return q, nil
	}
	return &models.Quote{}, nil
}

type fakePublisher struct {
	batches [][]*models.StockRecord
	report  drepo.PublishReport
	err     error
}

func (f *fakePublisher) PublishBatch(ctx context.Context, records []*models.StockRecord) (drepo.PublishReport, error) {
	f.batches = append(f.batches, records)
	if f.err != nil {
		return drepo.PublishReport{}, f.err
	}
	if f.report == (drepo.PublishReport{}) {
		return drepo.PublishReport{Published: len(records)}, nil
	}
	return f.report, nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeArchive struct {
	stored int
	err    error
}

func (f *fakeArchive) Init(ctx context.Context) error { return nil }
func (f *fakeArchive) StoreBatch(ctx context.Context, records []*models.StockRecord) error {
	if f.err != nil {
		return f.err
	}
	f.stored += len(records)
	return nil
}
func (f *fakeArchive) Health(ctx context.Context) error { return nil }
func (f *fakeArchive) Close() error                     { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordQuote(string)             {}
func (nopMetrics) RecordMessageSent(_, _ string)  {}
func (nopMetrics) RecordPublishFailures(int)      {}
func (nopMetrics) RecordGateDecision(string)      {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)  {}
func (nopMetrics) RecordError(string)             {}

func testOracle() *markethours.Oracle {
	cal, err := markethours.NewUSCalendar()
	if err != nil {
		panic(err)
	}
	return markethours.NewOracle(cal)
}

func marketTime(hour, min int) func() time.Time {
	loc, _ := time.LoadLocation("America/New_York")
	// Tuesday 2025-07-08, a regular trading day
	return func() time.Time {
		return time.Date(2025, 7, 8, hour, min, 0, 0, loc)
	}
}

func newProducer(src drepo.QuoteSource, pub drepo.Publisher, arch drepo.Archive, symbols []string, enforce, testMode bool, now func() time.Time) *QuoteProducer {
	return NewQuoteProducer(
		testOracle(), src, pub, arch, nopMetrics{}, logger.Nop(),
		symbols, enforce, testMode,
	).WithClock(now)
}

func TestProducerSkipsWhenMarketClosed(t *testing.T) {
	pub := &fakePublisher{}
	p := newProducer(&fakeSource{}, pub, nil, []string{"AAPL"}, true, false, marketTime(8, 0))

	res := p.Run(context.Background())
	if res.StatusCode != 200 {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if !strings.HasPrefix(res.Message, "Execution skipped:") {
		t.Fatalf("message = %q", res.Message)
	}
	if res.MarketStatus != "closed" {
		t.Fatalf("market status = %q", res.MarketStatus)
	}
	if len(pub.batches) != 0 {
		t.Fatalf("published while closed")
	}
}

func TestProducerPublishesDuringMarketHours(t *testing.T) {
	src := &fakeSource{quotes: map[string]*models.Quote{
		"AAPL": {Current: 210.5, PreviousClose: 208.0, Timestamp: 1751975400},
		"MSFT": {Current: 470.1, PreviousClose: 469.0, Timestamp: 1751975400},
	}}
	pub := &fakePublisher{}
	arch := &fakeArchive{}
	p := newProducer(src, pub, arch, []string{"AAPL", "MSFT"}, true, false, marketTime(10, 0))

	res := p.Run(context.Background())
	if res.StatusCode != 200 {
		t.Fatalf("status = %d (%s)", res.StatusCode, res.Error)
	}
	if res.RecordsProcessed != 2 {
		t.Fatalf("records = %d", res.RecordsProcessed)
	}
	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("unexpected batches %v", pub.batches)
	}
	if arch.stored != 2 {
		t.Fatalf("archived = %d", arch.stored)
	}
}

func TestProducerTestModeBypassesGate(t *testing.T) {
	src := &fakeSource{quotes: map[string]*models.Quote{
		"AAPL": {Current: 210.5, PreviousClose: 208.0},
	}}
	pub := &fakePublisher{}
	// Saturday midnight would normally be gated
	loc, _ := time.LoadLocation("America/New_York")
	now := func() time.Time { return time.Date(2025, 7, 12, 0, 0, 0, 0, loc) }
	p := newProducer(src, pub, nil, []string{"AAPL"}, true, true, now)

	res := p.Run(context.Background())
	if res.RecordsProcessed != 1 {
		t.Fatalf("records = %d", res.RecordsProcessed)
	}
	if !res.TestMode {
		t.Fatalf("expected test_mode flag")
	}
}

func TestProducerToleratesPerSymbolFailures(t *testing.T) {
	src := &fakeSource{
		quotes: map[string]*models.Quote{
			"AAPL": {Current: 210.5, PreviousClose: 208.0},
			"GOOG": {}, // zeroed quote, invalid
		},
		errs: map[string]error{"MSFT": errors.New("rate limited")},
	}
	pub := &fakePublisher{}
	p := newProducer(src, pub, nil, []string{"AAPL", "MSFT", "GOOG"}, false, false, marketTime(10, 0))

	res := p.Run(context.Background())
	if res.StatusCode != 200 {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if res.RecordsProcessed != 1 {
		t.Fatalf("records = %d", res.RecordsProcessed)
	}
}

func TestProducerZeroRecordsIsSuccess(t *testing.T) {
	src := &fakeSource{errs: map[string]error{"AAPL": errors.New("down")}}
	pub := &fakePublisher{}
	p := newProducer(src, pub, nil, []string{"AAPL"}, false, false, marketTime(10, 0))

	res := p.Run(context.Background())
	if res.StatusCode != 200 {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if res.RecordsProcessed != 0 {
		t.Fatalf("records = %d", res.RecordsProcessed)
	}
	if len(pub.batches) != 0 {
		t.Fatalf("published empty batch")
	}
}

func TestProducerWholeBatchFailure(t *testing.T) {
	src := &fakeSource{quotes: map[string]*models.Quote{
		"AAPL": {Current: 210.5, PreviousClose: 208.0},
	}}
	pub := &fakePublisher{err: errors.New("brokers unreachable")}
	p := newProducer(src, pub, nil, []string{"AAPL"}, false, false, marketTime(10, 0))

	res := p.Run(context.Background())
	if res.StatusCode != 500 {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if res.Error == "" {
		t.Fatalf("expected error detail")
	}
}

func TestProducerPartialRejectionStillSucceeds(t *testing.T) {
	src := &fakeSource{quotes: map[string]*models.Quote{
		"AAPL": {Current: 210.5, PreviousClose: 208.0},
		"MSFT": {Current: 470.1, PreviousClose: 469.0},
	}}
	pub := &fakePublisher{report: drepo.PublishReport{Published: 1, Failed: 1}}
	p := newProducer(src, pub, nil, []string{"AAPL", "MSFT"}, false, false, marketTime(10, 0))

	res := p.Run(context.Background())
	if res.StatusCode != 200 {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if res.RecordsProcessed != 2 {
		t.Fatalf("records = %d", res.RecordsProcessed)
	}
}

func TestProducerArchiveFailureIsBestEffort(t *testing.T) {
	src := &fakeSource{quotes: map[string]*models.Quote{
		"AAPL": {Current: 210.5, PreviousClose: 208.0},
	}}
	pub := &fakePublisher{}
	arch := &fakeArchive{err: errors.New("clickhouse down")}
	p := newProducer(src, pub, arch, []string{"AAPL"}, false, false, marketTime(10, 0))

	res := p.Run(context.Background())
	if res.StatusCode != 200 {
		t.Fatalf("status = %d", res.StatusCode)
	}
}
