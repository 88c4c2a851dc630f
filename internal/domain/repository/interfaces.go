package repository

import (
	"context"
	"errors"
	"time"

	"stockpulse/internal/domain/models"
)

// ErrSecretNotFound reports that a secret exists nowhere the source looked.
var ErrSecretNotFound = errors.New("secret not found")

// QuoteSource fetches a point-in-time quote for one symbol.
type QuoteSource interface {
	Fetch(ctx context.Context, symbol string) (*models.Quote, error)
}

// PublishReport summarizes one batch publish. Failed counts records the
// stream rejected; the batch as a whole still succeeded.
type PublishReport struct {
	Published int
	Failed    int
}

// Publisher puts stock records onto the streaming pipeline, partitioned by
// symbol.
type Publisher interface {
	PublishBatch(ctx context.Context, records []*models.StockRecord) (PublishReport, error)
	Close() error
}

// Archive persists published records for later analysis.
type Archive interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, records []*models.StockRecord) error
	Health(ctx context.Context) error
	Close() error
}

// SecretSource resolves a named secret. Absence is ErrSecretNotFound, not a
// transport error.
type SecretSource interface {
	Get(ctx context.Context, name string) (string, error)
}

// MarketStream is a live tick feed for the streaming sessions.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Trade, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// TradeSink receives session trades, one batch at a time.
type TradeSink interface {
	PublishTrades(ctx context.Context, trades []*models.Trade) error
	Close() error
}

// SessionControl drives the remote streaming workflow: list what is running,
// start one execution, stop one execution.
type SessionControl interface {
	ListRunning(ctx context.Context) ([]models.Session, error)
	Start(ctx context.Context, name, startedBy string) error
	Stop(ctx context.Context, name string) error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordQuote(symbol string)
	RecordMessageSent(backend, symbol string)
	RecordPublishFailures(n int)
	RecordGateDecision(reason string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}

// Clock abstracts "now" for invocation stamps.
type Clock func() time.Time
