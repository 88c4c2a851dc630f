package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockpulse/internal/domain/models"
	drepo "stockpulse/internal/domain/repository"
)

// TradeProc is the downstream a pipeline feeds.
type TradeProc interface {
	Process(ctx context.Context, t *models.Trade) error
}

// TradePipeline sits between the market stream and the trade sink. It
// validates ticks, throttles per symbol, and buffers when the downstream
// is unavailable so a Kafka hiccup does not kill the session.
type TradePipeline struct {
	proc    TradeProc
	metrics drepo.Metrics

	maxPerSec int
	bufCh     chan *models.Trade
	stopCh    chan struct{}

	mu       sync.Mutex
	started  bool
	lastSeen map[string]time.Time
}

type PipelineOption func(*TradePipeline)

// WithMaxPerSecond caps accepted ticks per symbol per second. Zero
// disables throttling.
func WithMaxPerSecond(n int) PipelineOption {
	return func(p *TradePipeline) { p.maxPerSec = n }
}

// WithBufferSize sets the retry buffer capacity.
func WithBufferSize(n int) PipelineOption {
	return func(p *TradePipeline) {
		if n > 0 {
			p.bufCh = make(chan *models.Trade, n)
		}
	}
}

// NewTradePipeline creates a pipeline in front of proc.
func NewTradePipeline(proc TradeProc, metrics drepo.Metrics, opts ...PipelineOption) *TradePipeline {
	p := &TradePipeline{
		proc:      proc,
		metrics:   metrics,
		maxPerSec: 20,
		bufCh:     make(chan *models.Trade, 1000),
		stopCh:    make(chan struct{}),
		lastSeen:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the background retry flusher.
func (p *TradePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.flushLoop(ctx)
}

// Stop halts the retry flusher. Buffered trades are abandoned.
func (p *TradePipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
}

func (p *TradePipeline) flushLoop(ctx context.Context) {
	backoff := 50 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case t := <-p.bufCh:
			if t == nil {
				continue
			}
			if err := p.proc.Process(ctx, t); err != nil {
				if backoff < 2*time.Second {
					backoff *= 2
				}
				p.metrics.RecordError("pipeline_flush")
				time.Sleep(backoff)
				select {
				case p.bufCh <- t:
				default:
					p.metrics.RecordError("pipeline_buffer_drop")
				}
				continue
			}
			backoff = 50 * time.Millisecond
		}
	}
}

// Process validates and throttles one tick, then forwards it downstream,
// buffering it for the flush loop when the downstream rejects it.
func (p *TradePipeline) Process(ctx context.Context, t *models.Trade) error {
	start := time.Now()
	if err := validateTrade(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(t.Symbol, start) {
		// throttled; drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, t); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- t:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateTrade(t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade nil")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if t.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if t.Price < 0 || t.Volume < 0 {
		return fmt.Errorf("negative price/volume")
	}
	return nil
}

func (p *TradePipeline) allow(symbol string, now time.Time) bool {
	if p.maxPerSec <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(p.maxPerSec) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
