package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"stockpulse/internal/domain/models"
	drepo "stockpulse/internal/domain/repository"
	mid "stockpulse/internal/middleware"
	"stockpulse/pkg/logger"
)

// StreamSession is one streaming execution: it consumes live ticks from the
// market stream and forwards them to the trade sink in small batches.
type StreamSession struct {
	name      string
	startedBy string

	stream  drepo.MarketStream
	sink    drepo.TradeSink
	pipe    *mid.TradePipeline
	metrics drepo.Metrics
	logger  *logger.Logger

	batchSize  int
	flushEvery time.Duration

	mu        sync.Mutex
	pending   []*models.Trade
	state     models.SessionState
	startedAt time.Time
	stoppedAt *time.Time
	trades    atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewStreamSession creates a session in the STOPPED state. Start launches it.
func NewStreamSession(
	name, startedBy string,
	stream drepo.MarketStream,
	sink drepo.TradeSink,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	batchSize int,
	flushEvery time.Duration,
	pipeOpts ...mid.PipelineOption,
) *StreamSession {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushEvery <= 0 {
		flushEvery = time.Second
	}
	s := &StreamSession{
		name:       name,
		startedBy:  startedBy,
		stream:     stream,
		sink:       sink,
		metrics:    metrics,
		logger:     lgr,
		batchSize:  batchSize,
		flushEvery: flushEvery,
		state:      models.SessionStopped,
		done:       make(chan struct{}),
	}
	s.pipe = mid.NewTradePipeline(batcherProc{s}, metrics, pipeOpts...)
	return s
}

// batcherProc adapts the session's enqueue to the pipeline downstream.
type batcherProc struct{ s *StreamSession }

func (b batcherProc) Process(ctx context.Context, t *models.Trade) error {
	return b.s.enqueue(ctx, t)
}

// Start connects, subscribes, and launches the consume and flush loops.
func (s *StreamSession) Start(ctx context.Context) error {
	if err := s.stream.Connect(ctx); err != nil {
		s.setState(models.SessionFailed)
		return err
	}
	if err := s.stream.Subscribe(ctx); err != nil {
		_ = s.stream.Close()
		s.setState(models.SessionFailed)
		return err
	}

	// The session outlives the caller: an admin request context must not
	// tear down the consume loop once the handler returns.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.cancel = cancel
	s.state = models.SessionRunning
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.pipe.Start(runCtx)
	trCh, errCh := s.stream.Read(runCtx)
	go s.run(runCtx, trCh, errCh)

	s.logger.Info("session started",
		logger.String("session", s.name),
		logger.String("started_by", s.startedBy))
	return nil
}

func (s *StreamSession) run(ctx context.Context, trCh <-chan *models.Trade, errCh <-chan error) {
	defer close(s.done)
	ticker := time.NewTicker(s.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flush(context.Background())
			return
		case <-ticker.C:
			s.flush(ctx)
		case err := <-errCh:
			if err == nil {
				continue
			}
			s.metrics.RecordError("stream")
			s.logger.Warn("stream error, reconnecting",
				logger.String("session", s.name), logger.Error(err))
			if rerr := s.stream.Reconnect(ctx); rerr != nil {
				s.logger.Error("reconnect failed",
					logger.String("session", s.name), logger.Error(rerr))
				s.setState(models.SessionFailed)
				return
			}
			trCh, errCh = s.stream.Read(ctx)
		case t := <-trCh:
			if t == nil {
				continue
			}
			_ = s.pipe.Process(ctx, t)
			s.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

// enqueue buffers one tick and flushes when the batch is full.
func (s *StreamSession) enqueue(ctx context.Context, t *models.Trade) error {
	s.mu.Lock()
	s.pending = append(s.pending, t)
	full := len(s.pending) >= s.batchSize
	s.mu.Unlock()
	if full {
		s.flush(ctx)
	}
	return nil
}

// flush publishes the pending batch. A sink failure drops the batch after
// logging; the next ticks start a fresh one.
func (s *StreamSession) flush(ctx context.Context) {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	if err := s.sink.PublishTrades(ctx, batch); err != nil {
		s.metrics.RecordError("trade_publish")
		s.logger.Error("trade batch publish failed",
			logger.String("session", s.name),
			logger.Int("batch", len(batch)),
			logger.Error(err))
		return
	}
	s.trades.Add(uint64(len(batch)))
	for _, t := range batch {
		s.metrics.RecordMessageSent("kafka", t.Symbol)
	}
}

// Stop cancels the loops, drains the final batch, and closes the stream.
// It also cleans up sessions whose consume loop already exited on failure.
func (s *StreamSession) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	stoppable := cancel != nil && s.stoppedAt == nil
	s.mu.Unlock()
	if !stoppable {
		return nil
	}

	cancel()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
	case <-ctx.Done():
	}
	s.pipe.Stop()
	err := s.stream.Close()

	now := time.Now()
	s.mu.Lock()
	if s.state == models.SessionRunning {
		s.state = models.SessionStopped
	}
	s.stoppedAt = &now
	s.mu.Unlock()

	s.logger.Info("session stopped",
		logger.String("session", s.name),
		logger.Int("trades", int(s.trades.Load())))
	return err
}

func (s *StreamSession) setState(st models.SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Snapshot returns the session's current externally visible state.
func (s *StreamSession) Snapshot() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Session{
		Name:      s.name,
		State:     s.state,
		StartedBy: s.startedBy,
		StartedAt: s.startedAt,
		StoppedAt: s.stoppedAt,
		Trades:    s.trades.Load(),
	}
}

// Name returns the session name.
func (s *StreamSession) Name() string { return s.name }
