package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	quotesFetched   *prometheus.CounterVec
	messagesSent    *prometheus.CounterVec
	publishFailures prometheus.Counter
	gateDecisions   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		quotesFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_quotes_fetched_total",
				Help: "Total quotes fetched from the market-data API",
			},
			[]string{"symbol"},
		),
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_messages_sent_total",
				Help: "Total records sent to a backend",
			},
			[]string{"backend", "symbol"},
		),
		publishFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stockpulse_publish_failures_total",
				Help: "Total records rejected by the stream",
			},
		),
		gateDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_market_gate_decisions_total",
				Help: "Market-hours gate outcomes per invocation",
			},
			[]string{"reason"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordQuote(symbol string) {
	r.quotesFetched.WithLabelValues(symbol).Inc()
}

func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

func (r *Recorder) RecordPublishFailures(n int) {
	r.publishFailures.Add(float64(n))
}

func (r *Recorder) RecordGateDecision(reason string) {
	r.gateDecisions.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
