package di

import (
	"context"
	"fmt"
	"time"

	"stockpulse/internal/domain/repository"
	"stockpulse/internal/handler/api"
	"stockpulse/internal/markethours"
	mid "stockpulse/internal/middleware"
	internalrepo "stockpulse/internal/repository"
	"stockpulse/internal/service/finnhub"
	"stockpulse/internal/service/secrets"
	"stockpulse/internal/service/workflow"
	"stockpulse/internal/usecase"
	pkgch "stockpulse/pkg/clickhouse"
	"stockpulse/pkg/config"
	xhttp "stockpulse/pkg/http"
	pkgkafka "stockpulse/pkg/kafka"
	applogger "stockpulse/pkg/logger"
	"stockpulse/pkg/metrics"
	pkgredis "stockpulse/pkg/redis"
	"stockpulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideCalendar builds the trading calendar from configuration.
func ProvideCalendar(cfg *config.Config) (*markethours.Calendar, error) {
	loc, err := time.LoadLocation(cfg.Market.Timezone)
	if err != nil {
		return nil, fmt.Errorf("market timezone: %w", err)
	}
	open, err := markethours.ParseTimeOfDay(cfg.Market.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("market open time: %w", err)
	}
	close_, err := markethours.ParseTimeOfDay(cfg.Market.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("market close time: %w", err)
	}
	return markethours.NewCalendar(loc, markethours.Window{Open: open, Close: close_}, markethours.USMarketHolidays())
}

// ProvideOracle creates the market-hours oracle.
func ProvideOracle(cal *markethours.Calendar) *markethours.Oracle {
	return markethours.NewOracle(cal)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideAPIKey resolves the Finnhub API key from the secret store with an
// environment fallback.
func ProvideAPIKey(cfg *config.Config, lgr *applogger.Logger) (APIKey, error) {
	if cfg.Finnhub.APIKey != "" {
		return APIKey(cfg.Finnhub.APIKey), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var src repository.SecretSource
	if cfg.Secrets.UseStore {
		client, err := pkgredis.NewClient(
			pkgredis.WithAddr(cfg.Secrets.Redis.Addr),
			pkgredis.WithAuth(cfg.Secrets.Redis.Password, cfg.Secrets.Redis.DB),
		)
		if err != nil {
			lgr.Warn("secret store unavailable, falling back to environment", applogger.Error(err))
		} else {
			src = secrets.NewRedisStore(client, cfg.Secrets.Redis.KeyPrefix, lgr)
		}
	}

	key, err := secrets.Resolve(ctx, src, cfg.Secrets.SecretName, cfg.Secrets.EnvFallback, lgr)
	if err != nil {
		return "", err
	}
	return APIKey(key), nil
}

// APIKey is the resolved Finnhub token. A named type keeps wire from
// confusing it with other strings.
type APIKey string

// ProvideQuoteSource creates the Finnhub REST quote client.
func ProvideQuoteSource(cfg *config.Config, key APIKey) repository.QuoteSource {
	return finnhub.NewRestClient(
		string(key),
		cfg.Finnhub.BaseURL,
		cfg.Finnhub.Timeout,
		cfg.Finnhub.MaxRequestsPerMinute,
	)
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideQuotePublisher creates the Kafka publisher for stock records.
func ProvideQuotePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaQuotePublisher(producer, cfg.Kafka.Topic)
}

// ProvideTradeSink creates the Kafka sink for session trades.
func ProvideTradeSink(producer *pkgkafka.Producer, cfg *config.Config) repository.TradeSink {
	return internalrepo.NewKafkaTradeSink(producer, cfg.Kafka.TradesTopic)
}

// ProvideArchive creates the optional ClickHouse quote archive. Disabled
// archiving yields a nil Archive, which the producer treats as absent.
func ProvideArchive(cfg *config.Config) (repository.Archive, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}

	ch := cfg.Archive.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	archive := internalrepo.NewClickHouseArchive(client.DB(), ch.Database+"."+ch.Table)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return archive, nil
}

// ProvideQuoteProducer creates the producer use case.
func ProvideQuoteProducer(
	oracle *markethours.Oracle,
	source repository.QuoteSource,
	pub repository.Publisher,
	archive repository.Archive,
	m repository.Metrics,
	lgr *applogger.Logger,
	cfg *config.Config,
) *usecase.QuoteProducer {
	return usecase.NewQuoteProducer(
		oracle, source, pub, archive, m, lgr,
		cfg.Symbols,
		cfg.Market.EnforceHours,
		cfg.Market.TestMode,
	)
}

// ProvideSessionControl creates the HTTP client for the worker admin API.
func ProvideSessionControl(cfg *config.Config) repository.SessionControl {
	return workflow.NewHTTPControl(cfg.Controller.AdminURL, cfg.Controller.Timeout)
}

// ProvideSessionController creates the controller use case, with an
// invocation lock when one is configured.
func ProvideSessionController(
	oracle *markethours.Oracle,
	control repository.SessionControl,
	m repository.Metrics,
	lgr *applogger.Logger,
	cfg *config.Config,
) (*usecase.SessionController, error) {
	ctl := usecase.NewSessionController(oracle, control, m, lgr, cfg.Controller.TriggerSource)

	if cfg.Controller.Lock.Enabled {
		client, err := pkgredis.NewClient(
			pkgredis.WithAddr(cfg.Secrets.Redis.Addr),
			pkgredis.WithAuth(cfg.Secrets.Redis.Password, cfg.Secrets.Redis.DB),
		)
		if err != nil {
			return nil, fmt.Errorf("lock redis client: %w", err)
		}
		ctl.WithLock(workflow.NewRedisLock(client, cfg.Controller.Lock.Key, cfg.Controller.Lock.TTL))
	}
	return ctl, nil
}

// ProvideSessionManager creates the session manager with a factory that
// builds one Finnhub-backed session per start request.
func ProvideSessionManager(
	sink repository.TradeSink,
	m repository.Metrics,
	lgr *applogger.Logger,
	cfg *config.Config,
	key APIKey,
) *usecase.SessionManager {
	factory := func(name, startedBy string) *usecase.StreamSession {
		stream := finnhub.NewStream(
			string(key),
			cfg.Finnhub.WebSocketURL,
			cfg.Symbols,
			cfg.Finnhub.ReconnectDelay,
			cfg.Finnhub.PingInterval,
		)
		return usecase.NewStreamSession(
			name, startedBy, stream, sink, m, lgr,
			cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger,
			mid.WithMaxPerSecond(50),
			mid.WithBufferSize(2000),
		)
	}
	return usecase.NewSessionManager(factory, lgr)
}

// ProvideSessionsHandler creates the admin API handler.
func ProvideSessionsHandler(lgr *applogger.Logger, mgr *usecase.SessionManager) xhttp.Handler {
	return api.NewSessionsHandler(lgr, mgr)
}

// ProvideApp creates the session worker application.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	mgr *usecase.SessionManager,
	handler xhttp.Handler,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, lgr, mgr, handler, producer)
}
