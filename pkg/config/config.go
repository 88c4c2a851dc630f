package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultSymbols tracks the large caps watched when no symbol list is
// configured.
var DefaultSymbols = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA", "META", "NVDA", "NFLX"}

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`

	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`

	Market struct {
		Timezone     string `yaml:"timezone" default:"America/New_York" validate:"required"`
		OpenTime     string `yaml:"open_time" default:"09:30" validate:"required"`
		CloseTime    string `yaml:"close_time" default:"16:00" validate:"required"`
		EnforceHours bool   `yaml:"enforce_hours" default:"true"`
		TestMode     bool   `yaml:"test_mode"`
	} `yaml:"market"`

	Symbols []string `yaml:"symbols"`

	Finnhub struct {
		BaseURL              string        `yaml:"base_url" default:"https://finnhub.io/api/v1" validate:"url"`
		WebSocketURL         string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		APIKey               string        `yaml:"api_key"`
		Timeout              time.Duration `yaml:"timeout" default:"10s"`
		ReconnectDelay       time.Duration `yaml:"reconnect_delay" default:"3s"`
		PingInterval         time.Duration `yaml:"ping_interval" default:"20s"`
		MaxRequestsPerMinute int           `yaml:"max_requests_per_minute" default:"60" validate:"gte=1"`
	} `yaml:"finnhub"`

	Secrets struct {
		UseStore    bool   `yaml:"use_store" default:"true"`
		SecretName  string `yaml:"secret_name" default:"finnhub-api-key"`
		EnvFallback string `yaml:"env_fallback" default:"FINNHUB_API_KEY"`
		Redis       struct {
			Addr      string `yaml:"addr" default:"localhost:6379"`
			Password  string `yaml:"password"`
			DB        int    `yaml:"db"`
			KeyPrefix string `yaml:"key_prefix" default:"secrets"`
		} `yaml:"redis"`
	} `yaml:"secrets"`

	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"stock-prices-stream"`
		TradesTopic  string   `yaml:"trades_topic" default:"stock-trades-stream"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`

	Archive struct {
		Enabled    bool `yaml:"enabled"`
		ClickHouse struct {
			Host         string        `yaml:"host" default:"localhost"`
			Port         int           `yaml:"port" default:"9000"`
			Database     string        `yaml:"database" default:"stockpulse"`
			Table        string        `yaml:"table" default:"quotes"`
			User         string        `yaml:"user" default:"default"`
			Password     string        `yaml:"password"`
			DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"clickhouse"`
	} `yaml:"archive"`

	Controller struct {
		AdminURL      string        `yaml:"admin_url" default:"http://localhost:8080" validate:"url"`
		Timeout       time.Duration `yaml:"timeout" default:"10s"`
		TriggerSource string        `yaml:"trigger_source" default:"scheduled"`
		Lock          struct {
			Enabled bool          `yaml:"enabled"`
			Key     string        `yaml:"key" default:"market-controller"`
			TTL     time.Duration `yaml:"ttl" default:"55s"`
		} `yaml:"lock"`
	} `yaml:"controller"`

	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, applies defaults, and
// validates it.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(c.Symbols) == 0 {
		c.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Boolean-typed env values are parsed once, here; nothing past
// this layer ever sees a string-typed flag.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("STOCK_SYMBOLS"); v != "" {
		c.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("SECRET_NAME"); v != "" {
		c.Secrets.SecretName = v
	}
	if v := os.Getenv("SECRETS_REDIS_ADDR"); v != "" {
		c.Secrets.Redis.Addr = v
	}
	if v := os.Getenv("CONTROLLER_ADMIN_URL"); v != "" {
		c.Controller.AdminURL = v
	}
	if v := os.Getenv("TRIGGER_SOURCE"); v != "" {
		c.Controller.TriggerSource = v
	}
	if v, ok := lookupBool("ENFORCE_MARKET_HOURS"); ok {
		c.Market.EnforceHours = v
	}
	if v, ok := lookupBool("TEST_MODE"); ok {
		c.Market.TestMode = v
	}
	if v, ok := lookupBool("USE_SECRET_STORE"); ok {
		c.Secrets.UseStore = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks struct tags plus the cross-field rules the tags cannot
// express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols cannot be empty")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("market.timezone: %w", err)
	}
	open, err := time.Parse("15:04", c.Market.OpenTime)
	if err != nil {
		return fmt.Errorf("market.open_time: %w", err)
	}
	close_, err := time.Parse("15:04", c.Market.CloseTime)
	if err != nil {
		return fmt.Errorf("market.close_time: %w", err)
	}
	if !open.Before(close_) {
		return fmt.Errorf("market.open_time %s must precede close_time %s", c.Market.OpenTime, c.Market.CloseTime)
	}
	return nil
}

// ParseBool accepts the loose truthy spellings used in deployment
// environments: true/1/yes/on (any case) are true, everything else false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

func lookupBool(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return false, false
	}
	return ParseBool(v), true
}

func splitSymbols(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
