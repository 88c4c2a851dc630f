package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
environment: test
kafka:
  brokers: ["localhost:9092"]
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Market.Timezone != "America/New_York" {
		t.Errorf("timezone = %q", cfg.Market.Timezone)
	}
	if cfg.Market.OpenTime != "09:30" || cfg.Market.CloseTime != "16:00" {
		t.Errorf("window = %s-%s", cfg.Market.OpenTime, cfg.Market.CloseTime)
	}
	if !cfg.Market.EnforceHours {
		t.Error("enforce_hours should default true")
	}
	if cfg.Market.TestMode {
		t.Error("test_mode should default false")
	}
	if len(cfg.Symbols) != len(DefaultSymbols) {
		t.Errorf("symbols = %v", cfg.Symbols)
	}
	if cfg.Kafka.Topic != "stock-prices-stream" {
		t.Errorf("topic = %q", cfg.Kafka.Topic)
	}
	if cfg.Secrets.SecretName != "finnhub-api-key" {
		t.Errorf("secret name = %q", cfg.Secrets.SecretName)
	}
	if cfg.Finnhub.Timeout != 10*time.Second {
		t.Errorf("finnhub timeout = %v", cfg.Finnhub.Timeout)
	}
	if cfg.Finnhub.MaxRequestsPerMinute != 60 {
		t.Errorf("max rpm = %d", cfg.Finnhub.MaxRequestsPerMinute)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("STOCK_SYMBOLS", " aapl, msft ,tsla ")
	t.Setenv("ENFORCE_MARKET_HOURS", "off")
	t.Setenv("TEST_MODE", "YES")
	t.Setenv("KAFKA_TOPIC", "quotes-test")
	t.Setenv("FINNHUB_API_KEY", "k-123")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}

	want := []string{"AAPL", "MSFT", "TSLA"}
	if len(cfg.Symbols) != len(want) {
		t.Fatalf("symbols = %v", cfg.Symbols)
	}
	for i, s := range want {
		if cfg.Symbols[i] != s {
			t.Errorf("symbols[%d] = %q, want %q", i, cfg.Symbols[i], s)
		}
	}
	if cfg.Market.EnforceHours {
		t.Error("enforce_hours should be overridden to false")
	}
	if !cfg.Market.TestMode {
		t.Error("test_mode should be overridden to true")
	}
	if cfg.Kafka.Topic != "quotes-test" {
		t.Errorf("topic = %q", cfg.Kafka.Topic)
	}
	if cfg.Finnhub.APIKey != "k-123" {
		t.Errorf("api key = %q", cfg.Finnhub.APIKey)
	}
}

func TestValidateRejectsInvertedWindow(t *testing.T) {
	body := minimalYAML + `
market:
  open_time: "16:00"
  close_time: "09:30"
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for inverted trading window")
	}
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	body := minimalYAML + `
market:
  timezone: "Mars/Olympus_Mons"
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestParseBool(t *testing.T) {
	cases := map[string]bool{
		"true": true, "TRUE": true, "1": true, "yes": true, "on": true, " On ": true,
		"false": false, "0": false, "no": false, "off": false, "": false, "banana": false,
	}
	for in, want := range cases {
		if got := ParseBool(in); got != want {
			t.Errorf("ParseBool(%q) = %v, want %v", in, got, want)
		}
	}
}
