package secrets

import (
	"context"
	"errors"
	"testing"

	drepo "stockpulse/internal/domain/repository"
	"stockpulse/pkg/logger"
)

func TestExtractAPIKeyPlainString(t *testing.T) {
	v, field := extractAPIKey("sk-plain-value")
	if v != "sk-plain-value" || field != "" {
		t.Fatalf("got (%q, %q)", v, field)
	}
}

func TestExtractAPIKeyJSONFields(t *testing.T) {
	cases := []struct {
		raw   string
		value string
		field string
	}{
		{`{"api_key":"k1"}`, "k1", "api_key"},
		{`{"apikey":"k2"}`, "k2", "apikey"},
		{`{"key":"k3"}`, "k3", "key"},
		{`{"token":"k4"}`, "k4", "token"},
		{`{"finnhub_api_key":"k5"}`, "k5", "finnhub_api_key"},
		// First conventional field wins.
		{`{"token":"t","api_key":"a"}`, "a", "api_key"},
	}
	for _, tc := range cases {
		v, field := extractAPIKey(tc.raw)
		if v != tc.value || field != tc.field {
			t.Errorf("extractAPIKey(%s) = (%q, %q), want (%q, %q)", tc.raw, v, field, tc.value, tc.field)
		}
	}
}

func TestExtractAPIKeyJSONWithoutKnownField(t *testing.T) {
	raw := `{"unrelated":"x"}`
	v, field := extractAPIKey(raw)
	if v != raw || field != "" {
		t.Fatalf("got (%q, %q), want whole document", v, field)
	}
}

type stubSource struct {
	value string
	err   error
}

func (s stubSource) Get(context.Context, string) (string, error) { return s.value, s.err }

func TestResolveFromStore(t *testing.T) {
	got, err := Resolve(context.Background(), stubSource{value: "from-store"}, "finnhub-api-key", "FINNHUB_API_KEY", logger.Nop())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "from-store" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveFallsBackToEnv(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "from-env")
	src := stubSource{err: drepo.ErrSecretNotFound}
	got, err := Resolve(context.Background(), src, "finnhub-api-key", "FINNHUB_API_KEY", logger.Nop())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveNotFoundAnywhere(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "")
	src := stubSource{err: drepo.ErrSecretNotFound}
	_, err := Resolve(context.Background(), src, "finnhub-api-key", "FINNHUB_API_KEY", logger.Nop())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, drepo.ErrSecretNotFound) {
		t.Fatalf("err = %v, want ErrSecretNotFound", err)
	}
}

func TestEnvStore(t *testing.T) {
	t.Setenv("SOME_SECRET", "v")
	var src EnvStore
	got, err := src.Get(context.Background(), "SOME_SECRET")
	if err != nil || got != "v" {
		t.Fatalf("got (%q, %v)", got, err)
	}
	if _, err := src.Get(context.Background(), "MISSING_SECRET_VAR"); !errors.Is(err, drepo.ErrSecretNotFound) {
		t.Fatalf("err = %v, want ErrSecretNotFound", err)
	}
}
