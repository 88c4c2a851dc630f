package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	drepo "stockpulse/internal/domain/repository"
	"stockpulse/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// apiKeyFields are the JSON field names probed, in order, when a secret
// value is a JSON object rather than a plain string.
var apiKeyFields = []string{"api_key", "apikey", "key", "token", "finnhub_api_key"}

// RedisStore resolves named secrets from a Redis key-value store.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *logger.Logger
}

// NewRedisStore creates a secret source over the given Redis client. Keys
// are namespaced under prefix.
func NewRedisStore(client *redis.Client, prefix string, lgr *logger.Logger) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, logger: lgr}
}

// Get fetches and decodes one secret. A missing key maps to
// ErrSecretNotFound; JSON-object secrets are probed for the conventional
// API-key field names and plain strings pass through unchanged.
func (s *RedisStore) Get(ctx context.Context, name string) (string, error) {
	key := name
	if s.prefix != "" {
		key = s.prefix + ":" + name
	}

	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("secret %q: %w", name, drepo.ErrSecretNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("secret %q: %w", name, err)
	}
	if raw == "" {
		return "", fmt.Errorf("secret %q is empty: %w", name, drepo.ErrSecretNotFound)
	}

	value, field := extractAPIKey(raw)
	if field != "" {
		s.logger.Info("found API key in JSON secret", logger.String("field", field))
	}
	return value, nil
}

// extractAPIKey returns the usable secret value and, when the secret was a
// JSON object, the field the value came from. Non-JSON and non-object
// secrets are returned verbatim.
func extractAPIKey(raw string) (value, field string) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return raw, ""
	}
	for _, f := range apiKeyFields {
		if v, ok := obj[f]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, f
			}
		}
	}
	// JSON object without a conventional key field: hand back the whole
	// document and let the caller decide.
	return raw, ""
}

// EnvStore resolves secrets directly from environment variables, for
// deployments without a secret store.
type EnvStore struct{}

func (EnvStore) Get(_ context.Context, name string) (string, error) {
	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("env %q: %w", name, drepo.ErrSecretNotFound)
}

// Resolve fetches the secret from the store with an environment-variable
// fallback. Only when both paths come up empty does it fail; that failure
// is a configuration error and fatal for the invocation.
func Resolve(ctx context.Context, src drepo.SecretSource, name, envVar string, lgr *logger.Logger) (string, error) {
	if src != nil {
		value, err := src.Get(ctx, name)
		if err == nil {
			return value, nil
		}
		lgr.Warn("secret store lookup failed, checking environment",
			logger.String("secret", name),
			logger.String("env", envVar),
			logger.Error(err))
	}

	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("API key not found in secret store or environment: %w", drepo.ErrSecretNotFound)
}
