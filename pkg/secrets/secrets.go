package secrets

import (
	"context"
	"errors"
	"os"
	"strings"
)

// Manager provides access to secrets from various sources
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)

	// GetSecretWithDefault retrieves a secret with a default value if not found
	GetSecretWithDefault(ctx context.Context, key, defaultValue string) string
}

// ErrSecretNotFound is returned when a secret is not present in any source
var ErrSecretNotFound = errors.New("secret not found")

// EnvManager resolves secrets from environment variables only. It is the
// default when Vault is not configured.
type EnvManager struct{}

// NewEnvManager creates an environment-backed secrets manager
func NewEnvManager() *EnvManager {
	return &EnvManager{}
}

// GetSecret retrieves a secret from the environment. Keys are normalized to
// uppercase with underscores (e.g. "jwt-secret" reads JWT_SECRET).
func (m *EnvManager) GetSecret(_ context.Context, key string) (string, error) {
	value := os.Getenv(envKey(key))
	if value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}

// GetSecretWithDefault retrieves a secret with a default value if not found
func (m *EnvManager) GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		return defaultValue
	}
	return value
}

func envKey(key string) string {
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, ".", "_")
	return strings.ToUpper(key)
}
