package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
	"github.com/viniciussvasques/crm-innexar/pkg/env"
)

// Credentials is one integration's decrypted key-value bag.
type Credentials map[string]string

func (c Credentials) Get(key string) string {
	return c[key]
}

// Require returns the value for key or an error an admin can act on.
func (c Credentials) Require(integration consts.IntegrationType, key string) (string, error) {
	v, ok := c[key]
	if !ok || v == "" {
		return "", fmt.Errorf("integration %s is missing %s", integration, key)
	}
	return v, nil
}

// CredentialSource hands out decrypted integration credentials.
type CredentialSource interface {
	Get(ctx context.Context, integration consts.IntegrationType) (Credentials, error)
}

// CredentialStore keeps integration credentials in the database, secret
// values encrypted at rest with a key derived from INTEGRATION_SECRET_KEY.
type CredentialStore struct {
	pool *pgxpool.Pool
	key  []byte
}

var _ CredentialSource = (*CredentialStore)(nil)

func NewCredentialStore(pool *pgxpool.Pool) *CredentialStore {
	return &CredentialStore{
		pool: pool,
		key:  deriveKey(env.GetEnv("INTEGRATION_SECRET_KEY", "dev-only-secret")),
	}
}

func (s *CredentialStore) Get(ctx context.Context, integration consts.IntegrationType) (Credentials, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value, is_secret FROM integration_configs
		WHERE integration_type = $1`, integration)
	if err != nil {
		return nil, fmt.Errorf("err loading %s credentials, %v", integration, err)
	}
	defer rows.Close()

	creds := Credentials{}
	for rows.Next() {
		var cfg db.IntegrationConfig
		if err := rows.Scan(&cfg.Key, &cfg.Value, &cfg.IsSecret); err != nil {
			return nil, err
		}
		value := cfg.Value
		if cfg.IsSecret {
			value, err = decrypt(s.key, cfg.Value)
			if err != nil {
				return nil, fmt.Errorf("err decrypting %s.%s, %v", integration, cfg.Key, err)
			}
		}
		creds[cfg.Key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("integration %s is not configured", integration)
	}
	return creds, nil
}

// Put stores one credential, encrypting it when marked secret.
func (s *CredentialStore) Put(ctx context.Context, integration consts.IntegrationType, key, value string, isSecret bool) error {
	stored := value
	if isSecret {
		var err error
		stored, err = encrypt(s.key, value)
		if err != nil {
			return fmt.Errorf("err encrypting %s.%s, %v", integration, key, err)
		}
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO integration_configs(integration_type, key, value, is_secret, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (integration_type, key) DO UPDATE SET
		value = EXCLUDED.value, is_secret = EXCLUDED.is_secret, updated_at = EXCLUDED.updated_at`,
		integration, key, stored, isSecret, time.Now())
	if err != nil {
		return fmt.Errorf("err storing %s.%s, %v", integration, key, err)
	}
	return nil
}
