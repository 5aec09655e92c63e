package clientcli

import (
	"context"
	"fmt"

	"eddisonso.com/file-vault/internal/config"
	vault "eddisonso.com/file-vault/pkg/vault-sdk"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

// newTokenStore builds the configured credential store. The returned func
// releases its resources.
func newTokenStore(ctx context.Context, cfg *config.Config) (vault.TokenStore, func(), error) {
	switch cfg.TokenStore {
	case config.StoreMemory:
		return vault.NewMemoryStore(), func() {}, nil
	case config.StoreRedis:
		client, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return vault.NewRedisStore(client, cfg.RedisPrefix), func() { client.Close() }, nil
	default:
		return vault.NewFileStore(afero.NewOsFs(), cfg.TokenPath), func() {}, nil
	}
}

func connectRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}
