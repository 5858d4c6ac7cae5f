// Package redis implementa el ChallengeRepository sobre Redis para despliegues
// con varias réplicas del servicio.
package redis

import (
	"context"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Config de conexión.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prefijo de todas las keys (default "sg:")
}

// Open crea el cliente y verifica la conexión.
func Open(ctx context.Context, cfg Config) (*rdb.Client, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	client := rdb.NewClient(&rdb.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}
	return client, nil
}
