package database

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig contém as configurações para conexão com o Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisConfigFromEnv cria a configuração a partir de variáveis de ambiente
func NewRedisConfigFromEnv() *RedisConfig {
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return &RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}
}

// Enabled informa se há Redis configurado; sem ele a aplicação usa as
// alternativas em memória
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// NewRedisClient cria o cliente Redis e confirma que o servidor responde
func NewRedisClient(ctx context.Context, cfg *RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}

	return client, nil
}
