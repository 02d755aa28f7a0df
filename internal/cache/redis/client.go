package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/UserApp/internal/config"
	"github.com/GoArmGo/UserApp/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Ключ, под которым лежит сериализованный снимок всех пользователей.
// Кеш намеренно грубый: одна запись на всю коллекцию, любая мутация
// сбрасывает ее целиком.
const usersKey = "users"

// Client представляет собой клиент Redis для кеширования списка пользователей
type Client struct {
	rdb    *goredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient создает и инициализирует новый Redis-клиент, используя переданную конфигурацию
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	opts, err := goredis.ParseURL(cfg.Redis.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("некорректный REDIS_URL: %w", err)
	}

	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", "ttl", cfg.Redis.UsersCacheTTL.String())

	return &Client{
		rdb:    rdb,
		ttl:    cfg.Redis.UsersCacheTTL,
		logger: logger,
	}, nil
}

// GetUsers возвращает закешированный снимок пользователей.
// При промахе возвращает (nil, nil): вызывающий код идет в бд
func (c *Client) GetUsers(ctx context.Context) ([]domain.User, error) {
	val, err := c.rdb.Get(ctx, usersKey).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении кеша пользователей: %w", err)
	}

	var users []domain.User
	if err := json.Unmarshal([]byte(val), &users); err != nil {
		return nil, fmt.Errorf("ошибка десериализации кеша пользователей: %w", err)
	}

	c.logger.Debug("users cache hit", "count", len(users))
	return users, nil
}

// SetUsers кладет снимок пользователей в кеш с настроенным TTL
func (c *Client) SetUsers(ctx context.Context, users []domain.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("ошибка сериализации пользователей для кеша: %w", err)
	}

	if err := c.rdb.Set(ctx, usersKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка при записи кеша пользователей: %w", err)
	}

	c.logger.Debug("users cache populated", "count", len(users))
	return nil
}

// Invalidate сбрасывает запись кеша целиком
func (c *Client) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, usersKey).Err(); err != nil {
		return fmt.Errorf("ошибка при инвалидации кеша пользователей: %w", err)
	}
	c.logger.Debug("users cache invalidated")
	return nil
}

// Close закрывает соединение с Redis
func (c *Client) Close() error {
	return c.rdb.Close()
}
