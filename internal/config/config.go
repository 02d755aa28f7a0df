package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	ServerPort     string        `env:"SERVER_PORT"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Redis struct {
		RedisURL string `env:"REDIS_URL,required"`
		// TTL кеша списка пользователей. В разных окружениях значение
		// варьируется, поэтому оно конфигурируемое, а не зашитое.
		UsersCacheTTL time.Duration `env:"USERS_CACHE_TTL" envDefault:"30m"`
	}

	RabbitMQ struct {
		RabbitMQURL   string `env:"RABBITMQ_URL,required"`
		RabbitMQTopic string `env:"RABBITMQ_TOPIC" envDefault:"users-topic"`
		RabbitMQGroup string `env:"RABBITMQ_GROUP" envDefault:"our-group"`
	}
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	// Значения по умолчанию для полей без envDefault
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	return &cfg, nil
}
