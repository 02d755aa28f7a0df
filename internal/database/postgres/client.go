package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/GoArmGo/UserApp/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Client представляет клиент для взаимодействия с PostgreSQL.
// sqlx.DB остается для golang-migrate и управления пулом,
// GORM открывается поверх того же *sql.DB
type Client struct {
	DB   *sqlx.DB
	Gorm *gorm.DB
}

// NewClient инициализирует новое подключение к PostgreSQL и применяет миграции
func NewClient(cfg *config.Config) (*Client, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия соединения с БД: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	log.Println("Успешное подключение к базе данных PostgreSQL.")

	if err := applyMigrations(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("ошибка при применении миграций: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации GORM поверх существующего соединения: %w", err)
	}

	return &Client{DB: db, Gorm: gormDB}, nil
}

// applyMigrations применяет все доступные миграции к бд
func applyMigrations(databaseURL string) error {
	m, err := migrate.New(
		"file://internal/database/postgres/migrations",
		databaseURL,
	)
	if err != nil {
		return fmt.Errorf("не удалось создать экземпляр мигратора: %w", err)
	}

	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("ошибка выполнения миграций: %w", err)
	}

	if err == migrate.ErrNoChange {
		log.Println("Миграции не требуются, база данных актуальна.")
	} else {
		log.Println("Миграции успешно применены.")
	}
	return nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}
