package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"tasklist/internal/logger"
)

// Имена драйверов database/sql
const (
	DriverSQLite   = "sqlite"  // modernc.org/sqlite, без CGO
	DriverSQLite3  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type dialect struct {
	createTable string
	selectValue string
	upsert      string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		createTable: `CREATE TABLE IF NOT EXISTS app_storage (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		selectValue: `SELECT value FROM app_storage WHERE name = ?`,
		upsert: `INSERT INTO app_storage (name, value) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
	},
	DriverPostgres: {
		createTable: `CREATE TABLE IF NOT EXISTS app_storage (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		selectValue: `SELECT value FROM app_storage WHERE name = $1`,
		upsert: `INSERT INTO app_storage (name, value) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`,
	},
	DriverMySQL: {
		createTable: `CREATE TABLE IF NOT EXISTS app_storage (
			name VARCHAR(191) PRIMARY KEY,
			value LONGTEXT NOT NULL
		)`,
		selectValue: `SELECT value FROM app_storage WHERE name = ?`,
		upsert: `INSERT INTO app_storage (name, value) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE value = VALUES(value)`,
	},
}

func init() {
	dialects[DriverSQLite3] = dialects[DriverSQLite]
}

// SQLStorage - хранилище ключ/значение в одной таблице БД
type SQLStorage struct {
	db      *sql.DB
	dialect dialect
}

func NewSQLStorage(driver, dsn string) (*SQLStorage, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("неподдерживаемый драйвер БД %q", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("не указана строка подключения к БД")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if _, err := db.Exec(d.createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания таблицы app_storage: %w", err)
	}

	logger.Info(context.Background(), "Хранилище БД инициализировано", "driver", driver)
	return &SQLStorage{db: db, dialect: d}, nil
}

func (s *SQLStorage) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(s.dialect.selectValue, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLStorage) Set(key, value string) error {
	if _, err := s.db.Exec(s.dialect.upsert, key, value); err != nil {
		return fmt.Errorf("ошибка записи ключа %s: %w", key, err)
	}
	return nil
}

// Закрытие соединения
func (s *SQLStorage) Close() error {
	return s.db.Close()
}
