package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	appName    = "todo-app"
	configFile = "config.json"
)

type Storage struct {
	// memory | file | sqlite | sqlite3 | postgres | mysql
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
	// Каталог для драйвера file
	Dir string `json:"dir"`
}

type Config struct {
	Storage  Storage `json:"storage"`
	HTTPAddr string  `json:"http_addr"`
	LogLevel string  `json:"log_level"`

	TelegramToken  string `json:"telegram_token"`
	TelegramChatID int64  `json:"telegram_chat_id"`
}

func Default() *Config {
	return &Config{
		Storage: Storage{
			Driver: "sqlite",
			DSN:    "./data/todoapp.db",
			Dir:    "./data",
		},
		HTTPAddr: ":8080",
		LogLevel: "info",
	}
}

// DefaultPath - ~/.config/todo-app/config.json
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, configFile), nil
}

// Load читает .env, затем файл конфигурации (если есть), затем переменные окружения.
// Пустой path - путь по умолчанию.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	if path == "" {
		if p := os.Getenv("TODO_CONFIG"); p != "" {
			path = p
		} else {
			p, err := DefaultPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
	}

	cfg := Default()
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Storage.Driver, "TODO_STORAGE_DRIVER")
	setString(&c.Storage.DSN, "TODO_STORAGE_DSN")
	setString(&c.Storage.Dir, "TODO_DATA_DIR")
	setString(&c.HTTPAddr, "TODO_HTTP_ADDR")
	setString(&c.LogLevel, "TODO_LOG_LEVEL")
	setString(&c.TelegramToken, "TODO_TELEGRAM_TOKEN")

	if v := os.Getenv("TODO_TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("неверный TODO_TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	return nil
}

// StorageTarget - строка подключения для выбранного драйвера
func (s Storage) StorageTarget() string {
	if s.Driver == "file" {
		return s.Dir
	}
	return s.DSN
}

// Save записывает конфигурацию с отступами
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("ошибка создания каталога конфигурации: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла конфигурации: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
