// Пакет config — загрузка и валидация конфигурации Catalog Admin
// из переменных окружения (префикс CA_).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Бэкенды каталога товаров.
const (
	// BackendLocal — товары в key/value хранилище модуля.
	BackendLocal = "local"
	// BackendRemote — товары в удалённом REST API каталога.
	BackendRemote = "remote"
)

// Реализации key/value хранилища.
const (
	// StoreFile — JSON-файл на диске.
	StoreFile = "file"
	// StorePostgres — таблица kv_store в PostgreSQL.
	StorePostgres = "postgres"
)

// Config содержит все параметры конфигурации Catalog Admin.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера Admin UI
	Port int
	// Порт stub-сервера REST API каталога (cmd/catalog-stub)
	StubPort int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Аутентификация ---

	// Общий секрет: шифрование учётных данных и подпись токена (HS256).
	// Один статический ключ на весь модуль — компрометация секрета
	// позволяет подделать любой токен.
	Secret string
	// Путь к JSON-файлу учётных записей для локального входа
	AccountsFile string
	// Время жизни токенов, выпускаемых локально
	TokenTTL time.Duration
	// Secure flag для cookie сессии (true за HTTPS)
	SecureCookie bool

	// --- Каталог ---

	// Бэкенд каталога: local или remote
	Backend string
	// Базовый URL REST API каталога (для remote)
	APIURL string
	// Таймаут HTTP-запросов к REST API
	APITimeout time.Duration
	// TTL кэша remote-репозитория (0 — кэш выключен)
	RemoteCacheTTL time.Duration
	// Максимальное количество записей в кэше remote-репозитория
	RemoteCacheSize int
	// Заполнить пустой локальный каталог демо-данными при старте
	SeedDemo bool
	// Очистить локальный каталог и изображения при старте
	ResetData bool

	// --- Key/value хранилище ---

	// Реализация хранилища: file или postgres
	Store string
	// Путь к JSON-файлу хранилища (для file)
	StorePath string

	// --- PostgreSQL (для Store=postgres) ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- UI ---

	// Интервал keepalive-сообщений SSE
	SSEInterval time.Duration

	// --- topologymetrics ---

	// Группа в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	cfg.Port, err = getEnvInt("CA_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("CA_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CA_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.StubPort, err = getEnvInt("CA_STUB_PORT", 8090)
	if err != nil {
		return nil, fmt.Errorf("CA_STUB_PORT: %w", err)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CA_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CA_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("CA_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CA_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Аутентификация ---

	cfg.Secret, err = getEnvRequired("CA_SECRET")
	if err != nil {
		return nil, err
	}

	cfg.AccountsFile = getEnvDefault("CA_ACCOUNTS_FILE", "")

	cfg.TokenTTL, err = getEnvDuration("CA_TOKEN_TTL", 8*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CA_TOKEN_TTL: %w", err)
	}

	cfg.SecureCookie, err = getEnvBool("CA_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("CA_SECURE_COOKIE: %w", err)
	}

	// --- Каталог ---

	cfg.Backend = getEnvDefault("CA_BACKEND", BackendLocal)
	if cfg.Backend != BackendLocal && cfg.Backend != BackendRemote {
		return nil, fmt.Errorf("CA_BACKEND: недопустимое значение %q, допустимые: local, remote", cfg.Backend)
	}

	cfg.APIURL = strings.TrimRight(getEnvDefault("CA_API_URL", ""), "/")
	if cfg.Backend == BackendRemote && cfg.APIURL == "" {
		return nil, fmt.Errorf("CA_API_URL: обязательна для CA_BACKEND=remote")
	}

	cfg.APITimeout, err = getEnvDuration("CA_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CA_API_TIMEOUT: %w", err)
	}

	cfg.RemoteCacheTTL, err = getEnvDuration("CA_REMOTE_CACHE_TTL", 0)
	if err != nil {
		return nil, fmt.Errorf("CA_REMOTE_CACHE_TTL: %w", err)
	}

	cfg.RemoteCacheSize, err = getEnvInt("CA_REMOTE_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("CA_REMOTE_CACHE_SIZE: %w", err)
	}
	if cfg.RemoteCacheSize < 1 {
		return nil, fmt.Errorf("CA_REMOTE_CACHE_SIZE: значение %d должно быть больше 0", cfg.RemoteCacheSize)
	}

	cfg.SeedDemo, err = getEnvBool("CA_SEED_DEMO", false)
	if err != nil {
		return nil, fmt.Errorf("CA_SEED_DEMO: %w", err)
	}
	cfg.ResetData, err = getEnvBool("CA_RESET_DATA", false)
	if err != nil {
		return nil, fmt.Errorf("CA_RESET_DATA: %w", err)
	}

	// --- Key/value хранилище ---

	cfg.Store = getEnvDefault("CA_STORE", StoreFile)
	if cfg.Store != StoreFile && cfg.Store != StorePostgres {
		return nil, fmt.Errorf("CA_STORE: недопустимое значение %q, допустимые: file, postgres", cfg.Store)
	}

	cfg.StorePath = getEnvDefault("CA_STORE_PATH", "./data/catalog-store.json")

	// --- PostgreSQL ---

	if cfg.Store == StorePostgres {
		if cfg.DBHost, err = getEnvRequired("CA_DB_HOST"); err != nil {
			return nil, err
		}
		if cfg.DBName, err = getEnvRequired("CA_DB_NAME"); err != nil {
			return nil, err
		}
		if cfg.DBUser, err = getEnvRequired("CA_DB_USER"); err != nil {
			return nil, err
		}
		if cfg.DBPassword, err = getEnvRequired("CA_DB_PASSWORD"); err != nil {
			return nil, err
		}
	}

	cfg.DBPort, err = getEnvInt("CA_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("CA_DB_PORT: %w", err)
	}

	cfg.DBSSLMode = getEnvDefault("CA_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("CA_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- UI ---

	cfg.SSEInterval, err = getEnvDuration("CA_SSE_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CA_SSE_INTERVAL: %w", err)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("CA_DEPHEALTH_GROUP", "catalog")

	cfg.DephealthCheckInterval, err = getEnvDuration("CA_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CA_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("CA_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CA_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает логическое значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
