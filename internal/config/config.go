package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Generation GenerationConfig
	Practice   PracticeConfig
	Log        LogConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
	// AllowedOrigins: список origin для CORS. Пустой список означает запрет кросс-доменных запросов.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// MigrationsPath: путь к SQL-миграциям в формате golang-migrate
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// GenerationConfig содержит настройки генерации вопросов через LLM
type GenerationConfig struct {
	// Provider: "openai" или "template" (только локальные шаблоны)
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// MaxTokens: ограничение длины ответа модели
	MaxTokens int `mapstructure:"max_tokens"`
}

// PracticeConfig содержит настройки подбора вопросов
type PracticeConfig struct {
	// SessionWindow: "memory" (один инстанс) или "redis" (несколько инстансов)
	SessionWindow     string        `mapstructure:"session_window"`
	SessionWindowSize int           `mapstructure:"session_window_size"`
	SessionWindowTTL  time.Duration `mapstructure:"session_window_ttl"`
	// HistoryDays: глубина исторического окна исключений по теме
	HistoryDays int `mapstructure:"history_days"`
	// HistoryLimit: сколько последних показов студента исключать независимо от темы
	HistoryLimit int `mapstructure:"history_limit"`
	// RateLimitPerMinute: лимит запросов /next на студента
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

// LogConfig содержит настройки логгера
type LogConfig struct {
	// Mode: "production" (JSON) или "development"
	Mode string `mapstructure:"mode"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// MigrationsURL возвращает source URL для golang-migrate
func (d *DatabaseConfig) MigrationsURL() string {
	return "file://" + d.MigrationsPath
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 30)

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrations_path", "migrations")

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("generation.provider", "openai")
	vip.SetDefault("generation.model", "gpt-4o-mini")
	vip.SetDefault("generation.timeout", 20*time.Second)
	vip.SetDefault("generation.max_tokens", 1200)

	vip.SetDefault("practice.session_window", "memory")
	vip.SetDefault("practice.session_window_size", 15)
	vip.SetDefault("practice.session_window_ttl", 2*time.Hour)
	vip.SetDefault("practice.history_days", 14)
	vip.SetDefault("practice.history_limit", 100)
	vip.SetDefault("practice.rate_limit_per_minute", 30)

	vip.SetDefault("log.mode", "development")
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	// .env подхватывается, если есть; уже выставленные переменные не перезаписываются
	_ = godotenv.Load()

	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	setDefaults(vip)

	// 2. Привязываем переменные окружения ЯВНО
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.migrations_path", "DATABASE_MIGRATIONS_PATH")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("generation.provider", "GENERATION_PROVIDER")
	vip.BindEnv("generation.api_key", "OPENAI_API_KEY")
	vip.BindEnv("generation.base_url", "OPENAI_BASE_URL")
	vip.BindEnv("generation.model", "OPENAI_MODEL")

	vip.BindEnv("practice.session_window", "PRACTICE_SESSION_WINDOW")

	vip.BindEnv("log.mode", "LOG_MODE")

	// 3. Файл конфигурации необязателен, env уже привязаны
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим конфигурацию (Viper объединит значения из файла и привязанных env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}

	switch c.Practice.SessionWindow {
	case "memory":
	case "redis":
		if len(c.Redis.Addrs) == 0 && c.Redis.Addr == "" {
			return fmt.Errorf("practice.session_window=redis requires redis addr (check REDIS_ADDR env var)")
		}
	default:
		return fmt.Errorf("unsupported practice.session_window: %q", c.Practice.SessionWindow)
	}

	switch c.Generation.Provider {
	case "template":
	case "openai":
		if c.Generation.APIKey == "" {
			log.Println("Warning: OPENAI_API_KEY is not set, question generation will use local templates only.")
		}
	default:
		return fmt.Errorf("unsupported generation.provider: %q", c.Generation.Provider)
	}

	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation.timeout must be positive")
	}
	if c.Practice.SessionWindowSize <= 0 {
		return fmt.Errorf("practice.session_window_size must be positive")
	}
	return nil
}

// UseRedis сообщает, нужен ли приложению Redis
func (c *Config) UseRedis() bool {
	return len(c.Redis.Addrs) > 0 || c.Redis.Addr != ""
}
