package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Game     GameConfig
	Email    EmailConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	// Настройки пула соединений
	PoolSize              int `mapstructure:"pool_size"`               // По умолчанию 5
	PoolRecycleSeconds    int `mapstructure:"pool_recycle_seconds"`    // По умолчанию 1800
	ConnectTimeoutSeconds int `mapstructure:"connect_timeout_seconds"` // По умолчанию 10
}

// RedisConfig содержит настройки подключения к Redis (rate limiting)
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// GameConfig содержит настройки игрового движка
type GameConfig struct {
	// PresenceTTLSeconds: окно присутствия после heartbeat. По умолчанию 15.
	PresenceTTLSeconds int `mapstructure:"presence_ttl_seconds"`

	// TicketTTLSeconds: время жизни билета на подписку. По умолчанию 60.
	TicketTTLSeconds int `mapstructure:"ticket_ttl_seconds"`

	// DefaultQuestionTimeLimit: лимит времени на вопрос без явного лимита. По умолчанию 30.
	DefaultQuestionTimeLimit int `mapstructure:"default_question_time_limit"`

	// PointsFor: очки за сложность. По умолчанию EASY=1, MEDIUM=2, HARD=3.
	PointsFor map[string]int `mapstructure:"points_for"`

	// JoinAsReady: считать присоединившегося сразу готовым.
	// Исторически поведение менялось между "JOINED, затем READY" и
	// "сразу READY"; текущий вариант по умолчанию — сразу READY.
	JoinAsReady bool `mapstructure:"join_as_ready"`

	// EventBufferSize: ёмкость канала подписчика событий. По умолчанию 64.
	EventBufferSize int `mapstructure:"event_buffer_size"`
}

// EmailConfig содержит настройки отправки писем через Resend
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	FromAddress  string `mapstructure:"from_address"`
	Enabled      bool   `mapstructure:"enabled"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode, d.ConnectTimeoutSeconds,
	)
}

// PresenceTTL возвращает окно присутствия как Duration
func (g *GameConfig) PresenceTTL() time.Duration {
	return time.Duration(g.PresenceTTLSeconds) * time.Second
}

// TicketTTL возвращает время жизни билета как Duration
func (g *GameConfig) TicketTTL() time.Duration {
	return time.Duration(g.TicketTTLSeconds) * time.Second
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 10)
	vip.SetDefault("server.write_timeout", 10)
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.pool_size", 5)
	vip.SetDefault("database.pool_recycle_seconds", 1800)
	vip.SetDefault("database.connect_timeout_seconds", 10)
	vip.SetDefault("jwt.expirationHrs", 24)
	vip.SetDefault("game.presence_ttl_seconds", 15)
	vip.SetDefault("game.ticket_ttl_seconds", 60)
	vip.SetDefault("game.default_question_time_limit", 30)
	vip.SetDefault("game.points_for", map[string]int{"EASY": 1, "MEDIUM": 2, "HARD": 3})
	vip.SetDefault("game.join_as_ready", true)
	vip.SetDefault("game.event_buffer_size", 64)

	// 2. Привязываем переменные окружения ЯВНО
	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.pool_size", "DB_POOL_SIZE")
	vip.BindEnv("database.pool_recycle_seconds", "DB_POOL_RECYCLE_SECONDS")
	vip.BindEnv("database.connect_timeout_seconds", "DB_CONNECT_TIMEOUT_SECONDS")

	// Привязка для секции Redis
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")

	// Привязка для секции JWT
	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	// Привязка для игровых настроек
	vip.BindEnv("game.presence_ttl_seconds", "PRESENCE_TTL_SECONDS")
	vip.BindEnv("game.ticket_ttl_seconds", "TICKET_TTL_SECONDS")
	vip.BindEnv("game.default_question_time_limit", "DEFAULT_QUESTION_TIME_LIMIT")
	vip.BindEnv("game.join_as_ready", "GAME_JOIN_AS_READY")
	vip.BindEnv("game.event_buffer_size", "GAME_EVENT_BUFFER_SIZE")

	// Привязка для Email
	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from_address", "EMAIL_FROM_ADDRESS")
	vip.BindEnv("email.enabled", "EMAIL_ENABLED")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")

	// 3. Пытаемся прочитать файл конфигурации (не страшно, если его нет, т.к. есть BindEnv)
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
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

	// 5. Логирование конфигурации (только не в release режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Database Pool Size: %d", cfg.Database.PoolSize)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Presence TTL: %ds", cfg.Game.PresenceTTLSeconds)
		log.Printf("Ticket TTL: %ds", cfg.Game.TicketTTLSeconds)
		log.Printf("Email Enabled: %t", cfg.Email.Enabled)
		log.Printf("-----------------------------------------")
	}

	// 6. Проверка обязательных параметров
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Email.Enabled && cfg.Email.ResendAPIKey == "" {
		return nil, fmt.Errorf("email sending is enabled but RESEND_API_KEY is not set")
	}

	return &cfg, nil
}
