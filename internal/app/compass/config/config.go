package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	OpenAI    OpenAIConfig
	RateLimit RateLimitConfig
	Summary   SummaryConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8080)
}

type MongoDBConfig struct {
	URI      string // URI подключения к MongoDB
	Database string // Имя базы данных
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// TTL кеша списка инструментов
	CatalogCacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string // Список брокеров Kafka (формат: host:port)
	Topic   string   // Топик для событий REVIEW_PUBLISHED / REVIEW_HELD
}

type JWTConfig struct {
	Secret string // Секретный ключ для проверки токенов identity-провайдера
}

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // Базовый URL OpenAI-совместимого API
	Model      string // Модель для chat completion
	TimeoutSec int
}

type RateLimitConfig struct {
	Window         time.Duration // Скользящее окно (по умолчанию 5 минут)
	MaxSubmissions int           // Лимит отправок в окне (по умолчанию 3)
}

type SummaryConfig struct {
	// Cron-расписание фоновой сверки сводок; пустая строка отключает
	ReconcileSchedule string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "ai_compass"),
		},
		Redis: RedisConfig{
			Host:            getEnv("REDIS_HOST", "localhost"),
			Port:            getEnv("REDIS_PORT", "6379"),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              getEnvInt("REDIS_DB", 0),
			CatalogCacheTTL: time.Duration(getEnvInt("CATALOG_CACHE_TTL_SEC", 60)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "review_events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		OpenAI: OpenAIConfig{
			APIKey:     getEnv("OPENAI_API_KEY", ""),
			BaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			Model:      getEnv("OPENAI_MODEL", "gpt-4.1-nano"),
			TimeoutSec: getEnvInt("OPENAI_TIMEOUT_SEC", 30),
		},
		RateLimit: RateLimitConfig{
			Window:         time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SEC", 300)) * time.Second,
			MaxSubmissions: getEnvInt("RATE_LIMIT_MAX_SUBMISSIONS", 3),
		},
		Summary: SummaryConfig{
			ReconcileSchedule: getEnv("SUMMARY_RECONCILE_SCHEDULE", "@every 10m"),
		},
	}, nil
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
