package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
// Пример запроса PromQL: rate(http_requests_total{service="compass"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests in seconds",
		// Ответ на POST /tools/:id/reviews включает round-trip к LLM, поэтому бакеты до 30s
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// MongoDB Метрики
// =============================================================================

// MongoOperationDuration - время выполнения операций MongoDB
var MongoOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mongo_operation_duration_seconds",
		Help:    "Duration of MongoDB operations in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "collection"},
)

// MongoErrors - счётчик ошибок MongoDB
var MongoErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mongo_errors_total",
		Help: "Total number of MongoDB errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

// RedisCacheHits - попадания в кеш
var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

// RedisCacheMisses - промахи кеша
var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaProduceDuration - время отправки сообщения
var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// LLM Метрики (moderation + chat completion)
// =============================================================================

// LlmRequestDuration - время запросов к LLM провайдеру
// operation: moderation, completion
var LlmRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Duration of LLM provider requests in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
	[]string{"service", "operation"},
)

// LlmErrors - ошибки LLM провайдера
var LlmErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "llm_errors_total",
		Help: "Total number of LLM provider errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Business Метрики (специфичные для AI Compass)
// =============================================================================

// ReviewsSubmitted - результаты прохождения пайплайна отправки отзыва
// status: published, held, rejected_validation, rejected_access, rejected_rate_limit, failed
var ReviewsSubmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_submitted_total",
		Help: "Total number of review submissions by outcome",
	},
	[]string{"status"},
)

// ReviewsRating - распределение оценок опубликованных отзывов
var ReviewsRating = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "reviews_rating",
		Help:    "Distribution of published review ratings",
		Buckets: []float64{1, 2, 3, 4, 5},
	},
)

// ModerationFlagged - отзывы, помеченные модерацией
var ModerationFlagged = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "moderation_flagged_total",
		Help: "Total number of reviews flagged by content moderation",
	},
)

// RateLimitRejections - отклонения по rate limit
var RateLimitRejections = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "rate_limit_rejections_total",
		Help: "Total number of submissions rejected by the rate limiter",
	},
)

// SummariesGenerated - сгенерированные AI-сводки
// trigger: inline, on_demand, reconciler; status: success, failed
var SummariesGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "summaries_generated_total",
		Help: "Total number of AI summary generations",
	},
	[]string{"trigger", "status"},
)

// SummaryCacheHits - сводки, отданные из кеша по совпадению review_count
var SummaryCacheHits = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "summary_cache_hits_total",
		Help: "Total number of summaries served from the stored copy",
	},
)

// UsersVerified - профили, прошедшие edu-верификацию
var UsersVerified = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "users_verified_total",
		Help: "Total number of edu-verified user profiles",
	},
	[]string{"role"},
)
