package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aicompass/internal/app/compass/config"
	"aicompass/internal/app/compass/handler"
	"aicompass/internal/app/compass/infrastructure/llm"
	"aicompass/internal/app/compass/infrastructure/messaging"
	"aicompass/internal/app/compass/processor"
	"aicompass/internal/app/compass/repository"
	"aicompass/internal/app/compass/service"
	"aicompass/internal/app/compass/util"
	"aicompass/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Init("compass", logLevel)

	logstashAddr := os.Getenv("LOGSTASH_ADDR")
	if logstashAddr != "" {
		if err := logger.InitLogstash(logstashAddr, "compass", logLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", logstashAddr).Msg("Connected to Logstash")
		}
	}

	mongoClient, err := connectMongoDB(cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}()
	logger.Info().
		Str("database", cfg.MongoDB.Database).
		Msg("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB.Database)

	// Redis кеширует список инструментов; без него сервис продолжает работать
	var redisClient *util.RedisClient
	redisClient, err = util.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CatalogCacheTTL)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to Redis, tool list caching disabled")
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info().Str("addr", cfg.Redis.Address()).Msg("Connected to Redis")
	}

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().
		Str("topic", cfg.Kafka.Topic).
		Msg("Initialized Kafka producer")

	llmClient := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.TimeoutSec)

	productRepo := repository.NewProductRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	profileRepo := repository.NewUserProfileRepository(db)
	rateLimitRepo := repository.NewRateLimitRepository(db)

	catalogService := service.NewCatalogService(productRepo, reviewRepo, redisClient)
	userService := service.NewUserService(profileRepo)
	rateLimitService := service.NewRateLimitService(rateLimitRepo, cfg.RateLimit.Window, cfg.RateLimit.MaxSubmissions)
	moderationService := service.NewModerationService(llmClient)
	summaryService := service.NewSummaryService(productRepo, reviewRepo, llmClient)
	submissionService := service.NewSubmissionService(
		productRepo,
		reviewRepo,
		userService,
		rateLimitService,
		moderationService,
		summaryService,
		kafkaProducer,
		catalogService,
	)

	reconciler := processor.NewSummaryReconciler(productRepo, reviewRepo, summaryService)
	if cfg.Summary.ReconcileSchedule != "" {
		if err := reconciler.Start(context.Background(), cfg.Summary.ReconcileSchedule); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start summary reconciler")
		}
		defer reconciler.Stop()
	}

	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	toolHandler := handler.NewToolHandler(catalogService)
	reviewHandler := handler.NewReviewHandler(submissionService)
	summaryHandler := handler.NewSummaryHandler(summaryService)
	verifyHandler := handler.NewVerifyHandler(userService)
	router := handler.SetupRoutes(toolHandler, reviewHandler, summaryHandler, verifyHandler, authMiddleware)

	server := &http.Server{
		Addr:    cfg.Server.Address(),
		Handler: router,
		// Write timeout с запасом: ответ на отправку отзыва включает
		// round-trip к LLM за сводкой
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("Starting AI Compass Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down AI Compass Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("AI Compass Service stopped gracefully")
}

func connectMongoDB(cfg config.MongoDBConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var client *mongo.Client
	var err error

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err = mongo.Connect(ctx, clientOptions)
		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pingCancel()

			if err = client.Ping(pingCtx, nil); err == nil {
				return client, nil
			}
		}

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to MongoDB, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}
