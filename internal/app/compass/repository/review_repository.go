package repository

import (
	"context"
	"fmt"
	"time"

	"aicompass/internal/app/compass/entity"
	"aicompass/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает новый репозиторий отзывов
// Автоматически создает индексы по product_id и user_id для быстрой выборки
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	collection := db.Collection("reviews")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "product_id", Value: 1},
		},
		Options: options.Index().SetName("product_id_idx"),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		// Логируем ошибку, но не прерываем работу - индекс может уже существовать
		fmt.Printf("Warning: failed to create index on product_id: %v\n", err)
	}

	userIndexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
		},
		Options: options.Index().SetName("user_id_idx"),
	}

	_, err = collection.Indexes().CreateOne(ctx, userIndexModel)
	if err != nil {
		fmt.Printf("Warning: failed to create index on user_id: %v\n", err)
	}

	return &reviewRepository{
		collection: collection,
	}
}

// Create создает новый отзыв
// Отзывы неизменяемы: путей edit/delete в приложении нет
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpInsert, "reviews")
	_, err := r.collection.InsertOne(ctx, review)
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpInsert)
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetByProductID получает отзывы по ID инструмента
// По умолчанию задержанные модерацией отзывы (safe=false) исключаются;
// includeUnsafe=true возвращает их тоже
func (r *reviewRepository) GetByProductID(ctx context.Context, productID string, includeUnsafe bool) ([]entity.Review, error) {
	filter := bson.M{"product_id": productID}
	if !includeUnsafe {
		filter["safe"] = bson.M{"$ne": false}
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "reviews")
	cursor, err := r.collection.Find(ctx, filter, opts)
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []entity.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}
