package repository

import (
	"context"
	"errors"
	"fmt"

	"aicompass/internal/app/compass/entity"
	"aicompass/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrRateLimitRecordNotFound = errors.New("rate limit record not found")
)

type rateLimitRepository struct {
	collection *mongo.Collection
}

// NewRateLimitRepository создает новый репозиторий записей rate limit
func NewRateLimitRepository(db *mongo.Database) RateLimitRepository {
	return &rateLimitRepository{
		collection: db.Collection("rate_limits"),
	}
}

// Get получает запись скользящего окна пользователя
func (r *rateLimitRepository) Get(ctx context.Context, userID string) (*entity.RateLimitRecord, error) {
	filter := bson.M{"_id": userID}

	var record entity.RateLimitRecord
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRateLimitRecordNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to get rate limit record: %w", err)
	}

	return &record, nil
}

// Upsert сохраняет отфильтрованный список таймстемпов и его длину
func (r *rateLimitRepository) Upsert(ctx context.Context, record *entity.RateLimitRecord) error {
	filter := bson.M{"_id": record.UserID}
	update := bson.M{
		"$set": bson.M{
			"submissions": record.Submissions,
			"count":       record.Count,
		},
	}
	opts := options.Update().SetUpsert(true)

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpsert, "rate_limits")
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpsert)
		return fmt.Errorf("failed to upsert rate limit record: %w", err)
	}

	return nil
}
