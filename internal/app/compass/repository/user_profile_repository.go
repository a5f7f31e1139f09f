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
	ErrProfileNotFound = errors.New("user profile not found")
)

type userProfileRepository struct {
	collection *mongo.Collection
}

// NewUserProfileRepository создает новый репозиторий профилей пользователей
func NewUserProfileRepository(db *mongo.Database) UserProfileRepository {
	return &userProfileRepository{
		collection: db.Collection("users"),
	}
}

// GetByUserID получает профиль по ID пользователя от identity-провайдера
func (r *userProfileRepository) GetByUserID(ctx context.Context, userID string) (*entity.UserProfile, error) {
	filter := bson.M{"_id": userID}

	var profile entity.UserProfile
	err := r.collection.FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return &profile, nil
}

// Upsert сохраняет профиль целиком, создавая документ при отсутствии
func (r *userProfileRepository) Upsert(ctx context.Context, profile *entity.UserProfile) error {
	filter := bson.M{"_id": profile.UserID}
	update := bson.M{
		"$set": bson.M{
			"edu_verified": profile.EduVerified,
			"verified":     profile.Verified,
			"role":         profile.Role,
			"email":        profile.Email,
			"school_email": profile.SchoolEmail,
			"updated_at":   profile.UpdatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpsert, "users")
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpsert)
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}

	return nil
}
