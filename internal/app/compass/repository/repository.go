package repository

import (
	"context"

	"aicompass/internal/app/compass/entity"
)

// ProductRepository определяет методы для работы с инструментами в MongoDB
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetAll(ctx context.Context) ([]entity.Product, error)
	IncrementReviewCount(ctx context.Context, id string) error
	UpdateSummary(ctx context.Context, id string, summary string, themes []string, reviewCount int) error
}

// ReviewRepository определяет методы для работы с отзывами в MongoDB
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByProductID(ctx context.Context, productID string, includeUnsafe bool) ([]entity.Review, error)
}

// UserProfileRepository определяет методы для работы с профилями пользователей
type UserProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.UserProfile, error)
	Upsert(ctx context.Context, profile *entity.UserProfile) error
}

// RateLimitRepository определяет методы для записей скользящего окна отправок
type RateLimitRepository interface {
	Get(ctx context.Context, userID string) (*entity.RateLimitRecord, error)
	Upsert(ctx context.Context, record *entity.RateLimitRecord) error
}
