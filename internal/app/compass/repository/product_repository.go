package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aicompass/internal/app/compass/entity"
	"aicompass/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product already exists")
)

const serviceName = "compass"

type productRepository struct {
	collection *mongo.Collection
}

// NewProductRepository создает новый репозиторий инструментов
func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{
		collection: db.Collection("products"),
	}
}

// Create создает новый инструмент
// _id задается сервисом (нормализованное имя), поэтому дубликат - ошибка
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpInsert, "products")
	_, err := r.collection.InsertOne(ctx, product)
	timer.ObserveDuration()
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrProductAlreadyExists
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpInsert)
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// GetByID получает инструмент по ID
func (r *productRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	filter := bson.M{"_id": id}

	var product entity.Product
	err := r.collection.FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// GetAll получает все инструменты каталога
func (r *productRepository) GetAll(ctx context.Context) ([]entity.Product, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "products")
	cursor, err := r.collection.Find(ctx, bson.M{})
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []entity.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, nil
}

// IncrementReviewCount атомарно увеличивает счетчик отзывов
// Сам $inc атомарен; гонка read-then-regenerate выше по стеку допускается дизайном
func (r *productRepository) IncrementReviewCount(ctx context.Context, id string) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$inc": bson.M{"review_count": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpdate, "products")
	result, err := r.collection.UpdateOne(ctx, filter, update)
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpdate)
		return fmt.Errorf("failed to increment review count: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}

// UpdateSummary сохраняет AI-сводку вместе со счетчиком отзывов,
// по которому читатели определяют свежесть сводки
func (r *productRepository) UpdateSummary(ctx context.Context, id string, summary string, themes []string, reviewCount int) error {
	// Дополняем темы до четырех пустыми строками
	padded := make([]string, 4)
	copy(padded, themes)

	now := time.Now()
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"summary":              summary,
			"theme1":               padded[0],
			"theme2":               padded[1],
			"theme3":               padded[2],
			"theme4":               padded[3],
			"summary_review_count": reviewCount,
			"summary_updated_at":   now,
			"updated_at":           now,
		},
	}

	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpUpdate, "products")
	result, err := r.collection.UpdateOne(ctx, filter, update)
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpUpdate)
		return fmt.Errorf("failed to update summary: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}
