package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aicompass/internal/app/compass/entity"
	"aicompass/internal/app/compass/repository"
	"aicompass/internal/app/compass/util"
	"aicompass/pkg/logger"
)

var (
	ErrToolNotFound = errors.New("tool not found")
)

// CatalogService обрабатывает каталог AI-инструментов
// Координирует репозитории и Redis кеш списка
type CatalogService struct {
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	redisClient *util.RedisClient
}

// NewCatalogService создает новый сервис каталога с внедрением зависимостей
// redisClient может быть nil - тогда кеширование отключено
func NewCatalogService(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	redisClient *util.RedisClient,
) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		redisClient: redisClient,
	}
}

// NormalizeToolID выводит ключ документа из имени инструмента:
// нижний регистр, все пробельные символы удаляются
func NormalizeToolID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "")
}

// ListTools возвращает инструменты со средней оценкой по безопасным отзывам
// Результат кешируется в Redis; кеш сбрасывается при публикации отзыва
func (s *CatalogService) ListTools(ctx context.Context) ([]entity.ToolListItem, error) {
	if s.redisClient != nil {
		cached, err := s.redisClient.GetToolList(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to read tool list cache")
		} else if cached != nil {
			return cached, nil
		}
	}

	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	tools := make([]entity.ToolListItem, 0, len(products))
	for _, product := range products {
		reviews, err := s.reviewRepo.GetByProductID(ctx, product.ID, false)
		if err != nil {
			return nil, fmt.Errorf("failed to get reviews for tool %s: %w", product.ID, err)
		}

		tools = append(tools, entity.ToolListItem{
			ID:            product.ID,
			Name:          product.Name,
			ReviewCount:   product.ReviewCount,
			AverageRating: AverageRating(reviews),
		})
	}

	if s.redisClient != nil {
		if err := s.redisClient.SetToolList(ctx, tools); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache tool list")
		}
	}

	return tools, nil
}

// CreateTool создает инструмент с нулевым счетчиком отзывов
// Повторное создание идемпотентно: возвращается существующий документ
func (s *CatalogService) CreateTool(ctx context.Context, name string) (*entity.Product, error) {
	id := NormalizeToolID(name)

	product := &entity.Product{
		ID:   id,
		Name: name,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductAlreadyExists) {
			return s.productRepo.GetByID(ctx, id)
		}
		return nil, fmt.Errorf("failed to create tool: %w", err)
	}

	s.invalidateCache(ctx)

	return product, nil
}

// GetTool получает инструмент по ID
func (s *CatalogService) GetTool(ctx context.Context, id string) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrToolNotFound
		}
		return nil, fmt.Errorf("failed to get tool: %w", err)
	}

	return product, nil
}

// GetToolReviews получает отзывы инструмента
// includeUnsafe=false скрывает задержанные модерацией отзывы
func (s *CatalogService) GetToolReviews(ctx context.Context, toolID string, includeUnsafe bool) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.GetByProductID(ctx, toolID, includeUnsafe)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

// InvalidateToolList реализует ToolListCache для пайплайна отправки
func (s *CatalogService) InvalidateToolList(ctx context.Context) error {
	s.invalidateCache(ctx)
	return nil
}

func (s *CatalogService) invalidateCache(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.InvalidateToolList(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate tool list cache")
	}
}

// AverageRating считает среднюю оценку; 0 при отсутствии отзывов
func AverageRating(reviews []entity.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}

	sum := 0
	for _, review := range reviews {
		sum += review.Stars
	}

	return float64(sum) / float64(len(reviews))
}
