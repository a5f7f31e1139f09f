package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"aicompass/internal/app/compass/entity"
	"aicompass/internal/app/compass/infrastructure"
	"aicompass/internal/app/compass/repository"
	"aicompass/pkg/logger"
	"aicompass/pkg/metrics"

	"github.com/google/uuid"
)

var (
	ErrInvalidSubmission = errors.New("invalid submission")
)

const (
	minReviewLength = 5
	maxReviewLength = 1000
)

// SubmissionService прогоняет входящий отзыв через пайплайн:
// валидация -> санитизация -> access gate -> rate limit -> модерация ->
// сохранение -> инкремент счетчика -> обновление AI-сводки
type SubmissionService struct {
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	accessGate  AccessGate
	rateLimiter RateLimiter
	moderator   Moderator
	summarizer  Summarizer
	publisher   infrastructure.MessagePublisher
	cache       ToolListCache
}

// NewSubmissionService создает новый сервис отправки отзывов с внедрением зависимостей
func NewSubmissionService(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	accessGate AccessGate,
	rateLimiter RateLimiter,
	moderator Moderator,
	summarizer Summarizer,
	publisher infrastructure.MessagePublisher,
	cache ToolListCache,
) *SubmissionService {
	return &SubmissionService{
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		accessGate:  accessGate,
		rateLimiter: rateLimiter,
		moderator:   moderator,
		summarizer:  summarizer,
		publisher:   publisher,
		cache:       cache,
	}
}

// SubmitReview выполняет пайплайн для одного отзыва
// Возвращает сохраненный отзыв и признак публикации:
// published=false означает, что отзыв задержан модерацией (ответ 202)
func (s *SubmissionService) SubmitReview(ctx context.Context, productID, userID string, req *entity.SubmitReviewRequest) (*entity.Review, bool, error) {
	// 1. Валидация: до этой точки никаких побочных эффектов
	text, err := validateSubmission(req)
	if err != nil {
		metrics.ReviewsSubmitted.WithLabelValues("rejected_validation").Inc()
		return nil, false, err
	}

	// 2. Санитизация пяти зарезервированных HTML-символов до любой обработки
	text = html.EscapeString(text)

	// 3. Access gate: только edu-верифицированные пользователи
	if err := s.accessGate.CheckSubmissionAccess(ctx, userID); err != nil {
		if errors.Is(err, ErrNotVerified) {
			metrics.ReviewsSubmitted.WithLabelValues("rejected_access").Inc()
			return nil, false, err
		}
		return nil, false, fmt.Errorf("access check failed: %w", err)
	}

	// 4. Rate limit (внутри fail open на ошибках хранилища)
	if err := s.rateLimiter.Allow(ctx, userID); err != nil {
		metrics.ReviewsSubmitted.WithLabelValues("rejected_rate_limit").Inc()
		return nil, false, err
	}

	// 5. Модерация. Ошибка провайдера трактуется как flagged (fail closed):
	// отзыв сохраняется задержанным и будет перепроверен, а не потерян
	moderation, err := s.moderator.Check(ctx, text)
	if err != nil {
		logger.Error().Err(err).Str("product_id", productID).Msg("Moderation unavailable, holding review")
		moderation = &entity.ModerationResult{Flagged: true}
	}

	// 6. Инструмент создается при первом отзыве, имя из запроса или ключ как fallback
	product, err := s.ensureProduct(ctx, productID, req.ProductName)
	if err != nil {
		metrics.ReviewsSubmitted.WithLabelValues("failed").Inc()
		return nil, false, err
	}

	safe := !moderation.Flagged
	review := &entity.Review{
		ID:          newReviewID(productID),
		ProductID:   productID,
		ProductName: product.Name,
		AuthorName:  strings.TrimSpace(req.AuthorName),
		UserID:      userID,
		Stars:       req.Stars,
		Review:      text,
		Date:        time.Now(),
		Safe:        &safe,
	}
	if moderation.Flagged {
		review.ModerationCategories = moderation.Categories
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		metrics.ReviewsSubmitted.WithLabelValues("failed").Inc()
		return nil, false, fmt.Errorf("failed to persist review: %w", err)
	}

	if moderation.Flagged {
		// Задержанный отзыв не попадает в счетчик и сводку
		metrics.ReviewsSubmitted.WithLabelValues("held").Inc()
		metrics.ModerationFlagged.Inc()
		s.publishEvent(ctx, review, entity.EventReviewHeld)
		return review, false, nil
	}

	if err := s.productRepo.IncrementReviewCount(ctx, productID); err != nil {
		metrics.ReviewsSubmitted.WithLabelValues("failed").Inc()
		return nil, false, fmt.Errorf("failed to increment review count: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateToolList(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to invalidate tool list cache")
		}
	}

	// 7. Сводка обновляется синхронно в рамках запроса.
	// Отзыв уже сохранен, поэтому ошибка здесь не откатывает публикацию
	if err := s.summarizer.RefreshProductSummary(ctx, productID, "inline"); err != nil {
		logger.Error().Err(err).Str("product_id", productID).Msg("Failed to refresh summary after review")
	}

	metrics.ReviewsSubmitted.WithLabelValues("published").Inc()
	metrics.ReviewsRating.Observe(float64(review.Stars))
	s.publishEvent(ctx, review, entity.EventReviewPublished)

	return review, true, nil
}

// ensureProduct возвращает инструмент, создавая его при отсутствии
func (s *SubmissionService) ensureProduct(ctx context.Context, productID, displayName string) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, repository.ErrProductNotFound) {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = productID
	}

	product = &entity.Product{
		ID:   productID,
		Name: name,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		// Параллельная отправка могла создать документ первой
		if errors.Is(err, repository.ErrProductAlreadyExists) {
			return s.productRepo.GetByID(ctx, productID)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// publishEvent отправляет событие в Kafka
// Ошибки логируются и не прерывают выполнение - отзыв уже сохранен
func (s *SubmissionService) publishEvent(ctx context.Context, review *entity.Review, eventType string) {
	if s.publisher == nil {
		return
	}

	event := entity.ReviewEvent{
		EventType:   eventType,
		ReviewID:    review.ID,
		ProductID:   review.ProductID,
		ProductName: review.ProductName,
		UserID:      review.UserID,
		Stars:       review.Stars,
		Safe:        review.IsSafe(),
		Timestamp:   time.Now(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal review event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, review.ID, eventData); err != nil {
		logger.Warn().Err(err).Str("review_id", review.ID).Msg("Failed to publish review event")
	}
}

// validateSubmission проверяет форму и длины полей
// Возвращает обрезанный текст отзыва
func validateSubmission(req *entity.SubmitReviewRequest) (string, error) {
	if strings.TrimSpace(req.AuthorName) == "" {
		return "", fmt.Errorf("%w: author name is required", ErrInvalidSubmission)
	}

	if req.Stars < 1 || req.Stars > 5 {
		return "", fmt.Errorf("%w: stars must be between 1 and 5", ErrInvalidSubmission)
	}

	// Границы длины считаются в символах, не в байтах
	text := strings.TrimSpace(req.Review)
	if length := utf8.RuneCountInString(text); length < minReviewLength || length > maxReviewLength {
		return "", fmt.Errorf("%w: review must be between %d and %d characters", ErrInvalidSubmission, minReviewLength, maxReviewLength)
	}

	return text, nil
}

// newReviewID формирует идентификатор вида {productId}_{unixMilli}_{suffix}
// Глобальная уникальность не гарантируется, но коллизия в пределах
// миллисекунды со случайным суффиксом практически исключена
func newReviewID(productID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	return fmt.Sprintf("%s_%d_%s", productID, time.Now().UnixMilli(), suffix)
}
