package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"aicompass/internal/app/compass/entity"
	"aicompass/internal/app/compass/infrastructure"
	"aicompass/internal/app/compass/repository"
	"aicompass/pkg/logger"
	"aicompass/pkg/metrics"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrSummaryParse = errors.New("failed to parse summary response")
)

const (
	summarySystemPrompt = "You are a helpful assistant that analyzes product reviews and provides concise summaries and key themes in JSON format."

	summaryMaxRetries = 3

	// Код Unauthorized у command error MongoDB
	mongoCodeUnauthorized = 13
)

// SummaryService генерирует AI-сводки по отзывам и персистит их
// на документе инструмента вместе со снимком счетчика отзывов
type SummaryService struct {
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	llmClient   infrastructure.LLMClient
}

// NewSummaryService создает новый сервис сводок с внедрением зависимостей
func NewSummaryService(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	llmClient infrastructure.LLMClient,
) *SummaryService {
	return &SummaryService{
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		llmClient:   llmClient,
	}
}

// RefreshProductSummary пересчитывает сводку по безопасным отзывам инструмента
// Пустой набор отзывов дает сводку-заглушку без обращения к LLM
func (s *SummaryService) RefreshProductSummary(ctx context.Context, productID string, trigger string) error {
	reviews, err := s.reviewRepo.GetByProductID(ctx, productID, false)
	if err != nil {
		metrics.SummariesGenerated.WithLabelValues(trigger, "failed").Inc()
		return fmt.Errorf("failed to load reviews for summary: %w", err)
	}

	if len(reviews) == 0 {
		if err := s.persistSummary(ctx, productID, entity.EmptySummaryText, nil, 0); err != nil {
			metrics.SummariesGenerated.WithLabelValues(trigger, "failed").Inc()
			return err
		}
		metrics.SummariesGenerated.WithLabelValues(trigger, "success").Inc()
		return nil
	}

	productName := productID
	if product, err := s.productRepo.GetByID(ctx, productID); err == nil {
		productName = product.Name
	}

	result, err := s.generate(ctx, productName, reviews)
	if err != nil {
		metrics.SummariesGenerated.WithLabelValues(trigger, "failed").Inc()
		return err
	}

	if err := s.persistSummary(ctx, productID, result.Summary, result.Themes, len(reviews)); err != nil {
		metrics.SummariesGenerated.WithLabelValues(trigger, "failed").Inc()
		return err
	}

	metrics.SummariesGenerated.WithLabelValues(trigger, "success").Inc()
	return nil
}

// GetOrGenerate обслуживает POST /ai-summary
// Сохраненная сводка переиспользуется, только пока счетчик отзывов
// на документе точно совпадает с числом отзывов в запросе
func (s *SummaryService) GetOrGenerate(ctx context.Context, req *entity.SummaryRequest) (*entity.SummaryResponse, error) {
	product, err := s.productRepo.GetByID(ctx, req.Product.ID)
	if err == nil && product.Summary != "" && product.SummaryReviewCount == len(req.Reviews) {
		metrics.SummaryCacheHits.Inc()
		return &entity.SummaryResponse{
			Summary: product.Summary,
			Themes:  nonEmptyThemes(product),
		}, nil
	}
	if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	productName := req.Product.Name
	if productName == "" {
		productName = req.Product.ID
	}

	safe := make([]entity.Review, 0, len(req.Reviews))
	for _, review := range req.Reviews {
		if review.IsSafe() {
			safe = append(safe, review)
		}
	}

	if len(safe) == 0 {
		return &entity.SummaryResponse{
			Summary: entity.EmptySummaryText,
			Themes:  []string{},
		}, nil
	}

	result, err := s.generate(ctx, productName, safe)
	if err != nil {
		metrics.SummariesGenerated.WithLabelValues("on_demand", "failed").Inc()
		return nil, err
	}

	if err := s.persistSummary(ctx, req.Product.ID, result.Summary, result.Themes, len(req.Reviews)); err != nil {
		// Сводка сгенерирована; невозможность закешировать не должна ломать ответ
		logger.Warn().Err(err).Str("product_id", req.Product.ID).Msg("Failed to persist on-demand summary")
	}

	metrics.SummariesGenerated.WithLabelValues("on_demand", "success").Inc()
	return &entity.SummaryResponse{
		Summary: result.Summary,
		Themes:  result.Themes,
	}, nil
}

// generate вызывает LLM и разбирает строгий JSON-ответ
// Ретраев для самого LLM нет: ошибка генерации уходит вызывающему
func (s *SummaryService) generate(ctx context.Context, productName string, reviews []entity.Review) (*entity.SummaryResult, error) {
	prompt := buildSummaryPrompt(productName, reviews)

	content, err := s.llmClient.CompleteJSON(ctx, summarySystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("summary generation failed: %w", err)
	}

	var result entity.SummaryResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummaryParse, err)
	}

	if result.Summary == "" {
		return nil, fmt.Errorf("%w: empty summary field", ErrSummaryParse)
	}

	// Дополняем темы до четырех
	for len(result.Themes) < 4 {
		result.Themes = append(result.Themes, "")
	}
	result.Themes = result.Themes[:4]

	return &result, nil
}

// persistSummary пишет сводку с ограниченным ретраем
// Ретраятся только транзиентные ошибки хранилища, с экспоненциальной
// паузой начиная с 1s; остальные классы ошибок уходят сразу
func (s *SummaryService) persistSummary(ctx context.Context, productID, summary string, themes []string, reviewCount int) error {
	var lastErr error

	for attempt := 0; attempt < summaryMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = s.productRepo.UpdateSummary(ctx, productID, summary, themes, reviewCount)
		if lastErr == nil {
			return nil
		}

		if !isTransientMongoError(lastErr) {
			return fmt.Errorf("failed to persist summary: %w", lastErr)
		}

		logger.Warn().
			Err(lastErr).
			Str("product_id", productID).
			Int("attempt", attempt+1).
			Msg("Transient error persisting summary, retrying")
	}

	return fmt.Errorf("failed to persist summary after %d attempts: %w", summaryMaxRetries, lastErr)
}

// isTransientMongoError отбирает классы ошибок, оправдывающие ретрай записи
func isTransientMongoError(err error) bool {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == mongoCodeUnauthorized
	}

	return false
}

// buildSummaryPrompt собирает промпт со строгим JSON-контрактом:
// ровно 2 предложения сводки и 4 коротких темы
func buildSummaryPrompt(productName string, reviews []entity.Review) string {
	var reviewsText strings.Builder
	for i, review := range reviews {
		if i > 0 {
			reviewsText.WriteString("\n\n")
		}
		fmt.Fprintf(&reviewsText, "Review %d (%d stars): %s", i+1, review.Stars, review.Review)
	}

	return fmt.Sprintf(`Analyze the following product reviews and provide a concise summary and key themes.

Product: %s
Average Rating: %.1f out of 5 stars
Number of Reviews: %d

Reviews:
%s

INSTRUCTIONS:
1. Generate a concise 2-sentence summary of the overall sentiment and key points from these reviews.
2. Identify exactly 4 specific themes or patterns mentioned across the reviews.
3. Your response MUST be in valid JSON format with the following structure:
{
  "summary": "Your 2-sentence summary here",
  "themes": [
    "Theme 1",
    "Theme 2",
    "Theme 3",
    "Theme 4"
  ]
}
4. Be specific and concise. Each theme should be a short phrase (5-10 words).
5. Focus on actual content from the reviews, not generic statements.
6. Ensure your response is ONLY the JSON object with no additional text.`,
		productName, AverageRating(reviews), len(reviews), reviewsText.String())
}

// nonEmptyThemes собирает сохраненные темы без пустых строк
func nonEmptyThemes(product *entity.Product) []string {
	themes := make([]string, 0, 4)
	for _, theme := range []string{product.Theme1, product.Theme2, product.Theme3, product.Theme4} {
		if theme != "" {
			themes = append(themes, theme)
		}
	}
	return themes
}
