package service

import (
	"context"
	"fmt"

	"aicompass/internal/app/compass/entity"
	"aicompass/internal/app/compass/infrastructure"
)

// ModerationService делегирует проверку текста внешнему эндпоинту модерации
// Локальных эвристик нет; политика обработки ошибок провайдера
// применяется в пайплайне отправки
type ModerationService struct {
	llmClient infrastructure.LLMClient
}

// NewModerationService создает новый сервис модерации
func NewModerationService(llmClient infrastructure.LLMClient) *ModerationService {
	return &ModerationService{
		llmClient: llmClient,
	}
}

// Check возвращает вердикт модерации для текста отзыва
func (s *ModerationService) Check(ctx context.Context, text string) (*entity.ModerationResult, error) {
	result, err := s.llmClient.Moderate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("moderation request failed: %w", err)
	}

	return result, nil
}
