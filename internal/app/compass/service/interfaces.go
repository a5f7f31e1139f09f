package service

import (
	"context"

	"aicompass/internal/app/compass/entity"
)

// AccessGate проверяет, допущен ли пользователь к отправке отзывов
type AccessGate interface {
	CheckSubmissionAccess(ctx context.Context, userID string) error
}

// RateLimiter решает вопрос допустимости очередной отправки пользователя
type RateLimiter interface {
	Allow(ctx context.Context, userID string) error
}

// Moderator возвращает вердикт внешней модерации текста
type Moderator interface {
	Check(ctx context.Context, text string) (*entity.ModerationResult, error)
}

// Summarizer генерирует и персистит AI-сводки по инструментам
type Summarizer interface {
	RefreshProductSummary(ctx context.Context, productID string, trigger string) error
}

// ToolListCache инвалидирует кеш списка инструментов
type ToolListCache interface {
	InvalidateToolList(ctx context.Context) error
}
