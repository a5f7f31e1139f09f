package infrastructure

import (
	"context"

	"aicompass/internal/app/compass/entity"
)

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
// Используется для dependency injection и упрощения тестирования
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// LLMClient интерфейс к внешнему LLM провайдеру
// Две операции: модерация текста и chat completion со строгим JSON-ответом
type LLMClient interface {
	Moderate(ctx context.Context, text string) (*entity.ModerationResult, error)
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
