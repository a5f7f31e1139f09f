package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"aicompass/internal/app/compass/entity"
	"aicompass/pkg/metrics"
)

const serviceName = "compass"

// OpenAIClient - HTTP клиент к OpenAI-совместимому API
// Отвечает только за HTTP запросы к провайдеру, без бизнес-логики
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient создает новый клиент LLM провайдера
func NewOpenAIClient(apiKey, baseURL, model string, timeoutSec int) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
	}
}

type moderationRequest struct {
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}

// Moderate отправляет текст на эндпоинт модерации
// Возвращает вердикт flagged плюс карту категорий
func (c *OpenAIClient) Moderate(ctx context.Context, text string) (*entity.ModerationResult, error) {
	timer := metrics.NewLlmTimer(serviceName, metrics.LlmOpModeration)
	defer timer.ObserveDuration()

	var response moderationResponse
	if err := c.post(ctx, "/v1/moderations", moderationRequest{Input: text}, &response); err != nil {
		metrics.RecordLlmError(serviceName, metrics.LlmOpModeration)
		return nil, err
	}

	if len(response.Results) == 0 {
		metrics.RecordLlmError(serviceName, metrics.LlmOpModeration)
		return nil, fmt.Errorf("moderation API returned no results")
	}

	return &entity.ModerationResult{
		Flagged:    response.Results[0].Flagged,
		Categories: response.Results[0].Categories,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CompleteJSON выполняет chat completion с response_format json_object
// Возвращает сырой текст ответа модели; парсинг JSON - забота вызывающего
func (c *OpenAIClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	timer := metrics.NewLlmTimer(serviceName, metrics.LlmOpCompletion)
	defer timer.ObserveDuration()

	request := completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0.3,
		MaxTokens:      500,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var response completionResponse
	if err := c.post(ctx, "/v1/chat/completions", request, &response); err != nil {
		metrics.RecordLlmError(serviceName, metrics.LlmOpCompletion)
		return "", err
	}

	if len(response.Choices) == 0 {
		metrics.RecordLlmError(serviceName, metrics.LlmOpCompletion)
		return "", fmt.Errorf("completion API returned no choices")
	}

	return response.Choices[0].Message.Content, nil
}

// post выполняет POST запрос к API провайдера и декодирует JSON ответ
func (c *OpenAIClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal API response: %w", err)
	}

	return nil
}
