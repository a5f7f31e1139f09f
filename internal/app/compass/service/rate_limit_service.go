package service

import (
	"context"
	"errors"
	"time"

	"aicompass/internal/app/compass/entity"
	"aicompass/internal/app/compass/repository"
	"aicompass/pkg/logger"
	"aicompass/pkg/metrics"
)

var (
	ErrRateLimited = errors.New("submission rate limit exceeded")
)

// RateLimitService реализует скользящее окно отправок поверх MongoDB
// Любая ошибка хранилища означает допуск (fail open):
// доступность сервиса важнее строгости лимита
type RateLimitService struct {
	rateLimitRepo  repository.RateLimitRepository
	window         time.Duration
	maxSubmissions int
}

// NewRateLimitService создает новый rate limiter с внедрением зависимостей
func NewRateLimitService(
	rateLimitRepo repository.RateLimitRepository,
	window time.Duration,
	maxSubmissions int,
) *RateLimitService {
	return &RateLimitService{
		rateLimitRepo:  rateLimitRepo,
		window:         window,
		maxSubmissions: maxSubmissions,
	}
}

// Allow проверяет лимит и регистрирует текущую отправку
// Таймстемпы старше окна отбрасываются лениво при каждой проверке
func (s *RateLimitService) Allow(ctx context.Context, userID string) error {
	now := time.Now()

	record, err := s.rateLimitRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRateLimitRecordNotFound) {
			// Первая отправка пользователя
			record = &entity.RateLimitRecord{
				UserID:      userID,
				Submissions: []time.Time{now},
				Count:       1,
			}
			if err := s.rateLimitRepo.Upsert(ctx, record); err != nil {
				logger.Warn().Err(err).Str("user_id", userID).Msg("Rate limit write failed, admitting request")
			}
			return nil
		}

		logger.Warn().Err(err).Str("user_id", userID).Msg("Rate limit read failed, admitting request")
		return nil
	}

	cutoff := now.Add(-s.window)
	recent := make([]time.Time, 0, len(record.Submissions))
	for _, ts := range record.Submissions {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= s.maxSubmissions {
		metrics.RateLimitRejections.Inc()
		return ErrRateLimited
	}

	record.Submissions = append(recent, now)
	record.Count = len(record.Submissions)

	if err := s.rateLimitRepo.Upsert(ctx, record); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Rate limit write failed, admitting request")
	}

	return nil
}
