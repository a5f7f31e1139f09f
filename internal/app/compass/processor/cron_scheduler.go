package processor

import (
	"context"

	"aicompass/internal/app/compass/repository"
	"aicompass/internal/app/compass/service"
	"aicompass/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SummaryReconciler периодически находит инструменты, у которых снимок
// счетчика на сводке разошелся с актуальным числом безопасных отзывов,
// и перегенерирует их сводки. Подстраховывает инлайновое обновление
// при гонках параллельных отправок
type SummaryReconciler struct {
	cron        *cron.Cron
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	summarizer  service.Summarizer
}

func NewSummaryReconciler(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	summarizer service.Summarizer,
) *SummaryReconciler {
	return &SummaryReconciler{
		cron:        cron.New(),
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		summarizer:  summarizer,
	}
}

func (r *SummaryReconciler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting summary reconciler")

	_, err := r.cron.AddFunc(schedule, func() {
		if err := r.Reconcile(ctx); err != nil {
			logger.Error().Err(err).Msg("Summary reconciliation failed")
		}
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

func (r *SummaryReconciler) Stop() {
	logger.Info().Msg("Stopping summary reconciler...")
	ctx := r.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Summary reconciler stopped")
}

// Reconcile один проход по каталогу
// Ошибка одного инструмента не останавливает остальные
func (r *SummaryReconciler) Reconcile(ctx context.Context) error {
	products, err := r.productRepo.GetAll(ctx)
	if err != nil {
		return err
	}

	stale := 0
	for _, product := range products {
		reviews, err := r.reviewRepo.GetByProductID(ctx, product.ID, false)
		if err != nil {
			logger.Warn().Err(err).Str("product_id", product.ID).Msg("Failed to count reviews, skipping")
			continue
		}

		if product.Summary != "" && product.SummaryReviewCount == len(reviews) {
			continue
		}

		stale++
		if err := r.summarizer.RefreshProductSummary(ctx, product.ID, "reconciler"); err != nil {
			logger.Error().Err(err).Str("product_id", product.ID).Msg("Failed to refresh stale summary")
		}
	}

	if stale > 0 {
		logger.Info().Int("stale", stale).Int("total", len(products)).Msg("Summary reconciliation pass complete")
	}

	return nil
}
