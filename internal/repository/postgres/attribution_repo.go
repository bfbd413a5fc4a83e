package postgres

import (
	"context"
	"time"

	"github.com/fitcoach/intake-bot/internal/domain"
	"gorm.io/gorm"
)

type attributionRepository struct {
	db *gorm.DB
}

func NewAttributionRepository(db *gorm.DB) *attributionRepository {
	return &attributionRepository{db: db}
}

func (r *attributionRepository) RecordEvent(ctx context.Context, event *domain.AttributionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *attributionRepository) GetStats(ctx context.Context, since *time.Time) ([]domain.AttributionStat, error) {
	q := r.db.WithContext(ctx).
		Model(&domain.AttributionEvent{}).
		Select(`COALESCE(NULLIF(utm_source, ''), 'direct') AS source,
			COALESCE(NULLIF(utm_medium, ''), 'none') AS medium,
			COALESCE(NULLIF(utm_campaign, ''), 'none') AS campaign,
			COUNT(*) AS count`).
		Group("source, medium, campaign").
		Order("count DESC")
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}

	var stats []domain.AttributionStat
	if err := q.Scan(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
