package postgres

import (
	"context"

	"github.com/fitcoach/intake-bot/internal/domain"
	"gorm.io/gorm"
)

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	return r.db.WithContext(ctx).Omit("User", "Redemptions").Create(sub).Error
}

func (r *submissionRepository) GetWithCodes(ctx context.Context, id int64) (*domain.Submission, error) {
	var sub domain.Submission
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Redemptions.PromoCode").
		First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepository) GetUnreported(ctx context.Context) ([]*domain.Submission, error) {
	var subs []*domain.Submission
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Redemptions.PromoCode").
		Where("reported = ?", false).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *submissionRepository) MarkReported(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&domain.Submission{}).
		Where("id IN ?", ids).
		Update("reported", true).Error
}
