package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/fitcoach/intake-bot/internal/domain"
	"gorm.io/gorm"
)

type linkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) *linkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *domain.ReferralLink) error {
	link.Slug = strings.ToLower(link.Slug)
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *linkRepository) GetAll(ctx context.Context) ([]domain.ReferralLinkWithStats, error) {
	var links []domain.ReferralLinkWithStats
	err := r.db.WithContext(ctx).
		Model(&domain.ReferralLink{}).
		Select(`referral_links.*,
			COUNT(referral_clicks.id) AS total_clicks,
			COUNT(CASE WHEN referral_clicks.created_at >= CURRENT_DATE - INTERVAL '30 days' THEN 1 END) AS month_clicks`).
		Joins("LEFT JOIN referral_clicks ON referral_clicks.referral_link_id = referral_links.id").
		Group("referral_links.id").
		Order("referral_links.created_at DESC").
		Scan(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *linkRepository) FindBySlug(ctx context.Context, slug string) (*domain.ReferralLink, error) {
	var link domain.ReferralLink
	err := r.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(slug)).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) RecordClick(ctx context.Context, linkID, userID int64) error {
	click := domain.ReferralClick{
		ReferralLinkID: linkID,
		UserID:         userID,
	}
	return r.db.WithContext(ctx).Create(&click).Error
}

func (r *linkRepository) Update(ctx context.Context, link *domain.ReferralLink) error {
	link.Slug = strings.ToLower(link.Slug)
	return r.db.WithContext(ctx).
		Model(&domain.ReferralLink{ID: link.ID}).
		Updates(map[string]interface{}{
			"slug":        link.Slug,
			"description": link.Description,
		}).Error
}

func (r *linkRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.ReferralClick{}, "referral_link_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.ReferralLink{}, "id = ?", id).Error
	})
}
