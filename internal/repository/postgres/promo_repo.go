package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/fitcoach/intake-bot/internal/domain"
	"gorm.io/gorm"
)

type promoRepository struct {
	db *gorm.DB
}

func NewPromoRepository(db *gorm.DB) *promoRepository {
	return &promoRepository{db: db}
}

func (r *promoRepository) FindByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	var promo domain.PromoCode
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(code)).
		First(&promo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPromoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *promoRepository) FindPendingRedemption(ctx context.Context, userID, promoID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PromoRedemption{}).
		Where("user_id = ? AND promo_code_id = ? AND submission_id IS NULL", userID, promoID).
		Count(&count).Error
	return count > 0, err
}

func (r *promoRepository) InsertPendingRedemption(ctx context.Context, userID, promoID int64) error {
	red := domain.PromoRedemption{
		UserID:      userID,
		PromoCodeID: promoID,
	}
	err := r.db.WithContext(ctx).Omit("PromoCode").Create(&red).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Pending claim already exists; re-entry is a no-op.
		return nil
	}
	return err
}

func (r *promoRepository) GetPendingRedemptions(ctx context.Context, userID int64) ([]domain.PendingRedemption, error) {
	var pending []domain.PendingRedemption
	err := r.db.WithContext(ctx).
		Model(&domain.PromoRedemption{}).
		Select("promo_redemptions.promo_code_id, promo_codes.single_use").
		Joins("JOIN promo_codes ON promo_codes.id = promo_redemptions.promo_code_id").
		Where("promo_redemptions.user_id = ? AND promo_redemptions.submission_id IS NULL", userID).
		Order("promo_redemptions.created_at").
		Scan(&pending).Error
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (r *promoRepository) HasAttachedRedemption(ctx context.Context, promoID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PromoRedemption{}).
		Where("promo_code_id = ? AND submission_id IS NOT NULL", promoID).
		Count(&count).Error
	return count > 0, err
}

func (r *promoRepository) InsertAttachedRedemption(ctx context.Context, userID, promoID, submissionID int64, exclusive bool) (bool, error) {
	red := domain.PromoRedemption{
		UserID:       userID,
		PromoCodeID:  promoID,
		SubmissionID: &submissionID,
		Exclusive:    exclusive,
	}
	err := r.db.WithContext(ctx).Omit("PromoCode").Create(&red).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Either this exact attachment already exists or another submission
		// claimed a single-use code first. Both mean: not ours.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *promoRepository) Create(ctx context.Context, code *domain.PromoCode) error {
	code.Code = strings.ToUpper(code.Code)
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *promoRepository) Update(ctx context.Context, code *domain.PromoCode) error {
	code.Code = strings.ToUpper(code.Code)
	return r.db.WithContext(ctx).
		Model(&domain.PromoCode{ID: code.ID}).
		Select("code", "description", "single_use").
		Updates(map[string]interface{}{
			"code":        code.Code,
			"description": code.Description,
			"single_use":  code.SingleUse,
		}).Error
}

func (r *promoRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.PromoCode{}, "id = ?", id).Error
}

func (r *promoRepository) GetAll(ctx context.Context) ([]domain.PromoCodeWithUsage, error) {
	var codes []domain.PromoCodeWithUsage
	err := r.db.WithContext(ctx).
		Model(&domain.PromoCode{}).
		Select("promo_codes.*, COUNT(promo_redemptions.id) AS usage_count").
		Joins("LEFT JOIN promo_redemptions ON promo_redemptions.promo_code_id = promo_codes.id").
		Group("promo_codes.id").
		Order("promo_codes.created_at DESC").
		Scan(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}
