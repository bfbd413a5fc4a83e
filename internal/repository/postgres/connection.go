package postgres

import (
	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Uniqueness violations come back as gorm.ErrDuplicatedKey; the
		// reconciler reads them as "lost the race", not as failures.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate tables
	err = db.AutoMigrate(
		&domain.User{},
		&domain.Submission{},
		&domain.PromoCode{},
		&domain.PromoRedemption{},
		&domain.ReferralLink{},
		&domain.ReferralClick{},
		&domain.AttributionEvent{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:        NewUserRepository(db),
		Submission:  NewSubmissionRepository(db),
		Promo:       NewPromoRepository(db),
		Link:        NewLinkRepository(db),
		Attribution: NewAttributionRepository(db),
	}
}
