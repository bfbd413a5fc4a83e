package postgres

import (
	"context"

	"github.com/fitcoach/intake-bot/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetOrCreate(ctx context.Context, user *domain.User) (bool, error) {
	// Insert-or-skip keeps first contact race-safe: a concurrent insert of the
	// same ID just turns this call into a read.
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		var existing domain.User
		if err := r.db.WithContext(ctx).First(&existing, "id = ?", user.ID).Error; err != nil {
			return false, err
		}
		*user = existing
		return false, nil
	}
	return true, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
