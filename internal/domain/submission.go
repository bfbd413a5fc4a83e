package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Submission is one completed intake form. Created whole at flow completion;
// the only mutation afterwards is flipping Reported to true.
type Submission struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	UserID          int64           `json:"userId" gorm:"not null;index"`
	Gender          string          `json:"gender"`
	Age             int             `json:"age"`
	Weight          decimal.Decimal `json:"weight" gorm:"type:decimal(5,2)"`
	WorkoutsPerWeek int             `json:"workoutsPerWeek"`
	Diet            *string         `json:"diet" gorm:"size:500"`
	HealthNote      *string         `json:"healthNote" gorm:"size:500"`
	Reported        bool            `json:"reported" gorm:"not null;default:false;index"`
	CreatedAt       time.Time       `json:"createdAt"`

	User        User              `json:"user" gorm:"foreignKey:UserID"`
	Redemptions []PromoRedemption `json:"redemptions" gorm:"foreignKey:SubmissionID"`
}

// PromoCodes returns the code strings attached to this submission, in
// redemption order. Requires Redemptions (and their codes) to be loaded.
func (s *Submission) PromoCodes() []string {
	codes := make([]string, 0, len(s.Redemptions))
	for _, r := range s.Redemptions {
		if r.PromoCode.Code != "" {
			codes = append(codes, r.PromoCode.Code)
		}
	}
	return codes
}
