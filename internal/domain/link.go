package domain

import (
	"regexp"
	"time"
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidSlug reports whether s is usable as a referral link slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// ReferralLink is a shareable deep link identified by its slug. Slugs are
// stored lowercased.
type ReferralLink struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;not null;size:100"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ReferralClick is one arrival through a link. Append-only.
type ReferralClick struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	ReferralLinkID int64     `json:"referralLinkId" gorm:"not null;index;constraint:OnDelete:CASCADE"`
	UserID         int64     `json:"userId" gorm:"not null"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ReferralLinkWithStats is a link plus its click aggregates.
type ReferralLinkWithStats struct {
	ReferralLink
	TotalClicks int64 `json:"totalClicks"`
	MonthClicks int64 `json:"monthClicks"`
}
