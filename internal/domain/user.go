package domain

import "time"

// User is one chat user, keyed by the transport's numeric ID. Created on first
// contact and never deleted. Attribution tags are fixed at creation.
type User struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Username    string    `json:"username"`
	FirstName   string    `json:"firstName"`
	UTMSource   string    `json:"utmSource"`
	UTMMedium   string    `json:"utmMedium"`
	UTMCampaign string    `json:"utmCampaign"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AttributionEvent records the UTM tags a new user arrived with, one row per
// first contact that carried any tag.
type AttributionEvent struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      int64     `json:"userId" gorm:"not null;index"`
	UTMSource   string    `json:"utmSource"`
	UTMMedium   string    `json:"utmMedium"`
	UTMCampaign string    `json:"utmCampaign"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AttributionStat is one aggregated row of arrivals per source/medium/campaign.
type AttributionStat struct {
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Campaign string `json:"campaign"`
	Count    int64  `json:"count"`
}
