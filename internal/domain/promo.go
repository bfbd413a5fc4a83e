package domain

import "time"

// PromoCode is an operator-managed code. The code string is stored uppercased
// and matched case-insensitively; joins always use the numeric ID so the
// string can be edited without orphaning redemptions.
type PromoCode struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"uniqueIndex;not null;size:100"`
	Description string    `json:"description"`
	SingleUse   bool      `json:"singleUse" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PromoRedemption is a user's claim on a code. SubmissionID is null while the
// claim is pending and set exactly once when it is attached to a submission.
//
// The store enforces the hard invariants:
//   - uniq_pending_redemption: one pending claim per (user, code);
//   - uniq_exclusive_attach: at most one attached redemption per code when the
//     code was single-use at attach time (Exclusive snapshots that flag, so the
//     losing insert of a race fails with a uniqueness violation);
//   - uniq_redemption_attach: re-attaching the same (user, code, submission)
//     conflicts, which makes Attach idempotent.
type PromoRedemption struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	UserID       int64     `json:"userId" gorm:"not null;uniqueIndex:uniq_pending_redemption,where:submission_id IS NULL;uniqueIndex:uniq_redemption_attach"`
	PromoCodeID  int64     `json:"promoCodeId" gorm:"not null;uniqueIndex:uniq_pending_redemption;uniqueIndex:uniq_redemption_attach;uniqueIndex:uniq_exclusive_attach,where:submission_id IS NOT NULL AND exclusive"`
	SubmissionID *int64    `json:"submissionId" gorm:"uniqueIndex:uniq_redemption_attach"`
	Exclusive    bool      `json:"exclusive" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"createdAt"`

	PromoCode PromoCode `json:"promoCode" gorm:"foreignKey:PromoCodeID"`
}

// PendingRedemption is the slice of a pending claim the reconciler needs:
// which code, and whether it is single-use right now.
type PendingRedemption struct {
	PromoCodeID int64
	SingleUse   bool
}

// PromoCodeWithUsage is a code plus its total redemption count, for the
// operator listing.
type PromoCodeWithUsage struct {
	PromoCode
	UsageCount int64 `json:"usageCount"`
}
