package domain

import "errors"

// Promo redemption outcomes surfaced to the user
var (
	ErrPromoNotFound    = errors.New("promo code not found")
	ErrPromoAlreadyUsed = errors.New("promo code already used")
)

// Referral link errors
var (
	ErrLinkNotFound = errors.New("referral link not found")
	ErrInvalidSlug  = errors.New("slug may only contain letters, digits, - and _")
)
