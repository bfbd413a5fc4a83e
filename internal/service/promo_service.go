package service

import (
	"context"
	"log"

	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/observability"
	"github.com/fitcoach/intake-bot/internal/repository"
)

// PromoService reconciles promo-code claims. A code is redeemed into a pending
// claim first and bound to a submission only when the user completes the
// intake flow. Single-use codes are won by whichever submission's conditional
// insert lands first; there is deliberately no lock around the check-then-act
// sequence, the store's uniqueness constraints arbitrate the race.
type PromoService struct {
	promoRepo repository.PromoRepository
}

func NewPromoService(promoRepo repository.PromoRepository) *PromoService {
	return &PromoService{promoRepo: promoRepo}
}

type RedemptionResult struct {
	Code        string
	Description string
}

// Redeem validates a code and records a pending claim for the user.
// Returns domain.ErrPromoNotFound for unknown codes and
// domain.ErrPromoAlreadyUsed when a single-use code is already bound to any
// submission. Re-entering a code the user already holds pending is a no-op
// that still succeeds with the code's description.
func (s *PromoService) Redeem(ctx context.Context, userID int64, code string) (*RedemptionResult, error) {
	promo, err := s.promoRepo.FindByCode(ctx, code)
	if err != nil {
		if err == domain.ErrPromoNotFound {
			observability.RecordPromoRedeemed("not_found")
		}
		return nil, err
	}

	if promo.SingleUse {
		used, err := s.promoRepo.HasAttachedRedemption(ctx, promo.ID)
		if err != nil {
			return nil, err
		}
		if used {
			observability.RecordPromoRedeemed("already_used")
			return nil, domain.ErrPromoAlreadyUsed
		}
	}

	exists, err := s.promoRepo.FindPendingRedemption(ctx, userID, promo.ID)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := s.promoRepo.InsertPendingRedemption(ctx, userID, promo.ID); err != nil {
			return nil, err
		}
	}

	observability.RecordPromoRedeemed("ok")
	return &RedemptionResult{Code: promo.Code, Description: promo.Description}, nil
}

// Attach binds every pending claim of the user to the submission and returns
// how many were bound. Single-use codes claimed by another submission in the
// meantime are skipped, as are conditional inserts that lose the race; only
// unexpected store errors propagate.
func (s *PromoService) Attach(ctx context.Context, userID, submissionID int64) (int, error) {
	pending, err := s.promoRepo.GetPendingRedemptions(ctx, userID)
	if err != nil {
		return 0, err
	}

	attached := 0
	for _, p := range pending {
		if p.SingleUse {
			used, err := s.promoRepo.HasAttachedRedemption(ctx, p.PromoCodeID)
			if err != nil {
				return attached, err
			}
			if used {
				log.Printf("WARN [promo.Attach] userID=%d promoID=%d: single-use code already attached elsewhere, skipping", userID, p.PromoCodeID)
				continue
			}
		}

		ok, err := s.promoRepo.InsertAttachedRedemption(ctx, userID, p.PromoCodeID, submissionID, p.SingleUse)
		if err != nil {
			return attached, err
		}
		if !ok {
			log.Printf("WARN [promo.Attach] userID=%d promoID=%d: lost attach race, skipping", userID, p.PromoCodeID)
			continue
		}
		attached++
	}
	return attached, nil
}
