package repository

import (
	"context"
	"time"

	"github.com/fitcoach/intake-bot/internal/domain"
)

type UserRepository interface {
	// GetOrCreate loads the user or inserts it if this is first contact.
	// Attribution tags on user are recorded only when the row is created.
	GetOrCreate(ctx context.Context, user *domain.User) (created bool, err error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	// GetWithCodes loads a submission with its user and attached promo codes.
	GetWithCodes(ctx context.Context, id int64) (*domain.Submission, error)
	GetUnreported(ctx context.Context) ([]*domain.Submission, error)
	MarkReported(ctx context.Context, ids []int64) error
}

type PromoRepository interface {
	// FindByCode matches case-insensitively. Returns domain.ErrPromoNotFound
	// when the code does not exist.
	FindByCode(ctx context.Context, code string) (*domain.PromoCode, error)
	FindPendingRedemption(ctx context.Context, userID, promoID int64) (bool, error)
	InsertPendingRedemption(ctx context.Context, userID, promoID int64) error
	GetPendingRedemptions(ctx context.Context, userID int64) ([]domain.PendingRedemption, error)
	// HasAttachedRedemption reports whether any redemption of the code is
	// already bound to a submission.
	HasAttachedRedemption(ctx context.Context, promoID int64) (bool, error)
	// InsertAttachedRedemption binds a code to a submission. Returns false
	// without error when a uniqueness conflict means someone attached first.
	InsertAttachedRedemption(ctx context.Context, userID, promoID, submissionID int64, exclusive bool) (bool, error)

	Create(ctx context.Context, code *domain.PromoCode) error
	Update(ctx context.Context, code *domain.PromoCode) error
	Delete(ctx context.Context, id int64) error
	GetAll(ctx context.Context) ([]domain.PromoCodeWithUsage, error)
}

type LinkRepository interface {
	Create(ctx context.Context, link *domain.ReferralLink) error
	GetAll(ctx context.Context) ([]domain.ReferralLinkWithStats, error)
	// FindBySlug matches the lowercased slug. Returns domain.ErrLinkNotFound
	// when absent.
	FindBySlug(ctx context.Context, slug string) (*domain.ReferralLink, error)
	RecordClick(ctx context.Context, linkID, userID int64) error
	Update(ctx context.Context, link *domain.ReferralLink) error
	Delete(ctx context.Context, id int64) error
}

type AttributionRepository interface {
	RecordEvent(ctx context.Context, event *domain.AttributionEvent) error
	// GetStats aggregates arrivals per source/medium/campaign, optionally
	// limited to the given trailing window.
	GetStats(ctx context.Context, since *time.Time) ([]domain.AttributionStat, error)
}

type Repositories struct {
	User        UserRepository
	Submission  SubmissionRepository
	Promo       PromoRepository
	Link        LinkRepository
	Attribution AttributionRepository
}
