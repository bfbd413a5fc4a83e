package service

import (
	"context"
	"strings"

	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/repository"
)

// LinkService manages referral links and their click log.
type LinkService struct {
	linkRepo repository.LinkRepository
}

func NewLinkService(linkRepo repository.LinkRepository) *LinkService {
	return &LinkService{linkRepo: linkRepo}
}

func (s *LinkService) Create(ctx context.Context, slug, description string) (*domain.ReferralLink, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !domain.ValidSlug(slug) {
		return nil, domain.ErrInvalidSlug
	}
	link := &domain.ReferralLink{Slug: slug, Description: description}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *LinkService) GetAll(ctx context.Context) ([]domain.ReferralLinkWithStats, error) {
	return s.linkRepo.GetAll(ctx)
}

// RecordClick resolves the slug and logs one arrival. Returns
// domain.ErrLinkNotFound for slugs nobody created.
func (s *LinkService) RecordClick(ctx context.Context, slug string, userID int64) (*domain.ReferralLink, error) {
	link, err := s.linkRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.linkRepo.RecordClick(ctx, link.ID, userID); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *LinkService) Update(ctx context.Context, link *domain.ReferralLink) error {
	link.Slug = strings.ToLower(strings.TrimSpace(link.Slug))
	if !domain.ValidSlug(link.Slug) {
		return domain.ErrInvalidSlug
	}
	return s.linkRepo.Update(ctx, link)
}

func (s *LinkService) Delete(ctx context.Context, id int64) error {
	return s.linkRepo.Delete(ctx, id)
}
