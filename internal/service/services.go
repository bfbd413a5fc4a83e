package service

import (
	"github.com/fitcoach/intake-bot/internal/config"
	"github.com/fitcoach/intake-bot/internal/repository"
)

type Services struct {
	Auth  *AuthService
	Promo *PromoService
	Link  *LinkService
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	return &Services{
		Auth:  NewAuthService(cfg),
		Promo: NewPromoService(repos.Promo),
		Link:  NewLinkService(repos.Link),
	}
}
