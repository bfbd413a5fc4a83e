package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/repository"
	"github.com/go-chi/chi/v5"
)

type PromoHandler struct {
	promoRepo repository.PromoRepository
}

func NewPromoHandler(promoRepo repository.PromoRepository) *PromoHandler {
	return &PromoHandler{promoRepo: promoRepo}
}

type PromoRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	SingleUse   bool   `json:"singleUse"`
}

func (h *PromoHandler) List(w http.ResponseWriter, r *http.Request) {
	codes, err := h.promoRepo.GetAll(r.Context())
	if err != nil {
		log.Printf("ERROR [promo.List]: %v", err)
		http.Error(w, "Failed to list promo codes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(codes)
}

func (h *PromoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	code := &domain.PromoCode{
		Code:        req.Code,
		Description: req.Description,
		SingleUse:   req.SingleUse,
	}
	if err := h.promoRepo.Create(r.Context(), code); err != nil {
		log.Printf("ERROR [promo.Create] code=%s: %v", req.Code, err)
		http.Error(w, "Failed to create promo code", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(code)
}

func (h *PromoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid promo code id", http.StatusBadRequest)
		return
	}

	var req PromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	code := &domain.PromoCode{
		ID:          id,
		Code:        req.Code,
		Description: req.Description,
		SingleUse:   req.SingleUse,
	}
	if err := h.promoRepo.Update(r.Context(), code); err != nil {
		log.Printf("ERROR [promo.Update] id=%d: %v", id, err)
		http.Error(w, "Failed to update promo code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(code)
}

func (h *PromoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid promo code id", http.StatusBadRequest)
		return
	}

	if err := h.promoRepo.Delete(r.Context(), id); err != nil {
		log.Printf("ERROR [promo.Delete] id=%d: %v", id, err)
		http.Error(w, "Failed to delete promo code", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
