package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/repository"
	"github.com/fitcoach/intake-bot/internal/service"
	"github.com/go-chi/chi/v5"
)

type LinkHandler struct {
	linkService *service.LinkService
	attribRepo  repository.AttributionRepository
}

func NewLinkHandler(linkService *service.LinkService, attribRepo repository.AttributionRepository) *LinkHandler {
	return &LinkHandler{linkService: linkService, attribRepo: attribRepo}
}

type LinkRequest struct {
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.linkService.GetAll(r.Context())
	if err != nil {
		log.Printf("ERROR [link.List]: %v", err)
		http.Error(w, "Failed to list links", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(links)
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	link, err := h.linkService.Create(r.Context(), req.Slug, req.Description)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSlug) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("ERROR [link.Create] slug=%s: %v", req.Slug, err)
		http.Error(w, "Failed to create link", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(link)
}

func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid link id", http.StatusBadRequest)
		return
	}

	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	link := &domain.ReferralLink{ID: id, Slug: req.Slug, Description: req.Description}
	if err := h.linkService.Update(r.Context(), link); err != nil {
		if errors.Is(err, domain.ErrInvalidSlug) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("ERROR [link.Update] id=%d: %v", id, err)
		http.Error(w, "Failed to update link", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(link)
}

func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid link id", http.StatusBadRequest)
		return
	}

	if err := h.linkService.Delete(r.Context(), id); err != nil {
		log.Printf("ERROR [link.Delete] id=%d: %v", id, err)
		http.Error(w, "Failed to delete link", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AttributionStats aggregates arrivals by UTM tags, optionally limited with
// the ?days= query parameter.
func (h *LinkHandler) AttributionStats(w http.ResponseWriter, r *http.Request) {
	var since *time.Time
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		days, err := strconv.Atoi(daysParam)
		if err != nil || days < 1 {
			http.Error(w, "Invalid days parameter", http.StatusBadRequest)
			return
		}
		t := time.Now().AddDate(0, 0, -days)
		since = &t
	}

	stats, err := h.attribRepo.GetStats(r.Context(), since)
	if err != nil {
		log.Printf("ERROR [link.AttributionStats]: %v", err)
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
