package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/repository"
)

type SubmissionHandler struct {
	subRepo repository.SubmissionRepository
}

func NewSubmissionHandler(subRepo repository.SubmissionRepository) *SubmissionHandler {
	return &SubmissionHandler{subRepo: subRepo}
}

type SubmissionResponse struct {
	ID              int64    `json:"id"`
	UserID          int64    `json:"userId"`
	FirstName       string   `json:"firstName"`
	Username        string   `json:"username"`
	Gender          string   `json:"gender"`
	Age             int      `json:"age"`
	Weight          string   `json:"weight"`
	WorkoutsPerWeek int      `json:"workoutsPerWeek"`
	Diet            *string  `json:"diet"`
	HealthNote      *string  `json:"healthNote"`
	PromoCodes      []string `json:"promoCodes"`
	CreatedAt       string   `json:"createdAt"`
}

// ListUnreported exposes the sweep's view: submissions never delivered to
// the operators.
func (h *SubmissionHandler) ListUnreported(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subRepo.GetUnreported(r.Context())
	if err != nil {
		log.Printf("ERROR [submission.ListUnreported]: %v", err)
		http.Error(w, "Failed to list submissions", http.StatusInternalServerError)
		return
	}

	resp := make([]SubmissionResponse, len(subs))
	for i, sub := range subs {
		resp[i] = toSubmissionResponse(sub)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func toSubmissionResponse(sub *domain.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:              sub.ID,
		UserID:          sub.UserID,
		FirstName:       sub.User.FirstName,
		Username:        sub.User.Username,
		Gender:          sub.Gender,
		Age:             sub.Age,
		Weight:          sub.Weight.String(),
		WorkoutsPerWeek: sub.WorkoutsPerWeek,
		Diet:            sub.Diet,
		HealthNote:      sub.HealthNote,
		PromoCodes:      sub.PromoCodes(),
		CreatedAt:       sub.CreatedAt.Format("02.01.2006 15:04"),
	}
}
