package notify

import (
	"fmt"
	"strings"

	"github.com/fitcoach/intake-bot/internal/domain"
)

// RenderSubmission builds the operator-facing text for one submission. The
// transport renders it verbatim; no markup.
func RenderSubmission(sub *domain.Submission) string {
	var b strings.Builder
	b.WriteString("New intake submission\n\n")

	name := sub.User.FirstName
	if name == "" {
		name = "Not provided"
	}
	b.WriteString("User: " + name)
	if sub.User.Username != "" {
		b.WriteString(" (@" + sub.User.Username + ")")
	}
	fmt.Fprintf(&b, "\nID: %d\n\n", sub.UserID)

	if sub.Gender != "" {
		b.WriteString("Gender: " + sub.Gender + "\n")
	}
	if sub.Age != 0 {
		fmt.Fprintf(&b, "Age: %d\n", sub.Age)
	}
	if !sub.Weight.IsZero() {
		b.WriteString("Weight: " + sub.Weight.String() + " kg\n")
	}
	if sub.WorkoutsPerWeek != 0 {
		fmt.Fprintf(&b, "Workouts per week: %d\n", sub.WorkoutsPerWeek)
	}
	if sub.Diet != nil && *sub.Diet != "" {
		b.WriteString("Diet: " + *sub.Diet + "\n")
	}
	if sub.HealthNote != nil && *sub.HealthNote != "" {
		b.WriteString("Health notes: " + *sub.HealthNote + "\n")
	}

	if codes := sub.PromoCodes(); len(codes) > 0 {
		b.WriteString("\nPromo codes: " + strings.Join(codes, ", ") + "\n")
	}

	b.WriteString("\nDate: " + sub.CreatedAt.Format("02.01.2006 15:04"))
	return b.String()
}
