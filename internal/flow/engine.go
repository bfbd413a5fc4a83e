package flow

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/observability"
	"github.com/fitcoach/intake-bot/internal/repository"
	"github.com/fitcoach/intake-bot/internal/service"
	"github.com/shopspring/decimal"
)

const maxNoteLength = 500

// Deliverer fans a completed submission out to the operators.
type Deliverer interface {
	DeliverNow(ctx context.Context, sub *domain.Submission)
}

// Engine drives the intake conversation. Sessions are keyed per user and each
// user's events are applied strictly in receipt order; events for different
// users proceed in parallel.
type Engine struct {
	subs      repository.SubmissionRepository
	promo     *service.PromoService
	deliverer Deliverer

	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]chan struct{}
}

func NewEngine(subs repository.SubmissionRepository, promo *service.PromoService, deliverer Deliverer) *Engine {
	return &Engine{
		subs:      subs,
		promo:     promo,
		deliverer: deliverer,
		sessions:  make(map[int64]*Session),
		locks:     make(map[int64]chan struct{}),
	}
}

// Handle applies one event and returns the prompts the transport should
// render. A store failure is returned with the session unchanged, so the
// event counts as not-yet-applied and is safe to retry.
func (e *Engine) Handle(ctx context.Context, ev Event) ([]Prompt, error) {
	unlock := e.lockUser(ev.UserID)
	defer unlock()

	switch ev.Kind {
	case EventStartIntake:
		e.setSession(&Session{UserID: ev.UserID, State: StateGender})
		return []Prompt{promptGender()}, nil

	case EventEnterPromo:
		e.setSession(&Session{UserID: ev.UserID, State: StateAwaitingPromo})
		return []Prompt{{Text: "Enter your promo code:"}}, nil

	case EventCancel:
		e.dropSession(ev.UserID)
		return []Prompt{{Text: "Okay, starting over."}}, nil

	case EventAnswer:
		return e.handleAnswer(ctx, ev)

	case EventSelectOption:
		return e.handleOption(ctx, ev)

	case EventSkip:
		return e.handleSkip(ctx, ev)
	}
	return nil, nil
}

// ActiveSessions reports how many conversations are currently live.
func (e *Engine) ActiveSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func (e *Engine) handleAnswer(ctx context.Context, ev Event) ([]Prompt, error) {
	sess := e.session(ev.UserID)
	if sess == nil {
		return nil, nil
	}

	text := strings.TrimSpace(ev.Text)

	switch sess.State {
	case StateGender:
		// Gender comes from a button, not free text.
		return []Prompt{promptGender()}, nil

	case StateAge:
		age, err := strconv.Atoi(text)
		if err != nil || age < 1 || age > 150 {
			return []Prompt{{Text: "Please enter a valid age (1 to 150):"}}, nil
		}
		sess.Answers.Age = age
		sess.State = StateWeight
		return []Prompt{{Text: "What is your weight in kilograms? (for example, 75.5):"}}, nil

	case StateWeight:
		weight, err := decimal.NewFromString(strings.ReplaceAll(text, ",", "."))
		if err != nil ||
			weight.Cmp(decimal.NewFromInt(1)) < 0 ||
			weight.Cmp(decimal.NewFromInt(500)) > 0 {
			return []Prompt{{Text: "Please enter a valid weight (1 to 500 kg):"}}, nil
		}
		sess.Answers.Weight = weight
		sess.State = StateWorkouts
		return []Prompt{{Text: "How many workouts per week would you like? (1 to 7):"}}, nil

	case StateWorkouts:
		workouts, err := strconv.Atoi(text)
		if err != nil || workouts < 1 || workouts > 7 {
			return []Prompt{{Text: "Please enter a number from 1 to 7:"}}, nil
		}
		sess.Answers.WorkoutsPerWeek = workouts
		sess.State = StateDiet
		return []Prompt{promptDiet()}, nil

	case StateDiet:
		diet := truncate(text)
		sess.Answers.Diet = &diet
		sess.State = StateHealthNote
		return []Prompt{promptHealthNote()}, nil

	case StateHealthNote:
		note := truncate(text)
		return e.finalize(ctx, sess, &note)

	case StateAwaitingPromo:
		return e.redeemPromo(ctx, sess, text)
	}
	return nil, nil
}

func (e *Engine) handleOption(ctx context.Context, ev Event) ([]Prompt, error) {
	sess := e.session(ev.UserID)
	if sess == nil {
		return nil, nil
	}

	if sess.State == StateGender {
		switch ev.OptionID {
		case OptionGenderMale:
			sess.Answers.Gender = domain.GenderMale
		case OptionGenderFemale:
			sess.Answers.Gender = domain.GenderFemale
		default:
			return []Prompt{promptGender()}, nil
		}
		sess.State = StateAge
		return []Prompt{{Text: "How old are you? (enter a number):"}}, nil
	}

	if ev.OptionID == OptionSkip {
		return e.handleSkip(ctx, ev)
	}
	return nil, nil
}

func (e *Engine) handleSkip(ctx context.Context, ev Event) ([]Prompt, error) {
	sess := e.session(ev.UserID)
	if sess == nil {
		return nil, nil
	}

	switch sess.State {
	case StateDiet:
		sess.Answers.Diet = nil
		sess.State = StateHealthNote
		return []Prompt{promptHealthNote()}, nil
	case StateHealthNote:
		return e.finalize(ctx, sess, nil)
	}
	return nil, nil
}

// finalize runs the completion pipeline in its fixed order: persist the
// submission, attach pending redemptions, re-read with codes, deliver, mark
// reported, destroy the session. Only the initial persist can fail the event;
// after that the submission exists and the sweep covers any later miss.
func (e *Engine) finalize(ctx context.Context, sess *Session, healthNote *string) ([]Prompt, error) {
	sub := &domain.Submission{
		UserID:          sess.UserID,
		Gender:          sess.Answers.Gender,
		Age:             sess.Answers.Age,
		Weight:          sess.Answers.Weight,
		WorkoutsPerWeek: sess.Answers.WorkoutsPerWeek,
		Diet:            sess.Answers.Diet,
		HealthNote:      healthNote,
	}
	if err := e.subs.Create(ctx, sub); err != nil {
		return nil, err
	}
	observability.RecordSubmissionCompleted()
	e.dropSession(sess.UserID)

	if _, err := e.promo.Attach(ctx, sess.UserID, sub.ID); err != nil {
		log.Printf("ERROR [flow.finalize] userID=%d submissionID=%d: attach redemptions: %v", sess.UserID, sub.ID, err)
	}

	full, err := e.subs.GetWithCodes(ctx, sub.ID)
	if err != nil {
		// The daily sweep will pick this submission up.
		log.Printf("ERROR [flow.finalize] submissionID=%d: reload for delivery: %v", sub.ID, err)
	} else {
		e.deliverer.DeliverNow(ctx, full)
		if err := e.subs.MarkReported(ctx, []int64{sub.ID}); err != nil {
			log.Printf("ERROR [flow.finalize] submissionID=%d: mark reported: %v", sub.ID, err)
		}
	}

	return []Prompt{{Text: "Thank you! We will get in touch with you shortly."}}, nil
}

func (e *Engine) redeemPromo(ctx context.Context, sess *Session, code string) ([]Prompt, error) {
	e.dropSession(sess.UserID)

	result, err := e.promo.Redeem(ctx, sess.UserID, code)
	switch {
	case errors.Is(err, domain.ErrPromoNotFound):
		return []Prompt{{Text: "Promo code not found. Please check the spelling."}}, nil
	case errors.Is(err, domain.ErrPromoAlreadyUsed):
		return []Prompt{{Text: "This promo code has already been used."}}, nil
	case err != nil:
		return nil, err
	}

	text := "Promo code '" + result.Code + "' applied!"
	if result.Description != "" {
		text += "\n\n" + result.Description
	}
	return []Prompt{{Text: text}}, nil
}

func promptGender() Prompt {
	return Prompt{
		Text: "What is your gender?",
		Options: []Option{
			{ID: OptionGenderMale, Label: "Male"},
			{ID: OptionGenderFemale, Label: "Female"},
		},
	}
}

func promptDiet() Prompt {
	return Prompt{
		Text:    "Describe your current diet (or skip):",
		Options: []Option{{ID: OptionSkip, Label: "Skip"}},
	}
}

func promptHealthNote() Prompt {
	return Prompt{
		Text:    "Any health problems or injuries? (or skip):",
		Options: []Option{{ID: OptionSkip, Label: "Skip"}},
	}
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) > maxNoteLength {
		return string(runes[:maxNoteLength])
	}
	return s
}

func (e *Engine) session(userID int64) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[userID]
}

func (e *Engine) setSession(sess *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[sess.UserID] = sess
}

func (e *Engine) dropSession(userID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, userID)
}

// lockUser serializes one user's events. The per-user channel wakes blocked
// senders in arrival order, so events apply in receipt order without any
// cross-user serialization.
func (e *Engine) lockUser(userID int64) func() {
	e.mu.Lock()
	ch, ok := e.locks[userID]
	if !ok {
		ch = make(chan struct{}, 1)
		e.locks[userID] = ch
	}
	e.mu.Unlock()

	ch <- struct{}{}
	return func() { <-ch }
}
