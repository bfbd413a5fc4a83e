package flow_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/flow"
	"github.com/fitcoach/intake-bot/internal/notify"
	"github.com/fitcoach/intake-bot/internal/repository"
	"github.com/fitcoach/intake-bot/internal/service"
	"github.com/fitcoach/intake-bot/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type engineFixture struct {
	db       *gorm.DB
	repos    *repository.Repositories
	engine   *flow.Engine
	recorder *testutil.RecorderNotifier
}

func newEngineFixture(t *testing.T, operators ...int64) *engineFixture {
	t.Helper()

	testDB, repos := testutil.NewTestRepositories(t)
	recorder := testutil.NewRecorderNotifier()
	dispatcher := notify.NewDispatcher(repos.Submission, recorder, operators)
	promoSvc := service.NewPromoService(repos.Promo)

	return &engineFixture{
		db:       testDB.DB,
		repos:    repos,
		engine:   flow.NewEngine(repos.Submission, promoSvc, dispatcher),
		recorder: recorder,
	}
}

func answer(userID int64, text string) flow.Event {
	return flow.Event{Kind: flow.EventAnswer, UserID: userID, Text: text}
}

func selectOption(userID int64, optionID string) flow.Event {
	return flow.Event{Kind: flow.EventSelectOption, UserID: userID, OptionID: optionID}
}

// advanceToAge walks a fresh session through the gender question.
func advanceToAge(t *testing.T, f *engineFixture, userID int64) {
	t.Helper()
	ctx := context.Background()

	_, err := f.engine.Handle(ctx, flow.Event{Kind: flow.EventStartIntake, UserID: userID})
	require.NoError(t, err)
	_, err = f.engine.Handle(ctx, selectOption(userID, flow.OptionGenderMale))
	require.NoError(t, err)
}

func TestEngine_StartIntake(t *testing.T) {
	f := newEngineFixture(t)
	user := testutil.NewUserBuilder().Build(t, f.db)
	ctx := context.Background()

	prompts, err := f.engine.Handle(ctx, flow.Event{Kind: flow.EventStartIntake, UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Equal(t, "What is your gender?", prompts[0].Text)
	require.Len(t, prompts[0].Options, 2)
	assert.Equal(t, 1, f.engine.ActiveSessions())
}

func TestEngine_AgeValidation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		accepted bool
	}{
		{name: "lower bound", input: "1", accepted: true},
		{name: "upper bound", input: "150", accepted: true},
		{name: "zero", input: "0", accepted: false},
		{name: "above range", input: "151", accepted: false},
		{name: "negative", input: "-5", accepted: false},
		{name: "not a number", input: "thirty", accepted: false},
		{name: "decimal", input: "30.5", accepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := testutil.NewUserBuilder().Build(t, f.db)
			advanceToAge(t, f, user.ID)

			prompts, err := f.engine.Handle(ctx, answer(user.ID, tt.input))
			require.NoError(t, err)
			require.Len(t, prompts, 1)

			if tt.accepted {
				assert.Contains(t, prompts[0].Text, "weight")
			} else {
				assert.Equal(t, "Please enter a valid age (1 to 150):", prompts[0].Text)
			}
		})
	}
}

func TestEngine_WeightValidation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		accepted bool
	}{
		{name: "typical", input: "75.5", accepted: true},
		{name: "comma separator", input: "75,5", accepted: true},
		{name: "integer", input: "80", accepted: true},
		{name: "lower bound", input: "1", accepted: true},
		{name: "upper bound", input: "500", accepted: true},
		{name: "below range", input: "0.5", accepted: false},
		{name: "above range", input: "500.1", accepted: false},
		{name: "not a number", input: "heavy", accepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := testutil.NewUserBuilder().Build(t, f.db)
			advanceToAge(t, f, user.ID)
			_, err := f.engine.Handle(ctx, answer(user.ID, "30"))
			require.NoError(t, err)

			prompts, err := f.engine.Handle(ctx, answer(user.ID, tt.input))
			require.NoError(t, err)
			require.Len(t, prompts, 1)

			if tt.accepted {
				assert.Contains(t, prompts[0].Text, "workouts")
			} else {
				assert.Equal(t, "Please enter a valid weight (1 to 500 kg):", prompts[0].Text)
			}
		})
	}
}

func TestEngine_WeightSeparatorEquivalence(t *testing.T) {
	f := newEngineFixture(t, 100)
	ctx := context.Background()

	complete := func(weightInput string) *domain.Submission {
		user := testutil.NewUserBuilder().Build(t, f.db)
		advanceToAge(t, f, user.ID)
		for _, text := range []string{"30", weightInput, "3"} {
			_, err := f.engine.Handle(ctx, answer(user.ID, text))
			require.NoError(t, err)
		}
		_, err := f.engine.Handle(ctx, flow.Event{Kind: flow.EventSkip, UserID: user.ID})
		require.NoError(t, err)
		_, err = f.engine.Handle(ctx, flow.Event{Kind: flow.EventSkip, UserID: user.ID})
		require.NoError(t, err)

		var sub domain.Submission
		require.NoError(t, f.db.Where("user_id = ?", user.ID).First(&sub).Error)
		return &sub
	}

	dot := complete("75.5")
	comma := complete("75,5")
	assert.True(t, dot.Weight.Equal(comma.Weight),
		"dot and comma inputs must store the same weight, got %s and %s", dot.Weight, comma.Weight)
}

func TestEngine_WorkoutsValidation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		accepted bool
	}{
		{name: "lower bound", input: "1", accepted: true},
		{name: "upper bound", input: "7", accepted: true},
		{name: "zero", input: "0", accepted: false},
		{name: "above range", input: "8", accepted: false},
		{name: "not a number", input: "daily", accepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := testutil.NewUserBuilder().Build(t, f.db)
			advanceToAge(t, f, user.ID)
			for _, text := range []string{"30", "75.5"} {
				_, err := f.engine.Handle(ctx, answer(user.ID, text))
				require.NoError(t, err)
			}

			prompts, err := f.engine.Handle(ctx, answer(user.ID, tt.input))
			require.NoError(t, err)
			require.Len(t, prompts, 1)

			if tt.accepted {
				assert.Contains(t, prompts[0].Text, "diet")
			} else {
				assert.Equal(t, "Please enter a number from 1 to 7:", prompts[0].Text)
			}
		})
	}
}

func TestEngine_Cancel(t *testing.T) {
	f := newEngineFixture(t)
	user := testutil.NewUserBuilder().Build(t, f.db)
	ctx := context.Background()

	advanceToAge(t, f, user.ID)
	require.Equal(t, 1, f.engine.ActiveSessions())

	prompts, err := f.engine.Handle(ctx, flow.Event{Kind: flow.EventCancel, UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Equal(t, "Okay, starting over.", prompts[0].Text)
	assert.Equal(t, 0, f.engine.ActiveSessions())

	// Answers after a cancel land nowhere
	prompts, err = f.engine.Handle(ctx, answer(user.ID, "30"))
	require.NoError(t, err)
	assert.Empty(t, prompts)

	var count int64
	require.NoError(t, f.db.Model(&domain.Submission{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEngine_AnswerWithoutSession(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	prompts, err := f.engine.Handle(ctx, answer(12345, "hello"))
	require.NoError(t, err)
	assert.Empty(t, prompts)
}

func TestEngine_FullIntakeWithPromo(t *testing.T) {
	f := newEngineFixture(t, 100, 200)
	ctx := context.Background()

	testutil.NewPromoCodeBuilder().
		WithCode("SUMMER").
		WithDescription("10% off").
		Build(t, f.db)

	user := testutil.NewUserBuilder().
		WithUsername("full_flow").
		WithFirstName("Anna").
		Build(t, f.db)

	// Redeem first so the claim is pending when the form completes
	_, err := f.engine.Handle(ctx, flow.Event{Kind: flow.EventEnterPromo, UserID: user.ID})
	require.NoError(t, err)
	prompts, err := f.engine.Handle(ctx, answer(user.ID, "summer"))
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0].Text, "'SUMMER' applied!")

	_, err = f.engine.Handle(ctx, flow.Event{Kind: flow.EventStartIntake, UserID: user.ID})
	require.NoError(t, err)
	_, err = f.engine.Handle(ctx, selectOption(user.ID, flow.OptionGenderFemale))
	require.NoError(t, err)
	for _, text := range []string{"28", "62,5", "4"} {
		_, err = f.engine.Handle(ctx, answer(user.ID, text))
		require.NoError(t, err)
	}
	_, err = f.engine.Handle(ctx, selectOption(user.ID, flow.OptionSkip))
	require.NoError(t, err)
	prompts, err = f.engine.Handle(ctx, selectOption(user.ID, flow.OptionSkip))
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Equal(t, "Thank you! We will get in touch with you shortly.", prompts[0].Text)
	assert.Equal(t, 0, f.engine.ActiveSessions())

	// Exactly one submission, reported, with the code attached
	var subs []domain.Submission
	require.NoError(t, f.db.Where("user_id = ?", user.ID).Find(&subs).Error)
	require.Len(t, subs, 1)
	sub := subs[0]
	assert.Equal(t, domain.GenderFemale, sub.Gender)
	assert.Equal(t, 28, sub.Age)
	assert.True(t, sub.Weight.Equal(decimal.NewFromFloat(62.5)))
	assert.Equal(t, 4, sub.WorkoutsPerWeek)
	assert.Nil(t, sub.Diet)
	assert.Nil(t, sub.HealthNote)
	assert.True(t, sub.Reported)

	full, err := f.repos.Submission.GetWithCodes(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"SUMMER"}, full.PromoCodes())

	// Both operators got exactly one message mentioning the code
	assert.Equal(t, 1, f.recorder.CountFor(100))
	assert.Equal(t, 1, f.recorder.CountFor(200))
	for _, n := range f.recorder.Notifications() {
		assert.Contains(t, n.Text, "SUMMER")
		assert.Contains(t, n.Text, "Anna")
	}
}

func TestEngine_DietAndHealthAnswers(t *testing.T) {
	f := newEngineFixture(t, 100)
	ctx := context.Background()

	user := testutil.NewUserBuilder().Build(t, f.db)
	advanceToAge(t, f, user.ID)
	for _, text := range []string{"45", "90", "2"} {
		_, err := f.engine.Handle(ctx, answer(user.ID, text))
		require.NoError(t, err)
	}

	longNote := strings.Repeat("x", 600)
	_, err := f.engine.Handle(ctx, answer(user.ID, "mostly vegetarian"))
	require.NoError(t, err)
	_, err = f.engine.Handle(ctx, answer(user.ID, longNote))
	require.NoError(t, err)

	var sub domain.Submission
	require.NoError(t, f.db.Where("user_id = ?", user.ID).First(&sub).Error)
	require.NotNil(t, sub.Diet)
	assert.Equal(t, "mostly vegetarian", *sub.Diet)
	require.NotNil(t, sub.HealthNote)
	assert.Len(t, []rune(*sub.HealthNote), 500)
}

func TestEngine_PromoPrompts(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	testutil.NewPromoCodeBuilder().WithCode("VIP9").SingleUse().Build(t, f.db)

	winner := testutil.NewUserBuilder().Build(t, f.db)
	latecomer := testutil.NewUserBuilder().Build(t, f.db)

	tests := []struct {
		name   string
		userID int64
		code   string
		want   string
		setup  func(t *testing.T)
	}{
		{
			name:   "unknown code",
			userID: winner.ID,
			code:   "FAKE123",
			want:   "Promo code not found. Please check the spelling.",
		},
		{
			name:   "single use still free",
			userID: winner.ID,
			code:   "vip9",
			want:   "Promo code 'VIP9' applied!",
		},
		{
			name:   "single use already attached",
			userID: latecomer.ID,
			code:   "VIP9",
			want:   "This promo code has already been used.",
			setup: func(t *testing.T) {
				sub := testutil.NewSubmissionBuilder().WithUser(winner).Build(t, f.db)
				promoSvc := service.NewPromoService(f.repos.Promo)
				attached, err := promoSvc.Attach(ctx, winner.ID, sub.ID)
				require.NoError(t, err)
				require.Equal(t, 1, attached)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup(t)
			}

			_, err := f.engine.Handle(ctx, flow.Event{Kind: flow.EventEnterPromo, UserID: tt.userID})
			require.NoError(t, err)

			prompts, err := f.engine.Handle(ctx, answer(tt.userID, tt.code))
			require.NoError(t, err)
			require.Len(t, prompts, 1)
			assert.Contains(t, prompts[0].Text, tt.want)
		})
	}
}
