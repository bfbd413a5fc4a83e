package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var idCounter atomic.Int64

func init() {
	idCounter.Store(time.Now().UnixNano() % 1_000_000_000)
}

// NextID returns a chat ID unique within the test run
func NextID() int64 {
	return idCounter.Add(1)
}

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	id        int64
	username  string
	firstName string
	utmSource string
	utmMedium string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		id:        NextID(),
		username:  fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		firstName: "Test",
	}
}

// WithID sets the Telegram chat ID
func (b *UserBuilder) WithID(id int64) *UserBuilder {
	b.id = id
	return b
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

// WithFirstName sets the first name
func (b *UserBuilder) WithFirstName(name string) *UserBuilder {
	b.firstName = name
	return b
}

// WithUTM sets the acquisition source and medium
func (b *UserBuilder) WithUTM(source, medium string) *UserBuilder {
	b.utmSource = source
	b.utmMedium = medium
	return b
}

// Build creates the user in the database
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:        b.id,
		Username:  b.username,
		FirstName: b.firstName,
		UTMSource: b.utmSource,
		UTMMedium: b.utmMedium,
		CreatedAt: time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// PromoCodeBuilder creates test promo codes
type PromoCodeBuilder struct {
	code        string
	description string
	singleUse   bool
}

// NewPromoCodeBuilder creates a new PromoCodeBuilder with default values
func NewPromoCodeBuilder() *PromoCodeBuilder {
	return &PromoCodeBuilder{
		code:        fmt.Sprintf("PROMO%s", uuid.New().String()[:8]),
		description: "Test promo",
	}
}

// WithCode sets the code text
func (b *PromoCodeBuilder) WithCode(code string) *PromoCodeBuilder {
	b.code = code
	return b
}

// WithDescription sets the description
func (b *PromoCodeBuilder) WithDescription(desc string) *PromoCodeBuilder {
	b.description = desc
	return b
}

// SingleUse marks the code as redeemable once
func (b *PromoCodeBuilder) SingleUse() *PromoCodeBuilder {
	b.singleUse = true
	return b
}

// Build creates the promo code in the database
func (b *PromoCodeBuilder) Build(t *testing.T, db *gorm.DB) *domain.PromoCode {
	t.Helper()

	promo := &domain.PromoCode{
		Code:        b.code,
		Description: b.description,
		SingleUse:   b.singleUse,
		CreatedAt:   time.Now(),
	}

	if err := db.Create(promo).Error; err != nil {
		t.Fatalf("failed to create promo code: %v", err)
	}

	return promo
}

// SubmissionBuilder creates completed questionnaire rows
type SubmissionBuilder struct {
	user     *domain.User
	gender   string
	age      int
	weight   decimal.Decimal
	workouts int
	diet     *string
	health   *string
	reported bool
}

// NewSubmissionBuilder creates a new SubmissionBuilder with default values
func NewSubmissionBuilder() *SubmissionBuilder {
	return &SubmissionBuilder{
		gender:   domain.GenderMale,
		age:      30,
		weight:   decimal.NewFromFloat(75.5),
		workouts: 3,
	}
}

// WithUser sets the submitting user
func (b *SubmissionBuilder) WithUser(user *domain.User) *SubmissionBuilder {
	b.user = user
	return b
}

// WithGender sets the gender answer
func (b *SubmissionBuilder) WithGender(gender string) *SubmissionBuilder {
	b.gender = gender
	return b
}

// WithAge sets the age answer
func (b *SubmissionBuilder) WithAge(age int) *SubmissionBuilder {
	b.age = age
	return b
}

// WithWeight sets the weight answer
func (b *SubmissionBuilder) WithWeight(weight decimal.Decimal) *SubmissionBuilder {
	b.weight = weight
	return b
}

// WithDiet sets the diet answer
func (b *SubmissionBuilder) WithDiet(diet string) *SubmissionBuilder {
	b.diet = &diet
	return b
}

// WithHealthNote sets the health note answer
func (b *SubmissionBuilder) WithHealthNote(note string) *SubmissionBuilder {
	b.health = &note
	return b
}

// Reported marks the submission as already delivered to operators
func (b *SubmissionBuilder) Reported() *SubmissionBuilder {
	b.reported = true
	return b
}

// Build creates the submission in the database
func (b *SubmissionBuilder) Build(t *testing.T, db *gorm.DB) *domain.Submission {
	t.Helper()

	if b.user == nil {
		b.user = NewUserBuilder().Build(t, db)
	}

	sub := &domain.Submission{
		UserID:          b.user.ID,
		Gender:          b.gender,
		Age:             b.age,
		Weight:          b.weight,
		WorkoutsPerWeek: b.workouts,
		Diet:            b.diet,
		HealthNote:      b.health,
		Reported:        b.reported,
		CreatedAt:       time.Now(),
	}

	if err := db.Omit("User", "Redemptions").Create(sub).Error; err != nil {
		t.Fatalf("failed to create submission: %v", err)
	}

	return sub
}

// RecordedNotification is one delivery captured by RecorderNotifier
type RecordedNotification struct {
	OperatorID int64
	Text       string
}

// RecorderNotifier captures operator deliveries instead of sending them
type RecorderNotifier struct {
	mu            sync.Mutex
	notifications []RecordedNotification
	Err           error // returned from Notify when set
}

// NewRecorderNotifier creates an empty recorder
func NewRecorderNotifier() *RecorderNotifier {
	return &RecorderNotifier{}
}

// Notify records the delivery
func (r *RecorderNotifier) Notify(_ context.Context, operatorID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}

	r.notifications = append(r.notifications, RecordedNotification{
		OperatorID: operatorID,
		Text:       text,
	})
	return nil
}

// Notifications returns a copy of all recorded deliveries
func (r *RecorderNotifier) Notifications() []RecordedNotification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RecordedNotification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// CountFor returns how many deliveries went to the given operator
func (r *RecorderNotifier) CountFor(operatorID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, n := range r.notifications {
		if n.OperatorID == operatorID {
			count++
		}
	}
	return count
}

// Reset clears recorded deliveries
func (r *RecorderNotifier) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
}
