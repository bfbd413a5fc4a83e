package flow

import "github.com/shopspring/decimal"

// State is where a user's conversation currently sits. Sessions are
// in-memory only; a restart drops them and the user starts over.
type State int

const (
	StateGender State = iota
	StateAge
	StateWeight
	StateWorkouts
	StateDiet
	StateHealthNote
	// StateAwaitingPromo is the one-question promo entry mode. Arming it
	// replaces any intake session in progress.
	StateAwaitingPromo
)

// Answers accumulates the intake fields. Each field is written only by the
// state that collects it, and the engine is the sole writer.
type Answers struct {
	Gender          string
	Age             int
	Weight          decimal.Decimal
	WorkoutsPerWeek int
	Diet            *string
	HealthNote      *string
}

// Session is one user's live conversation state.
type Session struct {
	UserID  int64
	State   State
	Answers Answers
}

type EventKind int

const (
	EventStartIntake EventKind = iota
	EventAnswer
	EventSelectOption
	EventSkip
	EventCancel
	EventEnterPromo
)

// Event is one inbound user action, already mapped from the transport's
// native message or button press.
type Event struct {
	Kind     EventKind
	UserID   int64
	Text     string
	OptionID string
}

// Option is a button the transport should render alongside a prompt.
type Option struct {
	ID    string
	Label string
}

// Prompt is one outbound instruction for the transport adapter. The engine
// never formats transport-specific markup.
type Prompt struct {
	Text    string
	Options []Option
}

// Button IDs understood by the engine.
const (
	OptionGenderMale   = "gender:male"
	OptionGenderFemale = "gender:female"
	OptionSkip         = "skip"
)
