package workflow

import "bytes"

// StepKind enumerates the four transition policies a role state can
// declare via TransitionStep().
type StepKind int

const (
	// StepAwaitNext: wait for a specific peer state to arrive.
	StepAwaitNext StepKind = iota
	// StepSelfDriven: transition when local work completes.
	StepSelfDriven
	// StepUserDriven: transition when the embedding application requests it.
	StepUserDriven
	// StepFinished: terminal; never transitions.
	StepFinished
)

// TransitionStep is the policy a state's TransitionStep() query returns.
type TransitionStep struct {
	Kind     StepKind
	Expected []byte
}

// AwaitNextStep builds an AwaitNext policy expecting the given peer state
// bytes.
func AwaitNextStep(expected []byte) TransitionStep {
	return TransitionStep{Kind: StepAwaitNext, Expected: expected}
}

// SelfDrivenStep builds a SelfDriven policy.
func SelfDrivenStep() TransitionStep { return TransitionStep{Kind: StepSelfDriven} }

// UserDrivenStep builds a UserDriven policy.
func UserDrivenStep() TransitionStep { return TransitionStep{Kind: StepUserDriven} }

// FinishedStep builds a terminal policy.
func FinishedStep() TransitionStep { return TransitionStep{Kind: StepFinished} }

// State is one member of a role's finite tagged union. Implementations are
// small structs/consts, not open polymorphism: a role's TransitionStep() and
// NextState() are pure total functions over the tag, matching the
// discriminated-union design this is translated from. Any local-only
// payload (a subprocess pid) is excluded from Bytes(), matching the
// original's #[serde(skip)] fields.
type State interface {
	// Bytes returns the self-describing wire encoding of this state.
	Bytes() []byte
	String() string
	TransitionStep() TransitionStep
	NextState() State
}

// Equal reports whether two states serialize identically — the sole
// equality notion the engine uses, so that pid-carrying states compare
// equal regardless of their local-only payload.
func Equal(a, b State) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}
