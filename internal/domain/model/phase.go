package model

// Phase is the publicly visible stage of a round.
type Phase string

// Phases in the order a round walks through them.
const (
	PhaseWaiting      Phase = "waiting"
	PhaseHidingLosers Phase = "hiding-losers"
	PhaseExpanding    Phase = "expanding"
	PhaseContracting  Phase = "contracting"
	PhaseFading       Phase = "fading"
	PhaseRevealing    Phase = "revealing"
	PhaseResetting    Phase = "resetting"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// AcceptsTouches reports whether touch ingestion is allowed in this phase.
func (p Phase) AcceptsTouches() bool {
	return p == PhaseWaiting || p == PhaseResetting
}
