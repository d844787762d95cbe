package workflows

// StateMachine enforces forward-only status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewStateMachine creates a state machine from an explicit transition table
func NewStateMachine(transitions map[string][]string) *StateMachine {
	return &StateMachine{allowedTransitions: transitions}
}

// Settlement states for a bonus pool escrow record
const (
	SettlementPending              = "pending"
	SettlementAwaitingConfirmation = "awaiting_confirmation"
	SettlementFunded               = "funded"
	SettlementFailed               = "failed"
)

// NewSettlementStateMachine returns the state machine for bonus pool settlement
func NewSettlementStateMachine() *StateMachine {
	return NewStateMachine(map[string][]string{
		SettlementPending:              {SettlementAwaitingConfirmation},
		SettlementAwaitingConfirmation: {SettlementFunded, SettlementFailed},
		SettlementFunded:               {},
		SettlementFailed:               {},
	})
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}

// IsTerminal reports whether a status has no outgoing transitions
func (sm *StateMachine) IsTerminal(status string) bool {
	return len(sm.GetAllowedTransitions(status)) == 0
}
