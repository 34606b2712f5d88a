package ledger

// DisputeState tracks the dispute lifecycle of a logged entry.
type DisputeState string

const (
	// DisputeClean marks an entry that has never been disputed.
	DisputeClean DisputeState = "CLEAN"
	// DisputeDisputed marks an entry whose funds are currently held.
	DisputeDisputed DisputeState = "DISPUTED"
	// DisputeResolved marks a dispute closed in the client's favor.
	// Resolved is terminal: the entry cannot be disputed again.
	DisputeResolved DisputeState = "RESOLVED"
	// DisputeChargedBack marks a dispute closed against the client.
	DisputeChargedBack DisputeState = "CHARGED_BACK"
)

// allowedTransitions defines the valid dispute state transitions.
func allowedTransitions() map[DisputeState][]DisputeState {
	return map[DisputeState][]DisputeState{
		DisputeClean:       {DisputeDisputed},
		DisputeDisputed:    {DisputeResolved, DisputeChargedBack},
		DisputeResolved:    {},
		DisputeChargedBack: {},
	}
}

// CanTransition reports whether moving from s to target is a valid
// dispute lifecycle step.
func (s DisputeState) CanTransition(target DisputeState) bool {
	for _, next := range allowedTransitions()[s] {
		if next == target {
			return true
		}
	}
	return false
}
