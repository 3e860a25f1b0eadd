package orchestrator

// State is a step of one analysis
type State int

const (
	StateIdle State = iota
	StateCollecting
	StateFusing
	StateGenerating
	StateCached
	StateCompleted
	StateCancelled
	StateFailed
)

var stateNames = [...]string{"idle", "collecting", "fusing", "generating", "cached", "completed", "cancelled", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can follow
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// transitions lists the allowed next states. Cancelled is reachable from
// every non-terminal state and is not repeated here.
var transitions = map[State][]State{
	StateIdle:       {StateCollecting, StateCompleted},
	StateCollecting: {StateFusing, StateFailed},
	StateFusing:     {StateGenerating},
	StateGenerating: {StateCached, StateCompleted},
	StateCached:     {StateCompleted},
}

// CanTransition reports whether from -> to is a legal step
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateCancelled {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
