package migrate

// State is the lifecycle state of a whole run.
type State string

const (
	StateInitialized            State = "initialized"
	StateFetchingReferenceData  State = "fetching_reference_data"
	StateMigratingContent       State = "migrating_content"
	StateResolvingPageHierarchy State = "resolving_page_hierarchy"
	StateCompleted              State = "completed"
	StateFailed                 State = "failed"
)

var nextStates = map[State][]State{
	StateInitialized:            {StateFetchingReferenceData, StateFailed},
	StateFetchingReferenceData:  {StateMigratingContent, StateFailed},
	StateMigratingContent:       {StateResolvingPageHierarchy, StateCompleted, StateFailed},
	StateResolvingPageHierarchy: {StateCompleted, StateFailed},
}

// CanTransition reports whether a run may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range nextStates[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
