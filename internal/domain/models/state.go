package models

// State is a participant's position in the study flow. It is never persisted:
// the orchestrator reconstructs it from which records exist, so a process
// restart resumes a session exactly where it was.
type State string

const (
	StateNew               State = "new"
	StateScenarioGenerated State = "scenario_generated"
	StateConversing        State = "conversing"
	StateQuestionnaire     State = "questionnaire"
	StateCompleted         State = "completed"
	StateAbandoned         State = "abandoned"
)

// Classify derives the session state from the persisted records of a
// participant. This is the source of truth for resume correctness.
//
// StateQuestionnaire never appears here: nothing is persisted between the
// last conversation turn and the questionnaire row, so a resumed session
// lands back in StateConversing and the participant re-enters the
// questionnaire from there.
func Classify(participant *Participant, hasScenario bool, turnCount int, hasQuestionnaire bool) State {
	switch {
	case participant == nil:
		return StateNew
	case participant.Status == StatusAbandoned:
		return StateAbandoned
	case hasQuestionnaire || participant.Status == StatusCompleted:
		return StateCompleted
	case turnCount > 0:
		return StateConversing
	case hasScenario:
		return StateScenarioGenerated
	default:
		return StateNew
	}
}

// Terminal reports whether no further participant-driven transitions are
// legal from s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAbandoned
}
