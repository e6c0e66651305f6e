package core

// ServerState is one state of the server automaton (RFC Section 5):
// Received -> Validating -> Interpreting -> Deciding -> {Done, Negotiating}.
type ServerState string

const (
	ServerReceived     ServerState = "RECEIVED"
	ServerValidating   ServerState = "VALIDATING"
	ServerInterpreting ServerState = "INTERPRETING"
	ServerDeciding     ServerState = "DECIDING"
	ServerNegotiating  ServerState = "NEGOTIATING"
	ServerDone         ServerState = "DONE"
	ServerFailed       ServerState = "FAILED"
)

// IsTerminal reports whether s ends the server automaton.
func (s ServerState) IsTerminal() bool {
	return s == ServerDone || s == ServerFailed
}

// ValidTransitions lists the states s may legally move to next.
func (s ServerState) ValidTransitions() []ServerState {
	switch s {
	case ServerReceived:
		return []ServerState{ServerValidating, ServerFailed}
	case ServerValidating:
		return []ServerState{ServerInterpreting, ServerFailed}
	case ServerInterpreting:
		return []ServerState{ServerDeciding, ServerFailed}
	case ServerDeciding:
		return []ServerState{ServerDone, ServerNegotiating, ServerFailed}
	case ServerNegotiating:
		return []ServerState{ServerReceived, ServerDone, ServerFailed}
	default:
		return nil
	}
}

// CanTransitionTo reports whether target is a legal next state from s.
func (s ServerState) CanTransitionTo(target ServerState) bool {
	for _, t := range s.ValidTransitions() {
		if t == target {
			return true
		}
	}
	return false
}

// ClientState is one state of the client automaton.
type ClientState string

const (
	ClientInit      ClientState = "INIT"
	ClientPending   ClientState = "PENDING"
	ClientRefining  ClientState = "REFINING"
	ClientSatisfied ClientState = "SATISFIED"
	ClientAbandoned ClientState = "ABANDONED"
	ClientFailed    ClientState = "FAILED"
)

// IsTerminal reports whether s ends the client automaton.
func (s ClientState) IsTerminal() bool {
	return s == ClientSatisfied || s == ClientAbandoned || s == ClientFailed
}

// ValidTransitions lists the states s may legally move to next.
func (s ClientState) ValidTransitions() []ClientState {
	switch s {
	case ClientInit:
		return []ClientState{ClientPending, ClientFailed}
	case ClientPending:
		return []ClientState{ClientRefining, ClientSatisfied, ClientFailed}
	case ClientRefining:
		return []ClientState{ClientPending, ClientAbandoned, ClientFailed}
	default:
		return nil
	}
}

// CanTransitionTo reports whether target is a legal next state from s.
func (s ClientState) CanTransitionTo(target ClientState) bool {
	for _, t := range s.ValidTransitions() {
		if t == target {
			return true
		}
	}
	return false
}

// ServerEvent drives transitions in the server automaton.
type ServerEvent struct {
	Kind              ServerEventKind
	ValidationError   string
	Confidence        float64
	CompletionError   string
}

// ServerEventKind names the variant of a ServerEvent.
type ServerEventKind string

const (
	EventRequestReceived       ServerEventKind = "request_received"
	EventValidationPassed      ServerEventKind = "validation_passed"
	EventValidationFailed      ServerEventKind = "validation_failed"
	EventInterpretationDone    ServerEventKind = "interpretation_complete"
	EventDecisionExecute       ServerEventKind = "decision_execute"
	EventDecisionClarify       ServerEventKind = "decision_clarify"
	EventDecisionPropose       ServerEventKind = "decision_propose"
	EventDecisionRefuse        ServerEventKind = "decision_refuse"
	EventClientResponded       ServerEventKind = "client_responded"
	EventActionCompleted       ServerEventKind = "action_completed"
	EventServerError           ServerEventKind = "error"
)

// ClientEvent drives transitions in the client automaton.
type ClientEvent struct {
	Kind  ClientEventKind
	Error string
}

// ClientEventKind names the variant of a ClientEvent.
type ClientEventKind string

const (
	EventIntentSubmitted     ClientEventKind = "intent_submitted"
	EventRequestSent         ClientEventKind = "request_sent"
	EventResponseExecute     ClientEventKind = "response_execute"
	EventResponseClarify     ClientEventKind = "response_clarify"
	EventResponsePropose     ClientEventKind = "response_propose"
	EventResponseRefuse      ClientEventKind = "response_refuse"
	EventClarificationGiven  ClientEventKind = "clarification_provided"
	EventProposalAccepted    ClientEventKind = "proposal_accepted"
	EventProposalRejected    ClientEventKind = "proposal_rejected"
	EventAbandoned           ClientEventKind = "abandoned"
	EventClientError         ClientEventKind = "error"
)
