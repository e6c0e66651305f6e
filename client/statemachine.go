package client

import (
	"fmt"

	"github.com/sinp-protocol/sinp/core"
)

// NextActionKind names what the client should do after receiving a
// Response.
type NextActionKind string

const (
	NextDone     NextActionKind = "done"
	NextClarify  NextActionKind = "clarify"
	NextPropose  NextActionKind = "propose"
	NextRefused  NextActionKind = "refused"
)

// NextAction is what the client should do after StateMachine processes a
// Response: EXECUTE satisfies the conversation, CLARIFY/PROPOSE need a
// follow-up request, REFUSE ends it.
type NextAction struct {
	Kind         NextActionKind
	Response     *core.Response
	Questions    []string
	Alternatives []core.Alternative
	Reason       string
}

// StateMachine drives a single conversation through the client automaton:
// Init -> Pending -> {Satisfied, Refining, Failed}, with Refining looping
// back to Pending on a follow-up request.
type StateMachine struct {
	state          core.ClientState
	conversationID *string
	lastResponse   *core.Response
}

// NewStateMachine creates a client state machine starting in ClientInit.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: core.ClientInit}
}

// State returns the current automaton state.
func (sm *StateMachine) State() core.ClientState {
	return sm.state
}

// LastResponse returns the most recently received Response, or nil before
// the first response arrives.
func (sm *StateMachine) LastResponse() *core.Response {
	return sm.lastResponse
}

// OnRequestSent records request as sent and transitions towards Pending.
func (sm *StateMachine) OnRequestSent(request *core.Request) error {
	if sm.state == core.ClientInit {
		id := request.ConversationID.String()
		sm.conversationID = &id
	}
	return sm.transition(core.ClientPending)
}

// OnResponseReceived processes response and returns what the client should
// do next, transitioning the automaton accordingly.
func (sm *StateMachine) OnResponseReceived(response *core.Response) (*NextAction, error) {
	sm.lastResponse = response

	switch response.Action {
	case core.ActionExecute:
		if err := sm.transition(core.ClientSatisfied); err != nil {
			return nil, err
		}
		return &NextAction{Kind: NextDone, Response: response}, nil

	case core.ActionClarify:
		if err := sm.transition(core.ClientRefining); err != nil {
			return nil, err
		}
		var questions []string
		if response.ActionMetadata != nil {
			questions = response.ActionMetadata.Questions
		}
		return &NextAction{Kind: NextClarify, Response: response, Questions: questions}, nil

	case core.ActionPropose:
		if err := sm.transition(core.ClientRefining); err != nil {
			return nil, err
		}
		return &NextAction{Kind: NextPropose, Response: response, Alternatives: response.Alternatives}, nil

	case core.ActionRefuse:
		if err := sm.transition(core.ClientFailed); err != nil {
			return nil, err
		}
		reason := "request refused"
		if response.ActionMetadata != nil && response.ActionMetadata.Reason != nil {
			reason = *response.ActionMetadata.Reason
		}
		return &NextAction{Kind: NextRefused, Response: response, Reason: reason}, nil

	default:
		return nil, &core.FrameworkError{Op: "StateMachine.OnResponseReceived", Kind: "protocol", Message: fmt.Sprintf("unknown action %q", response.Action)}
	}
}

// OnClarificationProvided records that the user answered a CLARIFY
// question, returning the automaton to Pending for the follow-up request.
func (sm *StateMachine) OnClarificationProvided() error {
	return sm.transition(core.ClientPending)
}

// OnProposalAccepted records acceptance of a PROPOSE alternative.
func (sm *StateMachine) OnProposalAccepted() error {
	return sm.transition(core.ClientPending)
}

// OnProposalRejected records rejection of a PROPOSE alternative.
func (sm *StateMachine) OnProposalRejected() error {
	return sm.transition(core.ClientPending)
}

// Abandon ends the conversation without satisfaction.
func (sm *StateMachine) Abandon() error {
	return sm.transition(core.ClientAbandoned)
}

// Reset returns the state machine to ClientInit for a new conversation.
func (sm *StateMachine) Reset() {
	sm.state = core.ClientInit
	sm.conversationID = nil
	sm.lastResponse = nil
}

func (sm *StateMachine) transition(target core.ClientState) error {
	if !sm.state.CanTransitionTo(target) {
		err := &core.FrameworkError{
			Op:      "StateMachine.transition",
			Kind:    "protocol",
			Message: fmt.Sprintf("invalid transition: %s -> %s", sm.state, target),
			Err:     core.ErrInvalidStateTransition,
		}
		sm.state = core.ClientFailed
		return err
	}
	sm.state = target
	return nil
}
