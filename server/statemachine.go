package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sinp-protocol/sinp/core"
)

// StateMachine drives a single conversation through the server automaton:
// Received -> Validating -> Interpreting -> Deciding -> {Done, Negotiating}.
// It is not safe for concurrent use; handleConnection owns one per
// connection.
type StateMachine struct {
	state          core.ServerState
	config         Config
	conversationID *uuid.UUID
	lastMessageID  *uuid.UUID
	logger         core.Logger
	telemetry      core.Telemetry
}

// NewStateMachine creates a state machine starting in ServerReceived.
func NewStateMachine(config Config, logger core.Logger) *StateMachine {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &StateMachine{state: core.ServerReceived, config: config, logger: logger, telemetry: &core.NoOpTelemetry{}}
}

// WithTelemetry attaches a tracer; each pipeline stage below gets its own
// span. A nil telemetry is ignored, leaving the no-op default in place.
func (sm *StateMachine) WithTelemetry(telemetry core.Telemetry) *StateMachine {
	if telemetry != nil {
		sm.telemetry = telemetry
	}
	return sm
}

// State returns the current automaton state.
func (sm *StateMachine) State() core.ServerState {
	return sm.state
}

// Reset returns the state machine to ServerReceived for a new conversation.
func (sm *StateMachine) Reset() {
	sm.state = core.ServerReceived
	sm.conversationID = nil
	sm.lastMessageID = nil
}

// ProcessRequest runs request through validation, interpretation, and
// decision, executing the matched capability on EXECUTE. It implements the
// server half of the RFC request/response cycle.
func (sm *StateMachine) ProcessRequest(request *core.Request, registry *core.CapabilityRegistry) (*core.Response, error) {
	ctx, span := sm.telemetry.StartSpan(context.Background(), "sinp.process_request")
	defer span.End()
	span.SetAttribute("message_id", request.MessageID.String())

	if err := sm.stage(ctx, "validate", func() error {
		// A follow-up after CLARIFY/PROPOSE: the client responded, so the
		// automaton returns to Received before validating again.
		if sm.state == core.ServerNegotiating {
			if err := sm.transition(core.ServerReceived); err != nil {
				return err
			}
		}
		if err := sm.transition(core.ServerValidating); err != nil {
			return err
		}

		if err := core.CheckReplay(request.Timestamp, sm.config.ReplayWindow); err != nil {
			sm.state = core.ServerFailed
			return err
		}

		if sm.conversationID != nil {
			if request.ConversationID != *sm.conversationID {
				sm.state = core.ServerFailed
				return &core.FrameworkError{Op: "StateMachine.ProcessRequest", Kind: "validation", Message: "conversation_id mismatch", Err: core.ErrConversationMismatch}
			}
		} else {
			cid := request.ConversationID
			sm.conversationID = &cid
		}

		if sm.lastMessageID != nil && request.InResponseTo == nil {
			sm.state = core.ServerFailed
			return &core.FrameworkError{Op: "StateMachine.ProcessRequest", Kind: "validation", Message: "missing in_response_to for follow-up", Err: core.ErrUnexpectedMessageKind}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := sm.transition(core.ServerInterpreting); err != nil {
		return nil, err
	}

	var result core.InterpretationResult
	sm.span(ctx, "interpret", func() { result = registry.Interpret(request.Intent, request.Context) })

	if err := sm.transition(core.ServerDeciding); err != nil {
		return nil, err
	}

	var phiS float64
	policyPassed := true
	var action core.ActionDecision
	sm.span(ctx, "decide", func() {
		if result.Capability != nil {
			reliability := registry.GetReliability(result.Capability.ID)
			const availability = 1.0
			policyPassed = registry.CheckPolicy(request)
			phiS = core.ComputeServerConfidence(result.RawConfidence, reliability, availability, policyPassed)
		}

		hasBetterAlternative := len(result.Alternatives) > 0 && phiS < sm.config.Thresholds.TauExec
		action = core.DecideAction(phiS, request.Confidence, sm.config.Thresholds, hasBetterAlternative, !policyPassed, false)
	})
	span.SetAttribute("action", string(action))
	span.SetAttribute("confidence", phiS)

	responder := core.Responder{ID: "sinp-server", Capabilities: registry.CapabilityIDs()}
	interpretation := core.Interpretation{Text: result.Interpretation, Confidence: phiS}
	response := core.NewResponse(request, responder, interpretation, action, phiS)

	var metadata *core.ActionMetadata
	var err error
	sm.span(ctx, "act", func() { metadata, err = sm.applyDecision(action, result, request, registry, policyPassed) })
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	response.ActionMetadata = metadata

	if action == core.ActionPropose {
		response.Alternatives = make([]core.Alternative, 0, len(result.Alternatives))
		for _, alt := range result.Alternatives {
			cost := alt.Capability.CostUnits
			response.Alternatives = append(response.Alternatives, core.Alternative{
				Interpretation: alt.Interpretation,
				Confidence:     alt.Confidence,
				EstimatedCost:  &cost,
				CapabilityID:   alt.Capability.ID,
			})
		}
	}

	sm.lastMessageID = &response.MessageID
	return response, nil
}

func (sm *StateMachine) applyDecision(action core.ActionDecision, result core.InterpretationResult, request *core.Request, registry *core.CapabilityRegistry, policyPassed bool) (*core.ActionMetadata, error) {
	switch action {
	case core.ActionExecute:
		sm.state = core.ServerDone
		var resultJSON json.RawMessage
		if result.Capability != nil {
			value, err := registry.Execute(result.Capability.ID, request)
			if err != nil {
				return nil, err
			}
			data, err := json.Marshal(value)
			if err != nil {
				return nil, &core.FrameworkError{Op: "StateMachine.applyDecision", Kind: "serialization", Err: err}
			}
			resultJSON = data
		}
		return &core.ActionMetadata{Result: resultJSON}, nil

	case core.ActionClarify:
		sm.state = core.ServerNegotiating
		return &core.ActionMetadata{
			Questions: []string{
				"Could you provide more details?",
				"What specific action would you like?",
			},
		}, nil

	case core.ActionPropose:
		sm.state = core.ServerNegotiating
		return &core.ActionMetadata{}, nil

	case core.ActionRefuse:
		sm.state = core.ServerDone
		code := core.RefusalMalformedContext
		switch {
		case !policyPassed:
			code = core.RefusalPolicyViolation
		case result.Capability == nil:
			code = core.RefusalCapabilityMissing
		}
		reason := fmt.Sprintf("request refused: %s", code)
		return &core.ActionMetadata{ReasonCode: &code, Reason: &reason}, nil

	default:
		return nil, &core.FrameworkError{Op: "StateMachine.applyDecision", Kind: "protocol", Message: fmt.Sprintf("unknown action %q", action)}
	}
}

// span runs fn inside a child span named stage.
func (sm *StateMachine) span(ctx context.Context, stage string, fn func()) {
	_, s := sm.telemetry.StartSpan(ctx, "sinp."+stage)
	defer s.End()
	fn()
}

// stage runs fn inside a child span named stage, recording fn's error on
// the span before returning it.
func (sm *StateMachine) stage(ctx context.Context, stage string, fn func() error) error {
	_, s := sm.telemetry.StartSpan(ctx, "sinp."+stage)
	defer s.End()
	if err := fn(); err != nil {
		s.RecordError(err)
		return err
	}
	return nil
}

// transition moves to target if legal from the current state, logging the
// transition at debug level and failing the automaton otherwise.
func (sm *StateMachine) transition(target core.ServerState) error {
	if !sm.state.CanTransitionTo(target) {
		err := &core.FrameworkError{
			Op:      "StateMachine.transition",
			Kind:    "protocol",
			Message: fmt.Sprintf("invalid transition: %s -> %s", sm.state, target),
			Err:     core.ErrInvalidStateTransition,
		}
		sm.state = core.ServerFailed
		return err
	}
	sm.logger.Debug("state transition", map[string]interface{}{"from": string(sm.state), "to": string(target)})
	sm.state = target
	return nil
}
