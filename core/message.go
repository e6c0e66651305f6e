package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProtocolVersion is the SINP wire-format version this module implements.
const ProtocolVersion = "0.1"

// AuthMethod names how a Sender authenticated to the server.
type AuthMethod string

const (
	AuthToken       AuthMethod = "token"
	AuthCertificate AuthMethod = "certificate"
	AuthAPIKey      AuthMethod = "api_key"
	AuthNone        AuthMethod = "none"
)

// Sender identifies the party making a Request.
type Sender struct {
	ID         string     `json:"id"`
	AuthMethod AuthMethod `json:"auth_method"`
}

// ContextType names the shape of Context.Content.
type ContextType string

const (
	ContextTranscript ContextType = "transcript"
	ContextSummary    ContextType = "summary"
	ContextStructured ContextType = "structured"
)

// Context carries conversation history/state alongside a Request. SemanticHash
// is the caller's claimed hash of (intent, content) for replay/integrity
// checking — ValidateSemanticHash recomputes and compares it server-side.
type Context struct {
	Type         ContextType `json:"type"`
	Content      string      `json:"content"`
	SemanticHash string      `json:"semantic_hash"`
}

// Constraints are optional client-specified bounds on how the server may act.
type Constraints struct {
	MaxCost   *float64 `json:"max_cost,omitempty"`
	Privacy   *string  `json:"privacy,omitempty"`
	TimeoutMs *uint64  `json:"timeout_ms,omitempty"`
}

// Capability describes one action a server exposes to the registry.
type Capability struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Inputs       []string `json:"inputs"`
	PrivacyLevel string   `json:"privacy_level"`
	CostUnits    float64  `json:"cost_units"`
}

// Interpretation is the server's best-effort reading of a client's intent.
type Interpretation struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ActionDecision is the server's decision for a given Request: EXECUTE,
// CLARIFY, PROPOSE, or REFUSE.
type ActionDecision string

const (
	ActionExecute ActionDecision = "EXECUTE"
	ActionClarify ActionDecision = "CLARIFY"
	ActionPropose ActionDecision = "PROPOSE"
	ActionRefuse  ActionDecision = "REFUSE"
)

// ActionMetadata carries decision-specific payload. Only the field matching
// the sibling ActionDecision is expected to be populated.
type ActionMetadata struct {
	Result     json.RawMessage `json:"result,omitempty"`
	Questions  []string        `json:"questions,omitempty"`
	ReasonCode *RefusalCode    `json:"reason_code,omitempty"`
	Reason     *string         `json:"reason,omitempty"`
}

// Alternative is one of several candidate interpretations offered alongside
// an ActionPropose decision.
type Alternative struct {
	Interpretation string   `json:"interpretation"`
	Confidence     float64  `json:"confidence"`
	EstimatedCost  *float64 `json:"estimated_cost,omitempty"`
	CapabilityID   string   `json:"capability_id"`
}

// Responder identifies the server in a Response, along with the
// capabilities it is currently advertising.
type Responder struct {
	ID           string   `json:"id"`
	Capabilities []string `json:"capabilities"`
}

// Request is the client-to-server SINP message: an intent expressed in
// natural language plus a claimed confidence and supporting context.
type Request struct {
	ProtocolVersion string       `json:"protocol_version"`
	MessageID       uuid.UUID    `json:"message_id"`
	InResponseTo    *uuid.UUID   `json:"in_response_to,omitempty"`
	ConversationID  uuid.UUID    `json:"conversation_id"`
	Timestamp       time.Time    `json:"timestamp"`
	Sender          Sender       `json:"sender"`
	Intent          string       `json:"intent"`
	Confidence      float64      `json:"confidence"`
	Context         Context      `json:"context"`
	Constraints     *Constraints `json:"constraints,omitempty"`
	Signature       *string      `json:"signature,omitempty"`
}

// NewRequest creates a fresh Request starting a new conversation. ctx's
// SemanticHash is (re)computed from intent and ctx.Content so the caller
// never has to keep the two in sync by hand.
func NewRequest(sender Sender, intent string, confidence float64, ctx Context) *Request {
	ctx.SemanticHash = SemanticHash(intent, ctx)
	return &Request{
		ProtocolVersion: ProtocolVersion,
		MessageID:       uuid.New(),
		ConversationID:  uuid.New(),
		Timestamp:       time.Now().UTC(),
		Sender:          sender,
		Intent:          intent,
		Confidence:      confidence,
		Context:         ctx,
	}
}

// ReplyRequest creates a follow-up Request in the same conversation as
// previous, pointing InResponseTo at it. ctx's SemanticHash is (re)computed
// from intent and ctx.Content, same as NewRequest.
func ReplyRequest(previous *Response, sender Sender, intent string, confidence float64, ctx Context) *Request {
	inResponseTo := previous.MessageID
	ctx.SemanticHash = SemanticHash(intent, ctx)
	return &Request{
		ProtocolVersion: ProtocolVersion,
		MessageID:       uuid.New(),
		InResponseTo:    &inResponseTo,
		ConversationID:  previous.ConversationID,
		Timestamp:       time.Now().UTC(),
		Sender:          sender,
		Intent:          intent,
		Confidence:      confidence,
		Context:         ctx,
	}
}

// Response is the server-to-client SINP message carrying the decision for a
// Request.
type Response struct {
	MessageID      uuid.UUID       `json:"message_id"`
	InResponseTo   uuid.UUID       `json:"in_response_to"`
	ConversationID uuid.UUID       `json:"conversation_id"`
	Timestamp      time.Time       `json:"timestamp"`
	Responder      Responder       `json:"responder"`
	Interpretation Interpretation  `json:"interpretation"`
	Action         ActionDecision  `json:"action"`
	ActionMetadata *ActionMetadata `json:"action_metadata,omitempty"`
	Alternatives   []Alternative   `json:"alternatives,omitempty"`
	Confidence     float64         `json:"confidence"`
}

// NewResponse builds a Response replying to request with the given decision.
func NewResponse(request *Request, responder Responder, interpretation Interpretation, action ActionDecision, confidence float64) *Response {
	return &Response{
		MessageID:      uuid.New(),
		InResponseTo:   request.MessageID,
		ConversationID: request.ConversationID,
		Timestamp:      time.Now().UTC(),
		Responder:      responder,
		Interpretation: interpretation,
		Action:         action,
		Confidence:     confidence,
	}
}
