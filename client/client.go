package client

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sinp-protocol/sinp/core"
)

// Client is the high-level SINP client SDK: a connection, its conversation
// state machine, and the rolling transcript used to build Context for each
// outgoing request.
type Client struct {
	conn           *Connection
	stateMachine   *StateMachine
	sender         core.Sender
	contextHistory []string
	telemetry      core.Telemetry
}

// Connect dials addr over plaintext TCP.
func Connect(addr string) (*Client, error) {
	conn, err := Dial(PlaintextConfig(addr))
	if err != nil {
		return nil, err
	}
	return &Client{
		conn:         conn,
		stateMachine: NewStateMachine(),
		sender:       core.Sender{ID: "client_" + uuid.New().String(), AuthMethod: core.AuthNone},
		telemetry:    &core.NoOpTelemetry{},
	}, nil
}

// ConnectTLS dials addr over TLS, validating the server certificate against
// serverName.
func ConnectTLS(addr, serverName string) (*Client, error) {
	conn, err := Dial(TLSConfig(addr, serverName))
	if err != nil {
		return nil, err
	}
	return &Client{
		conn:         conn,
		stateMachine: NewStateMachine(),
		sender:       core.Sender{ID: "client_" + uuid.New().String(), AuthMethod: core.AuthCertificate},
		telemetry:    &core.NoOpTelemetry{},
	}, nil
}

// WithSender overrides the client's identity.
func (c *Client) WithSender(sender core.Sender) *Client {
	c.sender = sender
	return c
}

// WithTelemetry attaches a tracer; each round trip gets its own span. A
// nil telemetry is ignored, leaving the no-op default in place.
func (c *Client) WithTelemetry(telemetry core.Telemetry) *Client {
	if telemetry != nil {
		c.telemetry = telemetry
	}
	return c
}

func (c *Client) sendRequest(request *core.Request) (*core.Response, error) {
	_, span := c.telemetry.StartSpan(context.Background(), "sinp.client.send_request")
	defer span.End()
	span.SetAttribute("message_id", request.MessageID.String())

	response, err := c.conn.SendRequest(request)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return response, nil
}

// State returns the client automaton's current state.
func (c *Client) State() core.ClientState {
	return c.stateMachine.State()
}

// SendIntent sends a fresh natural-language intent and returns the
// server's decision.
func (c *Client) SendIntent(intent string, confidence float64) (*NextAction, error) {
	c.contextHistory = append(c.contextHistory, "User: "+intent)

	ctx := c.buildContext()
	request := core.NewRequest(c.sender, intent, confidence, ctx)

	if err := c.stateMachine.OnRequestSent(request); err != nil {
		return nil, err
	}

	response, err := c.sendRequest(request)
	if err != nil {
		return nil, err
	}

	c.contextHistory = append(c.contextHistory, "Server: "+response.Interpretation.Text)
	return c.stateMachine.OnResponseReceived(response)
}

// RespondToClarify answers a CLARIFY question and sends the follow-up
// request in the same conversation.
func (c *Client) RespondToClarify(answer string, confidence float64) (*NextAction, error) {
	return c.replyWithTransition(answer, confidence, c.stateMachine.OnClarificationProvided)
}

// AcceptProposal accepts a PROPOSE alternative and sends the follow-up
// request in the same conversation.
func (c *Client) AcceptProposal(alt core.Alternative, confidence float64) (*NextAction, error) {
	return c.replyWithTransition("Accept: "+alt.Interpretation, confidence, c.stateMachine.OnProposalAccepted)
}

// RejectProposal rejects the current PROPOSE alternatives and sends a new
// intent in the same conversation.
func (c *Client) RejectProposal(newIntent string, confidence float64) (*NextAction, error) {
	return c.replyWithTransition(newIntent, confidence, c.stateMachine.OnProposalRejected)
}

func (c *Client) replyWithTransition(text string, confidence float64, transition func() error) (*NextAction, error) {
	c.contextHistory = append(c.contextHistory, "User: "+text)

	last := c.stateMachine.LastResponse()
	if last == nil {
		return nil, &core.FrameworkError{Op: "Client.replyWithTransition", Kind: "protocol", Message: "no previous response"}
	}

	ctx := c.buildContext()
	request := core.ReplyRequest(last, c.sender, text, confidence, ctx)

	// transition moves Refining -> Pending, which is the state the follow-up
	// is sent in; OnRequestSent would try Pending -> Pending and fail.
	if err := transition(); err != nil {
		return nil, err
	}

	response, err := c.sendRequest(request)
	if err != nil {
		return nil, err
	}

	c.contextHistory = append(c.contextHistory, "Server: "+response.Interpretation.Text)
	return c.stateMachine.OnResponseReceived(response)
}

// Result returns the EXECUTE response's result payload, or nil if the
// conversation has not reached EXECUTE.
func (c *Client) Result() []byte {
	last := c.stateMachine.LastResponse()
	if last == nil || last.Action != core.ActionExecute || last.ActionMetadata == nil {
		return nil
	}
	return last.ActionMetadata.Result
}

// Reset clears conversation state for a new intent from scratch.
func (c *Client) Reset() {
	c.stateMachine.Reset()
	c.contextHistory = nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// buildContext assembles the rolling transcript into a Context. Its
// SemanticHash is filled in by NewRequest/ReplyRequest once the outgoing
// intent is known.
func (c *Client) buildContext() core.Context {
	content := strings.Join(c.contextHistory, "\n")
	return core.Context{Type: core.ContextTranscript, Content: content}
}
