package server

import (
	"crypto/tls"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sinp-protocol/sinp/core"
)

// lengthPrefixSize is the size in bytes of the big-endian uint32 length
// prefix that frames every SINP message on the wire.
const lengthPrefixSize = 4

// readMessage reads one length-prefixed JSON message from r, rejecting
// frames over maxSize.
func readMessage(r io.Reader, maxSize int) ([]byte, error) {
	header := make([]byte, lengthPrefixSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, err
		}
		return nil, &core.FrameworkError{Op: "readMessage", Kind: "transport", Message: "read error", Err: err}
	}

	length := int(binary.BigEndian.Uint32(header))
	if length > maxSize {
		return nil, &core.FrameworkError{
			Op:      "readMessage",
			Kind:    "transport",
			Message: fmt.Sprintf("message too large: %d > %d", length, maxSize),
			Err:     core.ErrMessageTooLarge,
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, &core.FrameworkError{Op: "readMessage", Kind: "transport", Message: "read error", Err: err}
	}
	return body, nil
}

// writeMessage frames payload with a big-endian uint32 length prefix and
// writes it to w.
func writeMessage(w io.Writer, payload []byte) error {
	header := make([]byte, lengthPrefixSize)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return &core.FrameworkError{Op: "writeMessage", Kind: "transport", Message: "write error", Err: err}
	}
	if _, err := w.Write(payload); err != nil {
		return &core.FrameworkError{Op: "writeMessage", Kind: "transport", Message: "write error", Err: err}
	}
	return nil
}

func sendResponse(conn net.Conn, response *core.Response) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return &core.FrameworkError{Op: "sendResponse", Kind: "serialization", Err: err}
	}
	return writeMessage(conn, payload)
}

func errorResponse(request *core.Request, err error) *core.Response {
	reason := err.Error()
	code := core.RefusalMalformedContext
	return &core.Response{
		MessageID:      uuid.New(),
		InResponseTo:   request.MessageID,
		ConversationID: request.ConversationID,
		Timestamp:      time.Now().UTC(),
		Responder:      core.Responder{ID: "sinp-server"},
		Interpretation: core.Interpretation{Text: "error processing request", Confidence: 0},
		Action:         core.ActionRefuse,
		ActionMetadata: &core.ActionMetadata{ReasonCode: &code, Reason: &reason},
		Confidence:     0,
	}
}

// handleConnection drives the length-framed request/response loop for a
// single client connection until it disconnects or a transport error
// occurs.
func handleConnection(conn net.Conn, config Config, registry *core.CapabilityRegistry, logger core.Logger, telemetry core.Telemetry) {
	defer conn.Close()

	sm := NewStateMachine(config, logger).WithTelemetry(telemetry)

	for {
		if config.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
		}
		body, err := readMessage(conn, config.MaxMessageSize)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				logger.Debug("client disconnected", map[string]interface{}{"remote": conn.RemoteAddr().String()})
				return
			}
			logger.Error("transport read failed", map[string]interface{}{"error": err.Error()})
			return
		}

		var request core.Request
		if err := json.Unmarshal(body, &request); err != nil {
			logger.Error("failed to parse request", map[string]interface{}{"error": err.Error()})
			return
		}

		response, err := sm.ProcessRequest(&request, registry)
		if config.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(config.WriteTimeout))
		}
		if err != nil {
			logger.Error("request processing failed", map[string]interface{}{"error": err.Error(), "message_id": request.MessageID.String()})
			if sendErr := sendResponse(conn, errorResponse(&request, err)); sendErr != nil {
				logger.Error("failed to send error response", map[string]interface{}{"error": sendErr.Error()})
				return
			}
			sm.Reset()
			continue
		}

		if err := sendResponse(conn, response); err != nil {
			logger.Error("failed to send response", map[string]interface{}{"error": err.Error()})
			return
		}

		if sm.State().IsTerminal() {
			sm.Reset()
		}
	}
}

func loadTLSConfig(tlsCfg *TLSConfig) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(tlsCfg.CertPath, tlsCfg.KeyPath)
	if err != nil {
		return nil, &core.FrameworkError{Op: "loadTLSConfig", Kind: "transport", Message: "failed to load certificate", Err: err}
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}, nil
}
