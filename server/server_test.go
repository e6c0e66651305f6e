package server

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sinp-protocol/sinp/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	cfg := lowThresholdConfig()
	cfg.BindAddr = "127.0.0.1:0"

	srv, err := New(cfg, testRegistry(), nil)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", cfg.BindAddr)
	require.NoError(t, err)
	srv.listener = listener

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go handleConnection(conn, srv.config, srv.registry, srv.logger, srv.telemetry)
		}
	}()

	t.Cleanup(func() { listener.Close() })
	return srv, listener.Addr().String()
}

func sendAndRecv(t *testing.T, conn net.Conn, request *core.Request) *core.Response {
	t.Helper()

	payload, err := json.Marshal(request)
	require.NoError(t, err)

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	_, err = conn.Write(header)
	require.NoError(t, err)
	_, err = conn.Write(payload)
	require.NoError(t, err)

	respHeader := make([]byte, 4)
	_, err = io.ReadFull(conn, respHeader)
	require.NoError(t, err)
	length := binary.BigEndian.Uint32(respHeader)

	body := make([]byte, length)
	_, err = io.ReadFull(conn, body)
	require.NoError(t, err)

	var response core.Response
	require.NoError(t, json.Unmarshal(body, &response))
	return &response
}

func TestServerEndToEndExecute(t *testing.T) {
	_, addr := startTestServer(t)

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	ctx := core.Context{Type: core.ContextTranscript, Content: "c"}
	request := core.NewRequest(core.Sender{ID: "client", AuthMethod: core.AuthToken}, "please echo hello message", 0.9, ctx)

	response := sendAndRecv(t, conn, request)
	assert.Equal(t, core.ActionExecute, response.Action)
	assert.Equal(t, request.MessageID, response.InResponseTo)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BindAddr = ""
	_, err := New(cfg, core.NewCapabilityRegistry(), nil)
	require.Error(t, err)
}

func TestStopClosesListener(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BindAddr = "127.0.0.1:0"
	srv, err := New(cfg, core.NewCapabilityRegistry(), nil)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", cfg.BindAddr)
	require.NoError(t, err)
	srv.listener = listener

	require.NoError(t, srv.Stop())
	assert.True(t, srv.isStopped())
}
