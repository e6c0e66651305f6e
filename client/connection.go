package client

import (
	"crypto/tls"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"time"

	"github.com/sinp-protocol/sinp/core"
)

// ConnectionConfig describes how to reach a SINP server.
type ConnectionConfig struct {
	ServerAddr     string
	ServerName     string
	UseTLS         bool
	MaxMessageSize int
	DialTimeout    time.Duration
}

// DefaultMaxMessageSize mirrors the server's default frame-size ceiling.
const DefaultMaxMessageSize = 1024 * 1024

// PlaintextConfig returns a ConnectionConfig for an unencrypted connection
// to addr.
func PlaintextConfig(addr string) ConnectionConfig {
	return ConnectionConfig{
		ServerAddr:     addr,
		MaxMessageSize: DefaultMaxMessageSize,
		DialTimeout:    10 * time.Second,
	}
}

// TLSConfig returns a ConnectionConfig for a TLS connection to addr,
// validated against serverName.
func TLSConfig(addr, serverName string) ConnectionConfig {
	return ConnectionConfig{
		ServerAddr:     addr,
		ServerName:     serverName,
		UseTLS:         true,
		MaxMessageSize: DefaultMaxMessageSize,
		DialTimeout:    10 * time.Second,
	}
}

// Connection is a length-framed JSON request/response channel to a SINP
// server, over plaintext TCP or TLS.
type Connection struct {
	conn           net.Conn
	maxMessageSize int
}

// Dial connects to config.ServerAddr, optionally negotiating TLS.
func Dial(config ConnectionConfig) (*Connection, error) {
	dialer := net.Dialer{Timeout: config.DialTimeout}

	var conn net.Conn
	var err error
	if config.UseTLS {
		serverName := config.ServerName
		if serverName == "" {
			serverName = "localhost"
		}
		conn, err = tls.DialWithDialer(&dialer, "tcp", config.ServerAddr, &tls.Config{ServerName: serverName})
	} else {
		conn, err = dialer.Dial("tcp", config.ServerAddr)
	}
	if err != nil {
		return nil, &core.FrameworkError{Op: "Connect", Kind: "transport", Message: "connection failed", Err: err}
	}

	maxSize := config.MaxMessageSize
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}

	return &Connection{conn: conn, maxMessageSize: maxSize}, nil
}

// SendRequest writes request length-framed to the connection and blocks
// for the matching length-framed Response.
func (c *Connection) SendRequest(request *core.Request) (*core.Response, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, &core.FrameworkError{Op: "Connection.SendRequest", Kind: "serialization", Err: err}
	}

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	if _, err := c.conn.Write(header); err != nil {
		return nil, &core.FrameworkError{Op: "Connection.SendRequest", Kind: "transport", Message: "write error", Err: err}
	}
	if _, err := c.conn.Write(payload); err != nil {
		return nil, &core.FrameworkError{Op: "Connection.SendRequest", Kind: "transport", Message: "write error", Err: err}
	}

	respHeader := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, respHeader); err != nil {
		return nil, &core.FrameworkError{Op: "Connection.SendRequest", Kind: "transport", Message: "read error", Err: err}
	}
	length := int(binary.BigEndian.Uint32(respHeader))
	if length > c.maxMessageSize {
		return nil, &core.FrameworkError{Op: "Connection.SendRequest", Kind: "transport", Message: "response too large", Err: core.ErrMessageTooLarge}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return nil, &core.FrameworkError{Op: "Connection.SendRequest", Kind: "transport", Message: "read error", Err: err}
	}

	var response core.Response
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &core.FrameworkError{Op: "Connection.SendRequest", Kind: "serialization", Err: err}
	}
	return &response, nil
}

// Close closes the underlying connection.
func (c *Connection) Close() error {
	return c.conn.Close()
}
