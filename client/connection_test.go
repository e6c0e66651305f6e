package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaintextConfigDefaults(t *testing.T) {
	cfg := PlaintextConfig("127.0.0.1:9000")
	assert.False(t, cfg.UseTLS)
	assert.Equal(t, DefaultMaxMessageSize, cfg.MaxMessageSize)
}

func TestTLSConfigDefaults(t *testing.T) {
	cfg := TLSConfig("127.0.0.1:9443", "sinp.example.com")
	assert.True(t, cfg.UseTLS)
	assert.Equal(t, "sinp.example.com", cfg.ServerName)
}

func TestDialInvalidAddress(t *testing.T) {
	_, err := Dial(PlaintextConfig("127.0.0.1:0"))
	assert.Error(t, err)
}
