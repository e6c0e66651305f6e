package server

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMessage(&buf, []byte(`{"hello":"world"}`)))

	body, err := readMessage(&buf, 1024)
	require.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, string(body))
}

func TestReadMessageRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMessage(&buf, bytes.Repeat([]byte("x"), 100)))

	_, err := readMessage(&buf, 10)
	require.Error(t, err)
}

func TestReadMessageEOF(t *testing.T) {
	var buf bytes.Buffer
	_, err := readMessage(&buf, 1024)
	require.Error(t, err)
}
