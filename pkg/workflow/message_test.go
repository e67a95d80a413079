package workflow

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramingRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "hello", payload: []byte("Hello")},
		{name: "empty", payload: []byte{}},
		{name: "unicode", payload: []byte("héllo wörld")},
		{name: "max length", payload: bytes.Repeat([]byte("a"), MaxMsgLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			msg, err := NewMsg(tt.payload)
			require.NoError(t, err)

			errCh := make(chan error, 1)
			go func() { errCh <- SendMsg(client, msg) }()

			got, err := RecvMsg(server)
			require.NoError(t, err)
			require.NoError(t, <-errCh)

			assert.Equal(t, tt.payload, got.Data)
			assert.Equal(t, len(tt.payload), len(got.Data))
		})
	}
}

func TestFramingScenarioHello(t *testing.T) {
	msg, err := NewMsg([]byte("Hello"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, SendMsg(&buf, msg))
	assert.Equal(t, []byte{0x00, 0x05, 'H', 'e', 'l', 'l', 'o'}, buf.Bytes())

	got, err := RecvMsg(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(got.Data))
	assert.Equal(t, 5, len(got.Data))
}

func TestFramingRejectsBadUTF8(t *testing.T) {
	frame := []byte{0x00, 0x01, 0xFF}
	_, err := RecvMsg(bytes.NewReader(frame))
	require.Error(t, err)

	kind, ok := Kind(err)
	require.True(t, ok)
	assert.Equal(t, BadMsg, kind)
}

func TestFramingZeroLengthPrefixFailsReadFail(t *testing.T) {
	_, err := RecvMsg(bytes.NewReader(nil))
	require.Error(t, err)
	kind, ok := Kind(err)
	require.True(t, ok)
	assert.Equal(t, ReadFail, kind)
}

func TestFramingShortPayloadFailsReadFail(t *testing.T) {
	// declares a 5 byte payload but supplies only 2
	frame := []byte{0x00, 0x05, 'h', 'i'}
	_, err := RecvMsg(bytes.NewReader(frame))
	require.Error(t, err)
	kind, ok := Kind(err)
	require.True(t, ok)
	assert.Equal(t, ReadFail, kind)
}

func TestRecvMsgDeadlineIsNetworkBlocked(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	require.NoError(t, server.SetReadDeadline(time.Now().Add(10*time.Millisecond)))
	_, err := RecvMsg(server)
	require.Error(t, err)

	var werr *Error
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, NetworkBlocked, werr.Kind)
	assert.False(t, werr.Fatal())
}
