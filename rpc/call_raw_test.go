package rpc

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/status-im/pocket-provider/params"
)

func TestCallRaw(t *testing.T) {
	node := newFakeNode(t)
	node.setQueryReply("eth_blockNumber", `{"result":"0x2a"}`)
	node.setQueryReply("eth_getBalance", `oops`)

	p, err := NewProvider(params.NewProviderConfig(node.server.URL), nil, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	cases := []struct {
		name     string
		request  string
		expected string
	}{
		{
			name:     "success",
			request:  `{"jsonrpc":"2.0","id":1,"method":"eth_blockNumber","params":[]}`,
			expected: `{"jsonrpc":"2.0","id":1,"result":"0x2a"}`,
		},
		{
			name:     "parse error",
			request:  `{"jsonrpc":"2.0",`,
			expected: `{"jsonrpc":"2.0","id":0,"error":{"code":-32700,"message":"unexpected end of JSON input"}}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.JSONEq(t, tc.expected, p.CallRaw(tc.request))
		})
	}

	t.Run("provider error", func(t *testing.T) {
		var msg jsonrpcMessage
		require.NoError(t, json.Unmarshal([]byte(p.CallRaw(`{"jsonrpc":"2.0","id":"x","method":"eth_getBalance","params":["0x01"]}`)), &msg))
		require.JSONEq(t, `"x"`, string(msg.ID))
		require.NotNil(t, msg.Error)
		require.Equal(t, errProviderCode, msg.Error.Code)

		data, ok := msg.Error.Data.(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, "PP-003", data["code"])
		require.Contains(t, data["details"], "oops")
	})
}

// recordingTransport is a Transport that records calls and answers with a
// fixed outcome instead of doing I/O.
type recordingTransport struct {
	openErr error
	sendErr error
	reply   []byte
	fail    error

	headers []string
	timeout time.Duration
	url     string
	sent    []byte

	onComplete func(int, []byte)
	onTimeout  func()
	onError    func(error)
}

func (t *recordingTransport) Open(method, url string) error {
	t.url = url
	return t.openErr
}

func (t *recordingTransport) SetHeader(name, value string) {
	t.headers = append(t.headers, name+":"+value)
}

func (t *recordingTransport) SetTimeout(timeout time.Duration) { t.timeout = timeout }
func (t *recordingTransport) OnComplete(fn func(int, []byte)) { t.onComplete = fn }
func (t *recordingTransport) OnTimeout(fn func()) { t.onTimeout = fn }
func (t *recordingTransport) OnError(fn func(error)) { t.onError = fn }

func (t *recordingTransport) Send(body []byte) error {
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = body
	go func() {
		if t.fail != nil {
			t.onError(t.fail)
			// a misbehaving transport answering twice must not reach the caller twice
			t.onComplete(200, t.reply)
			return
		}
		t.onComplete(200, t.reply)
	}()
	return nil
}

func newRecordingProvider(t *testing.T, config *params.ProviderConfig, transport *recordingTransport) *Provider {
	p, err := NewProvider(config, nil,
		WithLogger(zap.NewNop()),
		WithTransportFactory(func() Transport { return transport }),
	)
	require.NoError(t, err)
	return p
}

func TestProviderRequestSetup(t *testing.T) {
	config := params.NewProviderConfig("https://node.example.com/")
	config.Timeout = 1500
	config.Headers = []params.Header{{Name: "B", Value: "2"}, {Name: "A", Value: "1"}}

	transport := &recordingTransport{reply: []byte(`{"hash":"0x1"}`)}
	p := newRecordingProvider(t, config, transport)

	_, err := p.Call(&Payload{Method: methodSendRawTransaction, Params: []json.RawMessage{json.RawMessage(`"0x00"`)}})
	require.NoError(t, err)

	require.Equal(t, []string{"Content-Type:application/json", "B:2", "A:1"}, transport.headers)
	require.Equal(t, 1500*time.Millisecond, transport.timeout)
	require.Equal(t, "https://node.example.com/transactions", transport.url)
	require.JSONEq(t, `{"network":"ETH","subnetwork":"4","serialized_tx":"0x00","tx_metadata":{}}`, string(transport.sent))
}

func TestProviderOpenAndSendFailures(t *testing.T) {
	config := params.NewProviderConfig("")

	transport := &recordingTransport{openErr: errors.New("cannot open")}
	p := newRecordingProvider(t, config, transport)
	_, err := p.Call(&Payload{Method: "eth_blockNumber"})
	require.ErrorIs(t, err, ErrInvalidConnection)
	require.Contains(t, err.Error(), params.DefaultHost)
	require.Nil(t, transport.sent)

	transport = &recordingTransport{sendErr: errors.New("cannot send")}
	p = newRecordingProvider(t, config, transport)
	_, err = p.Call(&Payload{Method: "eth_blockNumber"})
	require.ErrorIs(t, err, ErrInvalidConnection)
	require.False(t, p.Connected())
}

func TestProviderSingleOutcome(t *testing.T) {
	transport := &recordingTransport{reply: []byte(`{"result":"0x1"}`), fail: errors.New("reset")}
	p := newRecordingProvider(t, params.NewProviderConfig(""), transport)

	results := make(chan error, 2)
	p.Send(&Payload{Method: "eth_blockNumber"}, func(resp *Response, err error) {
		results <- err
	})

	select {
	case err := <-results:
		require.ErrorIs(t, err, ErrInvalidConnection)
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not called")
	}

	select {
	case err := <-results:
		t.Fatalf("unexpected second outcome: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}
