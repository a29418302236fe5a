package rpc

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type transportResult struct {
	status  int
	body    []byte
	timeout bool
	err     error
}

func newTestTransport(results chan<- transportResult) Transport {
	transport := NewHTTPTransportFactory(nil)()
	transport.OnComplete(func(status int, body []byte) {
		results <- transportResult{status: status, body: body}
	})
	transport.OnTimeout(func() {
		results <- transportResult{timeout: true}
	})
	transport.OnError(func(err error) {
		results <- transportResult{err: err}
	})
	return transport
}

func waitResult(t *testing.T, results <-chan transportResult) transportResult {
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no transport callback")
	}
	return transportResult{}
}

func TestHTTPTransportComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "v", r.Header.Get("X-Test"))
		require.Equal(t, []string{"1", "2"}, r.Header.Values("X-Multi"))
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write(body)
	}))
	defer server.Close()

	results := make(chan transportResult, 2)
	transport := newTestTransport(results)
	require.NoError(t, transport.Open(http.MethodPost, server.URL))
	transport.SetHeader("Content-Type", "application/json")
	transport.SetHeader("X-Test", "v")
	transport.SetHeader("X-Multi", "1")
	transport.SetHeader("X-Multi", "2")
	require.NoError(t, transport.Send([]byte(`{"a":1}`)))

	r := waitResult(t, results)
	require.Equal(t, http.StatusAccepted, r.status)
	require.Equal(t, `{"a":1}`, string(r.body))

	require.ErrorIs(t, transport.Send(nil), errTransportSent)
}

func TestHTTPTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	results := make(chan transportResult, 2)
	transport := newTestTransport(results)
	require.NoError(t, transport.Open(http.MethodPost, server.URL))
	transport.SetTimeout(20 * time.Millisecond)
	require.NoError(t, transport.Send(nil))

	r := waitResult(t, results)
	require.True(t, r.timeout)

	select {
	case extra := <-results:
		t.Fatalf("unexpected second callback: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHTTPTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	results := make(chan transportResult, 2)
	transport := newTestTransport(results)
	require.NoError(t, transport.Open(http.MethodPost, url))
	require.NoError(t, transport.Send(nil))

	r := waitResult(t, results)
	require.False(t, r.timeout)
	require.Error(t, r.err)
}

func TestHTTPTransportNotOpened(t *testing.T) {
	transport := NewHTTPTransportFactory(nil)()
	require.ErrorIs(t, transport.Send(nil), errTransportNotOpened)
	require.Error(t, transport.Open(http.MethodPost, "not a url"))
}
