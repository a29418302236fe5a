package rpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

var (
	errTransportNotOpened = errors.New("transport is not opened")
	errTransportSent      = errors.New("transport was already sent")
)

// Transport is a single use request object. Callbacks must be installed
// before Send; at most one of them fires, and only after Send returned nil.
type Transport interface {
	Open(method, url string) error
	// SetHeader appends value to the values already set for name.
	SetHeader(name, value string)
	// SetTimeout sets the time allowed for the whole exchange. Zero disables it.
	SetTimeout(timeout time.Duration)
	OnComplete(fn func(status int, body []byte))
	OnTimeout(fn func())
	// OnError is called when the exchange fails for any reason other than a timeout.
	OnError(fn func(err error))
	// Send starts the exchange and returns without waiting for it.
	Send(body []byte) error
}

// TransportFactory builds a fresh Transport for every call.
type TransportFactory func() Transport

// NewHTTPTransportFactory returns a factory of net/http backed transports.
// A nil client selects http.DefaultClient.
func NewHTTPTransportFactory(client *http.Client) TransportFactory {
	if client == nil {
		client = http.DefaultClient
	}
	return func() Transport {
		return &httpTransport{
			client: client,
			header: make(http.Header),
		}
	}
}

type httpTransport struct {
	client  *http.Client
	method  string
	url     string
	header  http.Header
	timeout time.Duration

	onComplete func(status int, body []byte)
	onTimeout  func()
	onError    func(err error)

	mu   sync.Mutex
	sent bool
	once sync.Once
}

func (t *httpTransport) Open(method, rawURL string) error {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return fmt.Errorf("invalid url %s: %w", rawURL, err)
	}
	t.method = method
	t.url = rawURL
	return nil
}

// SetHeader adds a header value; repeated names keep every value in order.
func (t *httpTransport) SetHeader(name, value string) {
	t.header.Add(name, value)
}

func (t *httpTransport) SetTimeout(timeout time.Duration) {
	t.timeout = timeout
}

func (t *httpTransport) OnComplete(fn func(status int, body []byte)) {
	t.onComplete = fn
}

func (t *httpTransport) OnTimeout(fn func()) {
	t.onTimeout = fn
}

func (t *httpTransport) OnError(fn func(err error)) {
	t.onError = fn
}

func (t *httpTransport) Send(body []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.url == "" {
		return errTransportNotOpened
	}
	if t.sent {
		return errTransportSent
	}

	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if t.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, t.method, t.url, bytes.NewReader(body))
	if err != nil {
		cancel()
		return err
	}
	req.Header = t.header.Clone()

	t.sent = true
	go t.do(req, cancel)

	return nil
}

func (t *httpTransport) do(req *http.Request, cancel context.CancelFunc) {
	defer cancel()

	//nolint:bodyclose // body is closed via cleanlyCloseBody
	resp, err := t.client.Do(req)
	if err != nil {
		t.fail(err)
		return
	}
	defer cleanlyCloseBody(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.fail(err)
		return
	}

	t.once.Do(func() {
		if t.onComplete != nil {
			t.onComplete(resp.StatusCode, body)
		}
	})
}

func (t *httpTransport) fail(err error) {
	t.once.Do(func() {
		if isTimeout(err) {
			if t.onTimeout != nil {
				t.onTimeout()
			}
			return
		}
		if t.onError != nil {
			t.onError(err)
		}
	})
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// cleanlyCloseBody avoids sending unnecessary RST_STREAM and PING frames by
// ensuring the whole body is read before being closed.
func cleanlyCloseBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
