package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/status-im/pocket-provider/logutils"
	"github.com/status-im/pocket-provider/metrics"
	"github.com/status-im/pocket-provider/params"
	"github.com/status-im/pocket-provider/transactions"
)

// Callback receives the terminal outcome of a dispatched payload.
// Exactly one of response and err is non-nil.
type Callback func(response *Response, err error)

// Provider sends queries and transactions to a Pocket node via HTTP.
//
// Provider is safe for concurrent use. Concurrent calls share the
// connectivity flag, the last finished call wins.
type Provider struct {
	config       params.ProviderConfig
	router       *router
	newTransport TransportFactory
	limiter      *rate.Limiter

	signerMx sync.RWMutex        // mx guards signer
	signer   transactions.Signer // nil when only queries and raw transactions are sent

	connected atomic.Bool
	logger    *zap.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithTransportFactory replaces the net/http transport.
func WithTransportFactory(factory TransportFactory) Option {
	return func(p *Provider) {
		p.newTransport = factory
	}
}

// WithHTTPClient makes the default transport use client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.newTransport = NewHTTPTransportFactory(client)
	}
}

// WithLogger sets the logger, logutils.ZapLogger() is used otherwise.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// NewProvider validates config and signer and returns a Provider. A nil
// config selects the defaults. A nil signer is allowed: such a provider
// rejects eth_sendTransaction until SetSigner is called.
func NewProvider(config *params.ProviderConfig, signer transactions.Signer, opts ...Option) (*Provider, error) {
	if config == nil {
		config = params.NewProviderConfig("")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider config: %w", err)
	}
	if signer != nil {
		if err := transactions.ValidateSigner(signer); err != nil {
			return nil, err
		}
	}

	p := &Provider{
		config: *config,
		router: newRouter(),
		signer: signer,
		logger: logutils.ZapLogger(),
	}
	p.config.Headers = append([]params.Header(nil), config.Headers...)
	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.newTransport == nil {
		p.newTransport = NewHTTPTransportFactory(nil)
	}
	p.logger = p.logger.Named("Provider").With(
		zap.String("host", p.config.Host),
		zap.String("networkId", p.config.NetworkID.String()),
	)

	return p, nil
}

// SetSigner replaces the transaction signer after validating it.
func (p *Provider) SetSigner(signer transactions.Signer) error {
	if err := transactions.ValidateSigner(signer); err != nil {
		return err
	}

	p.signerMx.Lock()
	defer p.signerMx.Unlock()
	p.signer = signer

	return nil
}

// Signer returns the current transaction signer.
func (p *Provider) Signer() transactions.Signer {
	p.signerMx.RLock()
	defer p.signerMx.RUnlock()
	return p.signer
}

// Connected reports whether the last finished call reached the node.
func (p *Provider) Connected() bool {
	return p.connected.Load()
}

// Host returns the configured Pocket node URL.
func (p *Provider) Host() string {
	return p.config.Host
}

// NetworkID returns the configured Ethereum network id.
func (p *Provider) NetworkID() params.NetworkID {
	return p.config.NetworkID
}

func (p *Provider) setConnected(connected bool) {
	p.connected.Store(connected)
	metrics.SetConnected(connected)
}

// newHTTPRequest builds a transport with the configured headers and timeout.
func (p *Provider) newHTTPRequest() Transport {
	transport := p.newTransport()

	transport.SetHeader("Content-Type", "application/json")
	for _, header := range p.config.Headers {
		transport.SetHeader(header.Name, header.Value)
	}
	transport.SetTimeout(p.config.RequestTimeout())

	return transport
}

// Send dispatches payload and returns immediately. callback is invoked
// exactly once with either the normalized response or an error.
func (p *Provider) Send(payload *Payload, callback Callback) {
	p.SendContext(context.Background(), payload, callback)
}

// SendContext is Send with a context handed to the signer and the rate
// limiter. Cancelling ctx does not abort a request that was already sent.
func (p *Provider) SendContext(ctx context.Context, payload *Payload, callback Callback) {
	started := time.Now()

	requestType := QueryRequest
	if payload != nil {
		requestType = p.router.requestType(payload.Method)
	}
	metrics.RecordDispatch(string(requestType))
	callback = p.terminal(requestType, started, callback)

	if payload == nil {
		callback(nil, ErrInvalidRequestBody.WithDetails(payload.String()))
		return
	}

	transport := p.newHTTPRequest()
	p.onTimeout(transport, callback)
	p.onTransportError(transport, callback)

	url := p.config.QueryURL()
	if requestType == TransactionRequest {
		url = p.config.TransactionURL()
	}
	if err := transport.Open(http.MethodPost, url); err != nil {
		p.logger.Warn("failed to open request", zap.String("url", url), zap.Error(err))
		p.setConnected(false)
		callback(nil, ErrInvalidConnection.WithDetails(p.config.Host))
		return
	}

	switch requestType {
	case QueryRequest:
		p.onQueryResponse(transport, payload, callback)
	case TransactionRequest:
		p.onTransactionResponse(transport, payload, callback)
	}

	go func() {
		body, err := p.generateRequestBody(ctx, requestType, payload)
		if err != nil {
			callback(nil, err)
			return
		}
		if body == nil {
			callback(nil, ErrInvalidRequestBody.WithDetails(payload.String()))
			return
		}
		p.send(ctx, transport, body, callback)
	}()
}

func (p *Provider) generateRequestBody(ctx context.Context, requestType RequestType, payload *Payload) (RequestBody, error) {
	switch requestType {
	case QueryRequest:
		return p.generateQueryBody(payload), nil
	case TransactionRequest:
		body, err := newTxAssembly(p, payload).run(ctx)
		if err != nil {
			return nil, err
		}
		return body, nil
	}
	return nil, nil
}

func (p *Provider) send(ctx context.Context, transport Transport, body RequestBody, callback Callback) {
	data, err := json.Marshal(body)
	if err != nil {
		callback(nil, err)
		return
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			callback(nil, err)
			return
		}
	}

	if err := transport.Send(data); err != nil {
		p.logger.Warn("failed to send request", zap.Error(err))
		p.setConnected(false)
		callback(nil, ErrInvalidConnection.WithDetails(p.config.Host))
	}
}

// terminal wraps callback so that it runs once and records the outcome.
func (p *Provider) terminal(requestType RequestType, started time.Time, callback Callback) Callback {
	var once sync.Once
	return func(response *Response, err error) {
		fired := false
		once.Do(func() {
			fired = true

			outcome := metrics.OutcomeSuccess
			if err != nil {
				outcome = errorCode(err)
			}
			metrics.RecordOutcome(string(requestType), outcome, started)

			if callback != nil {
				callback(response, err)
			}
		})
		if !fired {
			p.logger.Warn("dropping second outcome of a dispatch", zap.Error(err))
		}
	}
}

// CallContext dispatches payload and waits for its outcome. If ctx is done
// first, ctx.Err() is returned and the outcome is discarded.
func (p *Provider) CallContext(ctx context.Context, payload *Payload) (*Response, error) {
	type outcome struct {
		response *Response
		err      error
	}
	done := make(chan outcome, 1)

	p.SendContext(ctx, payload, func(response *Response, err error) {
		done <- outcome{response, err}
	})

	select {
	case out := <-done:
		return out.response, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Call is CallContext with a background context.
func (p *Provider) Call(payload *Payload) (*Response, error) {
	return p.CallContext(context.Background(), payload)
}
