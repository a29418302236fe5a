package rpc

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/status-im/pocket-provider/transactions"
)

// nonceBlockTag is the block the sender's transaction count is read at.
const nonceBlockTag = "latest"

type assemblyState int

const (
	assemblyStart assemblyState = iota
	assemblyRaw
	assemblyCheckAddress
	assemblyFetchNonce
	assemblySign
	assemblyDone
	assemblyFailed
)

func (s assemblyState) String() string {
	switch s {
	case assemblyStart:
		return "start"
	case assemblyRaw:
		return "raw"
	case assemblyCheckAddress:
		return "checkAddress"
	case assemblyFetchNonce:
		return "fetchNonce"
	case assemblySign:
		return "sign"
	case assemblyDone:
		return "done"
	case assemblyFailed:
		return "failed"
	}
	return "unknown"
}

// txAssembly turns a transaction payload into a TransactionBody.
//
// Raw transactions are wrapped as they are. Unsigned transactions go through
// checkAddress, fetchNonce and sign, each step waiting for the previous one.
// The nonce is read with a query dispatched through the same provider, which
// can never start another assembly.
type txAssembly struct {
	provider *Provider
	signer   transactions.Signer
	payload  *Payload
	logger   *zap.Logger

	state assemblyState
	args  transactions.SendTxArgs
	body  *TransactionBody
	err   error
}

func newTxAssembly(p *Provider, payload *Payload) *txAssembly {
	return &txAssembly{
		provider: p,
		signer:   p.Signer(),
		payload:  payload,
		logger:   p.logger.With(zap.String("method", payload.Method)),
		state:    assemblyStart,
	}
}

// run drives the state machine until it reaches done or failed.
func (a *txAssembly) run(ctx context.Context) (*TransactionBody, error) {
	for {
		from := a.state
		switch a.state {
		case assemblyStart:
			a.state = a.start()
		case assemblyRaw:
			a.state = a.wrapRaw()
		case assemblyCheckAddress:
			a.state = a.checkAddress(ctx)
		case assemblyFetchNonce:
			a.state = a.fetchNonce(ctx)
		case assemblySign:
			a.state = a.sign(ctx)
		case assemblyDone:
			return a.body, nil
		case assemblyFailed:
			a.logger.Debug("transaction assembly failed", zap.Error(a.err))
			return nil, a.err
		}
		a.logger.Debug("transaction assembly step", zap.Stringer("from", from), zap.Stringer("to", a.state))
	}
}

func (a *txAssembly) fail(err error) assemblyState {
	a.err = err
	return assemblyFailed
}

func (a *txAssembly) invalidBody() assemblyState {
	return a.fail(ErrInvalidRequestBody.WithDetails(a.payload.String()))
}

func (a *txAssembly) start() assemblyState {
	switch a.payload.Method {
	case methodSendRawTransaction:
		if len(a.payload.Params) == 0 {
			return a.invalidBody()
		}
		return assemblyRaw

	case methodSendTransaction:
		if len(a.payload.Params) == 0 {
			return a.invalidBody()
		}
		if a.signer == nil {
			return a.fail(ErrInvalidTransactionSigner.WithDetails("no signer configured"))
		}
		args, err := transactions.RPCCalltoSendTxArgs(a.payload.Params[0])
		if err != nil || !args.Valid() {
			return a.invalidBody()
		}
		a.args = args
		return assemblyCheckAddress
	}

	return a.invalidBody()
}

func (a *txAssembly) wrapRaw() assemblyState {
	var serializedTx string
	if err := json.Unmarshal(a.payload.Params[0], &serializedTx); err != nil {
		return a.invalidBody()
	}
	a.body = a.provider.newTransactionBody(serializedTx)
	return assemblyDone
}

func (a *txAssembly) checkAddress(ctx context.Context) assemblyState {
	ok, err := a.signer.HasAddress(ctx, a.args.From)
	if err != nil {
		return a.fail(err)
	}
	if !ok {
		return a.fail(ErrInvalidRequestBody.WithDetails("signer has no account " + a.args.From.Hex()))
	}
	return assemblyFetchNonce
}

func (a *txAssembly) fetchNonce(ctx context.Context) assemblyState {
	query, err := NewPayload("nonce-"+uuid.NewString(), methodGetTransactionCount, a.args.From, nonceBlockTag)
	if err != nil {
		return a.fail(err)
	}

	resp, err := a.provider.CallContext(ctx, query)
	if err != nil {
		return a.fail(err)
	}

	nonce, err := transactions.NonceFromResult(resp.Result)
	if err != nil {
		return a.fail(ErrInvalidResponse.WithDetails(string(resp.Result)))
	}
	a.args.Nonce = &nonce

	return assemblySign
}

func (a *txAssembly) sign(ctx context.Context) assemblyState {
	serializedTx, err := a.signer.SignTransaction(ctx, a.args)
	if err != nil {
		return a.fail(err)
	}
	a.body = a.provider.newTransactionBody(serializedTx)
	return assemblyDone
}
