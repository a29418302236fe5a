package rpc

import (
	"context"

	"github.com/status-im/pocket-provider/errors"
)

// CallRaw performs a JSON-RPC call with already JSON encoded data and
// returns the JSON encoded response. Provider errors are reported with
// code -32000 and the error response as data.
func (p *Provider) CallRaw(body string) string {
	return p.CallRawContext(context.Background(), body)
}

// CallRawContext is CallRaw with a context.
func (p *Provider) CallRawContext(ctx context.Context, body string) string {
	payload, err := unmarshalPayload(body)
	if err != nil {
		return newErrorResponse(errInvalidMessageCode, err, defaultMsgID, nil)
	}

	resp, err := p.CallContext(ctx, payload)
	if err != nil {
		return newErrorResponse(errProviderCode, err, payload.id(), errors.CreateErrorResponseFromError(err))
	}

	return newSuccessResponse(resp)
}
