package rpc

import (
	"bytes"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
)

var errMissingField = errors.New("missing field")

// extractField returns the raw value of a top level field of a JSON object.
// A field that is absent, or a body that is not a JSON object, is an error.
func extractField(body []byte, field string) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	value, ok := fields[field]
	if !ok {
		return nil, errMissingField
	}
	return value, nil
}

func isNull(value json.RawMessage) bool {
	return len(value) == 0 || bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

// isEmptyHash reports whether a transaction hash value carries no hash.
func isEmptyHash(value json.RawMessage) bool {
	if isNull(value) {
		return true
	}
	var hash string
	if err := json.Unmarshal(value, &hash); err == nil {
		return hash == ""
	}
	return false
}

// onQueryResponse sets the completion callback for a query request. The
// node was reached whenever a response arrived, so connectivity is set even
// if the body cannot be used.
func (p *Provider) onQueryResponse(transport Transport, payload *Payload, callback Callback) {
	transport.OnComplete(func(status int, body []byte) {
		p.setConnected(true)

		result, err := extractField(body, "result")
		if err != nil {
			p.logger.Debug("invalid query response",
				zap.String("method", payload.Method),
				zap.Int("status", status),
				zap.Error(err),
			)
			callback(nil, ErrInvalidResponse.WithDetails(string(body)))
			return
		}

		callback(newResponse(payload, result), nil)
	})
}

// onTransactionResponse sets the completion callback for a transaction
// request. Only a response carrying the transaction hash counts as connected.
func (p *Provider) onTransactionResponse(transport Transport, payload *Payload, callback Callback) {
	transport.OnComplete(func(status int, body []byte) {
		hash, err := extractField(body, "hash")
		if err == nil && isEmptyHash(hash) {
			err = errMissingField
		}
		if err != nil {
			p.setConnected(false)
			p.logger.Debug("invalid transaction response",
				zap.String("method", payload.Method),
				zap.Int("status", status),
				zap.Error(err),
			)
			callback(nil, ErrInvalidResponse.WithDetails(string(body)))
			return
		}

		p.setConnected(true)
		callback(newResponse(payload, hash), nil)
	})
}

// onTimeout sets the timeout callback for the given transport.
func (p *Provider) onTimeout(transport Transport, callback Callback) {
	transport.OnTimeout(func() {
		p.setConnected(false)
		callback(nil, ErrConnectionTimeout.WithDetails(p.config.Timeout))
	})
}

// onTransportError sets the callback for exchanges that failed after Send.
func (p *Provider) onTransportError(transport Transport, callback Callback) {
	transport.OnError(func(err error) {
		p.setConnected(false)
		p.logger.Warn("request to node failed", zap.String("host", p.config.Host), zap.Error(err))
		callback(nil, ErrInvalidConnection.WithDetails(p.config.Host))
	})
}
