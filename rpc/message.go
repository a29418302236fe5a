package rpc

import (
	"encoding/json"
	"fmt"
)

const (
	jsonrpcVersion        = "2.0"
	errInvalidMessageCode = -32700 // from go-ethereum/rpc/errors.go
	errProviderCode       = -32000
)

// web3 clients validate responses by checking the id field, so payloads
// without one are answered with a zero id.
var defaultMsgID = json.RawMessage(`0`)

// Payload is a JSON-RPC request as received from the caller.
type Payload struct {
	Version string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id,omitempty"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// NewPayload builds a JSON-RPC 2.0 payload, encoding id and every param as JSON.
func NewPayload(id interface{}, method string, params ...interface{}) (*Payload, error) {
	rawID, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("encode id: %w", err)
	}

	rawParams := make([]json.RawMessage, 0, len(params))
	for i, param := range params {
		data, err := json.Marshal(param)
		if err != nil {
			return nil, fmt.Errorf("encode param %d: %w", i, err)
		}
		rawParams = append(rawParams, data)
	}

	return &Payload{
		Version: jsonrpcVersion,
		ID:      rawID,
		Method:  method,
		Params:  rawParams,
	}, nil
}

// String is used in error details.
func (p *Payload) String() string {
	if p == nil {
		return "<nil>"
	}
	data, _ := json.Marshal(p)
	return string(data)
}

func (p *Payload) id() json.RawMessage {
	if len(p.ID) == 0 {
		return defaultMsgID
	}
	return p.ID
}

func unmarshalPayload(body string) (*Payload, error) {
	var payload Payload
	err := json.Unmarshal([]byte(body), &payload)
	return &payload, err
}

// Response is the normalized JSON-RPC response handed to callbacks.
// Result is nil whenever an error is reported alongside it.
type Response struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
}

func newResponse(payload *Payload, result json.RawMessage) *Response {
	return &Response{
		Version: jsonrpcVersion,
		ID:      payload.id(),
		Result:  result,
	}
}

// jsonrpcMessage represents JSON-RPC successful or error response.
type jsonrpcMessage struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Error   *jsonError      `json:"error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// jsonError represents Error message for JSON-RPC responses.
type jsonError struct {
	Code    int         `json:"code,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func newSuccessResponse(resp *Response) string {
	result := resp.Result
	if len(result) == 0 {
		result = json.RawMessage(`null`)
	}
	msg := &jsonrpcMessage{
		ID:      resp.ID,
		Version: jsonrpcVersion,
		Result:  result,
	}
	data, _ := json.Marshal(msg)
	return string(data)
}

func newErrorResponse(code int, err error, id json.RawMessage, data interface{}) string {
	errMsg := &jsonrpcMessage{
		Version: jsonrpcVersion,
		ID:      id,
		Error: &jsonError{
			Code:    code,
			Message: err.Error(),
			Data:    data,
		},
	}

	out, _ := json.Marshal(errMsg)
	return string(out)
}
