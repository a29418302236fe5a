package rpc

import (
	"encoding/json"
)

// ethNetwork is the Pocket network identifier of the Ethereum chain family.
const ethNetwork = "ETH"

// RequestBody is either a *QueryBody or a *TransactionBody.
type RequestBody interface {
	RequestType() RequestType
}

// Query is the relayed JSON-RPC call inside a QueryBody.
type Query struct {
	Method string            `json:"rpc_method"`
	Params []json.RawMessage `json:"rpc_params"`
}

// QueryBody is posted to the /queries endpoint.
type QueryBody struct {
	Network    string                 `json:"network"`
	Subnetwork string                 `json:"subnetwork"`
	Query      Query                  `json:"query"`
	Decoder    map[string]interface{} `json:"decoder"`
}

func (*QueryBody) RequestType() RequestType { return QueryRequest }

// TransactionBody is posted to the /transactions endpoint.
type TransactionBody struct {
	Network      string                 `json:"network"`
	Subnetwork   string                 `json:"subnetwork"`
	SerializedTx string                 `json:"serialized_tx"`
	Metadata     map[string]interface{} `json:"tx_metadata"`
}

func (*TransactionBody) RequestType() RequestType { return TransactionRequest }

// generateQueryBody wraps method and params of payload unchanged.
func (p *Provider) generateQueryBody(payload *Payload) *QueryBody {
	params := payload.Params
	if params == nil {
		params = []json.RawMessage{}
	}
	return &QueryBody{
		Network:    ethNetwork,
		Subnetwork: p.config.NetworkID.String(),
		Query: Query{
			Method: payload.Method,
			Params: params,
		},
		Decoder: map[string]interface{}{},
	}
}

func (p *Provider) newTransactionBody(serializedTx string) *TransactionBody {
	return &TransactionBody{
		Network:      ethNetwork,
		Subnetwork:   p.config.NetworkID.String(),
		SerializedTx: serializedTx,
		Metadata:     map[string]interface{}{},
	}
}
