package rpc

// RequestType tells which Pocket endpoint a payload is sent to.
type RequestType string

const (
	// QueryRequest payloads are read-only and go to /queries.
	QueryRequest RequestType = "QUERY"
	// TransactionRequest payloads change state and go to /transactions.
	TransactionRequest RequestType = "TRANSACTION"
)

const (
	methodSendTransaction     = "eth_sendTransaction"
	methodSendRawTransaction  = "eth_sendRawTransaction"
	methodGetTransactionCount = "eth_getTransactionCount"
)

// router implements logic for classifying JSON-RPC
// requests as either queries or transactions.
type router struct {
	methods map[string]bool
}

// newRouter inits new router.
func newRouter() *router {
	r := &router{
		methods: make(map[string]bool),
	}

	for _, m := range transactionMethods {
		r.methods[m] = true
	}

	return r
}

// requestType returns TransactionRequest for the transaction methods and
// QueryRequest for everything else, unknown methods included.
func (r *router) requestType(method string) RequestType {
	if r.methods[method] {
		return TransactionRequest
	}
	return QueryRequest
}

// transactionMethods contains methods that are submitted to the
// transactions endpoint; the rest is considered to be a query.
var transactionMethods = [...]string{
	methodSendTransaction,
	methodSendRawTransaction,
}

var defaultRouter = newRouter()

// Classify returns the request type of payload.
func Classify(payload *Payload) RequestType {
	return defaultRouter.requestType(payload.Method)
}
