package rpc

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// fakeNode is a Pocket node stand-in recording every body it receives.
type fakeNode struct {
	t      *testing.T
	server *httptest.Server

	mu           sync.Mutex
	queries      []QueryBody
	transactions []TransactionBody
	headers      []http.Header

	// replies are raw bodies written back, keyed by rpc_method for queries.
	queryReplies map[string]string
	txReply      string
	// block, when set, holds every request until it is closed.
	block chan struct{}
}

func newFakeNode(t *testing.T) *fakeNode {
	n := &fakeNode{
		t:            t,
		queryReplies: make(map[string]string),
	}
	n.server = httptest.NewServer(http.HandlerFunc(n.serveHTTP))
	t.Cleanup(func() {
		n.mu.Lock()
		if n.block != nil {
			close(n.block)
			n.block = nil
		}
		n.mu.Unlock()
		n.server.Close()
	})
	return n
}

func (n *fakeNode) serveHTTP(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	block := n.block
	n.headers = append(n.headers, r.Header.Clone())
	var reply string
	switch r.URL.Path {
	case "/queries":
		var body QueryBody
		if err := json.Unmarshal(data, &body); err != nil {
			n.t.Errorf("invalid query body %s: %v", data, err)
		}
		n.queries = append(n.queries, body)
		reply = n.queryReplies[body.Query.Method]
	case "/transactions":
		var body TransactionBody
		if err := json.Unmarshal(data, &body); err != nil {
			n.t.Errorf("invalid transaction body %s: %v", data, err)
		}
		n.transactions = append(n.transactions, body)
		reply = n.txReply
	default:
		n.t.Errorf("unexpected path %s", r.URL.Path)
	}
	n.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(reply))
}

func (n *fakeNode) setQueryReply(method, reply string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queryReplies[method] = reply
}

func (n *fakeNode) setTxReply(reply string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.txReply = reply
}

func (n *fakeNode) holdRequests() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.block = make(chan struct{})
}

func (n *fakeNode) receivedQueries() []QueryBody {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]QueryBody(nil), n.queries...)
}

func (n *fakeNode) receivedTransactions() []TransactionBody {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]TransactionBody(nil), n.transactions...)
}

func (n *fakeNode) receivedHeaders() []http.Header {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]http.Header(nil), n.headers...)
}
