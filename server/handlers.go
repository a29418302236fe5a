package server

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const (
	rpcPath = "/"

	// maxRequestSize limits the JSON-RPC body read from a client.
	maxRequestSize = 5 * 1024 * 1024
)

type HandlerPatternMap map[string]http.HandlerFunc

// RawCaller answers a JSON encoded JSON-RPC request with a JSON encoded response.
type RawCaller interface {
	CallRawContext(ctx context.Context, body string) string
}

// RPCHandlers routes JSON-RPC requests to caller.
func RPCHandlers(caller RawCaller, logger *zap.Logger) HandlerPatternMap {
	return HandlerPatternMap{
		rpcPath: handleRPC(caller, logger),
	}
}

func handleRPC(caller RawCaller, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
		if err != nil {
			logger.Debug("failed to read request", zap.Error(err))
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}

		resp := caller.CallRawContext(r.Context(), string(body))

		w.Header().Set("Content-Type", "application/json")
		if _, err := io.WriteString(w, resp); err != nil {
			logger.Error("failed to write response", zap.Error(err))
		}
	}
}
