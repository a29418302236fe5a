package rpc

import (
	"github.com/status-im/pocket-provider/errors"
	"github.com/status-im/pocket-provider/transactions"
)

// Abbreviation `PP` for the error code stands for Pocket Provider
var (
	ErrInvalidRequestBody       = &errors.ErrorResponse{Code: errors.ErrorCode("PP-001"), Details: "invalid request body for payload %s"}
	ErrInvalidTransactionSigner = transactions.ErrInvalidTransactionSigner
	ErrInvalidResponse          = &errors.ErrorResponse{Code: errors.ErrorCode("PP-003"), Details: "invalid JSON RPC response: %s"}
	ErrConnectionTimeout        = &errors.ErrorResponse{Code: errors.ErrorCode("PP-004"), Details: "CONNECTION TIMEOUT: timeout of %d ms achieved"}
	ErrInvalidConnection        = &errors.ErrorResponse{Code: errors.ErrorCode("PP-005"), Details: "CONNECTION ERROR: couldn't connect to node %s"}
)

// errorCode returns the code used to label err in metrics.
func errorCode(err error) string {
	if resp, ok := errors.CreateErrorResponseFromError(err).(*errors.ErrorResponse); ok {
		return string(resp.Code)
	}
	return string(errors.GenericErrorCode)
}
