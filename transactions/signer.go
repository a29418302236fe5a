package transactions

import (
	"context"
	"reflect"

	"github.com/ethereum/go-ethereum/common"

	"github.com/status-im/pocket-provider/errors"
)

//go:generate mockgen -package=mocktransactions -destination=mock/signer_mock.go -source=signer.go Signer

// ErrInvalidTransactionSigner is returned when a signer lacks one of the required capabilities.
var ErrInvalidTransactionSigner = &errors.ErrorResponse{Code: errors.ErrorCode("PP-002"), Details: "invalid transaction signer: %s"}

// Signer holds the key material used to sign transactions on behalf of the provider.
type Signer interface {
	// HasAddress reports whether the signer can sign for address.
	HasAddress(ctx context.Context, address common.Address) (bool, error)
	// SignTransaction signs args and returns the serialized transaction as 0x-prefixed hex.
	SignTransaction(ctx context.Context, args SendTxArgs) (string, error)
}

// SignerFuncs adapts a pair of functions to the Signer interface.
type SignerFuncs struct {
	HasAddressFunc      func(ctx context.Context, address common.Address) (bool, error)
	SignTransactionFunc func(ctx context.Context, args SendTxArgs) (string, error)
}

func (f SignerFuncs) HasAddress(ctx context.Context, address common.Address) (bool, error) {
	return f.HasAddressFunc(ctx, address)
}

func (f SignerFuncs) SignTransaction(ctx context.Context, args SendTxArgs) (string, error) {
	return f.SignTransactionFunc(ctx, args)
}

func (f SignerFuncs) missingCapability() string {
	switch {
	case f.HasAddressFunc == nil:
		return "HasAddress"
	case f.SignTransactionFunc == nil:
		return "SignTransaction"
	}
	return ""
}

// ValidateSigner checks that signer can actually be called. Nil signers, typed
// nil pointers and SignerFuncs with a missing function are rejected.
func ValidateSigner(signer Signer) error {
	if signer == nil {
		return ErrInvalidTransactionSigner.WithDetails("<nil>")
	}

	v := reflect.ValueOf(signer)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Func, reflect.Slice, reflect.Chan:
		if v.IsNil() {
			return ErrInvalidTransactionSigner.WithDetails(v.Type().String() + "(nil)")
		}
	}

	var funcs *SignerFuncs
	switch s := signer.(type) {
	case SignerFuncs:
		funcs = &s
	case *SignerFuncs:
		funcs = s
	}
	if funcs != nil {
		if missing := funcs.missingCapability(); missing != "" {
			return ErrInvalidTransactionSigner.WithDetails("missing " + missing)
		}
	}

	return nil
}
