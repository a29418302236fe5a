package transactions

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/status-im/pocket-provider/logutils"
)

const defaultGas = 90000

var (
	// ErrUnknownAccount is returned when asked to sign for an address without a key.
	ErrUnknownAccount = errors.New("no key for account")
	// ErrMissingNonce is returned when a transaction reaches the signer without a nonce.
	ErrMissingNonce = errors.New("transaction nonce is required")
)

// KeySigner signs transactions with private keys held in memory.
type KeySigner struct {
	mu      sync.RWMutex
	keys    map[common.Address]*ecdsa.PrivateKey
	chainID *big.Int
	logger  *zap.Logger
}

// NewKeySigner returns a signer for chainID holding the given keys.
func NewKeySigner(chainID uint64, logger *zap.Logger, keys ...*ecdsa.PrivateKey) *KeySigner {
	if logger == nil {
		logger = logutils.ZapLogger()
	}
	s := &KeySigner{
		keys:    make(map[common.Address]*ecdsa.PrivateKey),
		chainID: new(big.Int).SetUint64(chainID),
		logger:  logger.Named("KeySigner"),
	}
	for _, key := range keys {
		s.AddKey(key)
	}
	return s
}

// AddKey registers key and returns its address.
func (s *KeySigner) AddKey(key *ecdsa.PrivateKey) common.Address {
	address := crypto.PubkeyToAddress(key.PublicKey)

	s.mu.Lock()
	s.keys[address] = key
	s.mu.Unlock()

	return address
}

// AddHexKey registers a hex encoded private key, with or without 0x prefix.
func (s *KeySigner) AddHexKey(hexKey string) (common.Address, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return common.Address{}, err
	}
	return s.AddKey(key), nil
}

// Accounts returns the addresses the signer holds keys for, sorted.
func (s *KeySigner) Accounts() []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]common.Address, 0, len(s.keys))
	for address := range s.keys {
		accounts = append(accounts, address)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return strings.Compare(accounts[i].Hex(), accounts[j].Hex()) < 0
	})
	return accounts
}

// HasAddress implements Signer.
func (s *KeySigner) HasAddress(ctx context.Context, address common.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.keys[address]
	return ok, nil
}

// SignTransaction implements Signer.
func (s *KeySigner) SignTransaction(ctx context.Context, args SendTxArgs) (string, error) {
	if !args.Valid() {
		return "", ErrInvalidSendTxArgs
	}
	if args.Nonce == nil {
		return "", ErrMissingNonce
	}

	s.mu.RLock()
	key, ok := s.keys[args.From]
	s.mu.RUnlock()
	if !ok {
		return "", ErrUnknownAccount
	}

	tx := s.buildTransaction(args)
	signedTx, err := gethtypes.SignTx(tx, gethtypes.NewLondonSigner(s.chainID), key)
	if err != nil {
		return "", err
	}

	data, err := signedTx.MarshalBinary()
	if err != nil {
		return "", err
	}

	s.logger.Debug("signed transaction",
		zap.Stringer("from", args.From),
		zap.Stringer("hash", signedTx.Hash()),
		zap.Uint64("nonce", signedTx.Nonce()),
	)
	return hexutil.Encode(data), nil
}

func (s *KeySigner) buildTransaction(args SendTxArgs) *gethtypes.Transaction {
	nonce := uint64(*args.Nonce)

	gas := uint64(defaultGas)
	if args.Gas != nil {
		gas = uint64(*args.Gas)
	}

	value := new(big.Int)
	if args.Value != nil {
		value = (*big.Int)(args.Value)
	}

	var txData gethtypes.TxData
	if args.IsDynamicFeeTx() {
		txData = &gethtypes.DynamicFeeTx{
			ChainID:   s.chainID,
			Nonce:     nonce,
			Gas:       gas,
			GasTipCap: (*big.Int)(args.MaxPriorityFeePerGas),
			GasFeeCap: (*big.Int)(args.MaxFeePerGas),
			To:        args.To,
			Value:     value,
			Data:      args.GetInput(),
		}
	} else {
		gasPrice := new(big.Int)
		if args.GasPrice != nil {
			gasPrice = (*big.Int)(args.GasPrice)
		}
		txData = &gethtypes.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       args.To,
			Value:    value,
			Data:     args.GetInput(),
		}
	}

	return gethtypes.NewTx(txData)
}
