package transactions

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const testChainID = 5777

func TestKeySignerSuite(t *testing.T) {
	suite.Run(t, new(KeySignerSuite))
}

type KeySignerSuite struct {
	suite.Suite

	signer *KeySigner
	from   common.Address
	to     common.Address
}

func (s *KeySignerSuite) SetupTest() {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)

	s.signer = NewKeySigner(testChainID, zap.NewNop(), key)
	s.from = crypto.PubkeyToAddress(key.PublicKey)
	s.to = common.HexToAddress("0x00000000000000000000000000000000000000aa")
}

func (s *KeySignerSuite) decode(serialized string) *gethtypes.Transaction {
	data, err := hexutil.Decode(serialized)
	s.Require().NoError(err)

	tx := new(gethtypes.Transaction)
	s.Require().NoError(tx.UnmarshalBinary(data))
	return tx
}

func (s *KeySignerSuite) TestHasAddress() {
	ok, err := s.signer.HasAddress(context.Background(), s.from)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.signer.HasAddress(context.Background(), s.to)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *KeySignerSuite) TestAddHexKey() {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)

	address, err := s.signer.AddHexKey(hexutil.Encode(crypto.FromECDSA(key)))
	s.Require().NoError(err)
	s.Equal(crypto.PubkeyToAddress(key.PublicKey), address)
	s.Len(s.signer.Accounts(), 2)

	_, err = s.signer.AddHexKey("0xnothex")
	s.Error(err)
}

func (s *KeySignerSuite) TestSignLegacyTransaction() {
	nonce := hexutil.Uint64(7)
	gas := hexutil.Uint64(21000)
	args := SendTxArgs{
		From:     s.from,
		To:       &s.to,
		Gas:      &gas,
		GasPrice: (*hexutil.Big)(big.NewInt(1)),
		Value:    (*hexutil.Big)(big.NewInt(1000000000000000000)),
		Nonce:    &nonce,
	}

	serialized, err := s.signer.SignTransaction(context.Background(), args)
	s.Require().NoError(err)

	tx := s.decode(serialized)
	s.Equal(uint64(7), tx.Nonce())
	s.Equal(uint64(21000), tx.Gas())
	s.Equal(s.to, *tx.To())
	s.Equal(uint8(gethtypes.LegacyTxType), tx.Type())

	sender, err := gethtypes.Sender(gethtypes.NewLondonSigner(big.NewInt(testChainID)), tx)
	s.Require().NoError(err)
	s.Equal(s.from, sender)
}

func (s *KeySignerSuite) TestSignDynamicFeeTransaction() {
	nonce := hexutil.Uint64(1)
	args := SendTxArgs{
		From:                 s.from,
		To:                   &s.to,
		MaxFeePerGas:         (*hexutil.Big)(big.NewInt(20)),
		MaxPriorityFeePerGas: (*hexutil.Big)(big.NewInt(2)),
		Nonce:                &nonce,
		Input:                hexutil.Bytes{0x01, 0x02},
	}

	serialized, err := s.signer.SignTransaction(context.Background(), args)
	s.Require().NoError(err)

	tx := s.decode(serialized)
	s.Equal(uint8(gethtypes.DynamicFeeTxType), tx.Type())
	s.Equal(uint64(defaultGas), tx.Gas())
	s.Equal([]byte{0x01, 0x02}, tx.Data())
	s.Equal(big.NewInt(testChainID), tx.ChainId())
}

func (s *KeySignerSuite) TestSignErrors() {
	nonce := hexutil.Uint64(0)

	_, err := s.signer.SignTransaction(context.Background(), SendTxArgs{From: s.from})
	s.Equal(ErrMissingNonce, err)

	_, err = s.signer.SignTransaction(context.Background(), SendTxArgs{From: s.to, Nonce: &nonce})
	s.Equal(ErrUnknownAccount, err)

	_, err = s.signer.SignTransaction(context.Background(), SendTxArgs{
		From:  s.from,
		Nonce: &nonce,
		Input: hexutil.Bytes{0x01},
		Data:  hexutil.Bytes{0x02},
	})
	s.Equal(ErrInvalidSendTxArgs, err)
}
