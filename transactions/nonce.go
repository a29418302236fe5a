package transactions

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NonceFromResult decodes the result of eth_getTransactionCount. Nodes answer
// with a hex quantity, but plain JSON numbers are accepted as well.
func NonceFromResult(result json.RawMessage) (hexutil.Uint64, error) {
	result = bytes.TrimSpace(result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return 0, fmt.Errorf("empty transaction count")
	}

	var nonce hexutil.Uint64
	if result[0] == '"' {
		if err := json.Unmarshal(result, &nonce); err != nil {
			return 0, fmt.Errorf("invalid transaction count %s: %w", result, err)
		}
		return nonce, nil
	}

	var n uint64
	if err := json.Unmarshal(result, &n); err != nil {
		return 0, fmt.Errorf("invalid transaction count %s: %w", result, err)
	}
	return hexutil.Uint64(n), nil
}
