package publish

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// CallGasLimit is a conservative default for vault management calls.
const CallGasLimit uint64 = 500_000

type (
	// Payload is the hand-off to a transaction submission layer: where to
	// send the call and with what calldata.
	Payload struct {
		To    common.Address `json:"to"`
		Data  hexutil.Bytes  `json:"data"`
		Value *hexutil.Big   `json:"value"`
	}

	TxParams struct {
		ChainID   *big.Int
		Nonce     uint64
		Gas       uint64
		GasFeeCap *big.Int
		GasTipCap *big.Int
	}
)

func NewPayload(vault common.Address, data []byte) Payload {
	return Payload{
		To:    vault,
		Data:  common.CopyBytes(data),
		Value: (*hexutil.Big)(new(big.Int)),
	}
}

// UnsignedTx wraps the payload in an EIP-1559 transaction. Signing and
// broadcasting are left to the caller.
func (p Payload) UnsignedTx(params TxParams) *types.Transaction {
	to := p.To
	gas := params.Gas
	if gas == 0 {
		gas = CallGasLimit
	}
	value := new(big.Int)
	if p.Value != nil {
		value.Set(p.Value.ToInt())
	}

	//  EIP-1559 only
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   bigOrZero(params.ChainID),
		Nonce:     params.Nonce,
		To:        &to,
		GasFeeCap: bigOrZero(params.GasFeeCap),
		GasTipCap: bigOrZero(params.GasTipCap),
		Gas:       gas,
		Value:     value,
		Data:      common.CopyBytes(p.Data),
	})
}

// DecodeHex decodes hex with or without a 0x prefix.
func DecodeHex(hexStr string) ([]byte, error) {
	hexStr = strings.TrimSpace(hexStr)
	hexStr = strings.TrimPrefix(strings.TrimPrefix(hexStr, "0x"), "0X")
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return b, nil
}

func MustHexDecode(hexStr string) []byte {
	b, err := DecodeHex(hexStr)
	if err != nil {
		panic(err)
	}
	return b
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
