package metamorpho

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// SelectorLength is the size of the function selector prefixing every call.
const SelectorLength = 4

type (
	// MarketParams identifies a Morpho Blue market.
	MarketParams struct {
		LoanToken       common.Address `abi:"loanToken"`
		CollateralToken common.Address `abi:"collateralToken"`
		Oracle          common.Address `abi:"oracle"`
		IRM             common.Address `abi:"irm"`
		LLTV            *big.Int       `abi:"lltv"`
	}

	// MarketAllocation is a reallocation target: the vault's supply in the
	// market after the reallocation.
	MarketAllocation struct {
		MarketParams MarketParams `abi:"marketParams"`
		Assets       *big.Int     `abi:"assets"`
	}

	MarketID [32]byte

	// Call is an encoded function call: selector followed by the packed arguments.
	Call []byte
)

// ID returns keccak256(abi.encode(p)), the market id used by the vault.
// A nil LLTV hashes as zero.
func (p MarketParams) ID() MarketID {
	lltv := new(big.Int)
	if p.LLTV != nil {
		lltv.Set(p.LLTV)
	}
	buf := make([]byte, 0, 5*32)
	buf = append(buf, common.LeftPadBytes(p.LoanToken.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(p.CollateralToken.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(p.Oracle.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(p.IRM.Bytes(), 32)...)
	buf = append(buf, math.U256Bytes(lltv)...)
	return MarketID(crypto.Keccak256Hash(buf))
}

// HexToMarketID parses a 0x-prefixed or bare 32-byte hex string.
func HexToMarketID(s string) (MarketID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return MarketID{}, fmt.Errorf("invalid market id: %w", err)
	}
	if len(b) != len(MarketID{}) {
		return MarketID{}, fmt.Errorf("invalid market id: got %d bytes, want 32", len(b))
	}
	return MarketID(b), nil
}

func (id MarketID) Hex() string    { return hexutil.Encode(id[:]) }
func (id MarketID) String() string { return id.Hex() }

func (id MarketID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

func (id *MarketID) UnmarshalText(text []byte) error {
	parsed, err := HexToMarketID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Selector returns the first four bytes of c, or zero if c is too short.
func (c Call) Selector() [SelectorLength]byte {
	var sel [SelectorLength]byte
	if len(c) >= SelectorLength {
		copy(sel[:], c[:SelectorLength])
	}
	return sel
}

func (c Call) Hex() string    { return hexutil.Encode(c) }
func (c Call) String() string { return c.Hex() }

func (c Call) MarshalText() ([]byte, error) {
	return hexutil.Bytes(c).MarshalText()
}

func (c *Call) UnmarshalText(input []byte) error {
	return (*hexutil.Bytes)(c).UnmarshalText(input)
}

func toBytes32Slice(ids []MarketID) [][32]byte {
	out := make([][32]byte, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
