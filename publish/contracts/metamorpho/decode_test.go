package metamorpho

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTrip(t *testing.T) {
	e := newTestEncoder(t)
	for op, c := range encodeAll(t, e) {
		decoded, err := e.Decode(c)
		require.NoError(t, err, op)
		require.Equal(t, op, decoded.Name)

		sig, _ := e.Schema().Signature(op)
		require.Equal(t, sig, decoded.Signature)

		inputs, _ := e.Schema().Inputs(op)
		require.Len(t, decoded.Args, len(inputs), op)
	}
}

func TestDecodeWithdraw(t *testing.T) {
	e := newTestEncoder(t)
	c, err := e.Withdraw(big.NewInt(1000), addrA, addrB)
	require.NoError(t, err)

	decoded, err := e.Decode(c)
	require.NoError(t, err)
	require.Equal(t, "withdraw", decoded.Name)
	require.Equal(t, []string{"assets", "receiver", "owner"}, argNames(decoded))

	var (
		assets          = new(big.Int)
		receiver, owner common.Address
	)
	require.NoError(t, decoded.Scan(assets, &receiver, &owner))
	require.Equal(t, int64(1000), assets.Int64())
	require.Equal(t, addrA, receiver)
	require.Equal(t, addrB, owner)
}

func TestDecodeSubmitCap(t *testing.T) {
	e := newTestEncoder(t)
	c, err := e.SubmitCap(testMarket, big.NewInt(42))
	require.NoError(t, err)

	decoded, err := e.Decode(c)
	require.NoError(t, err)

	var (
		params    MarketParams
		supplyCap *big.Int
	)
	require.NoError(t, decoded.Scan(&params, &supplyCap))
	require.Equal(t, testMarket.LoanToken, params.LoanToken)
	require.Equal(t, testMarket.CollateralToken, params.CollateralToken)
	require.Equal(t, testMarket.Oracle, params.Oracle)
	require.Equal(t, testMarket.IRM, params.IRM)
	require.Zero(t, testMarket.LLTV.Cmp(params.LLTV))
	require.Zero(t, big.NewInt(42).Cmp(supplyCap))
	require.Equal(t, testMarket.ID(), params.ID())
}

func TestDecodeReallocate(t *testing.T) {
	e := newTestEncoder(t)
	other := testMarket
	other.LLTV = big.NewInt(945000000000000000)
	want := []MarketAllocation{
		{MarketParams: testMarket, Assets: big.NewInt(0)},
		{MarketParams: other, Assets: big.NewInt(1_000_000)},
	}
	c, err := e.Reallocate(want)
	require.NoError(t, err)

	decoded, err := e.Decode(c)
	require.NoError(t, err)

	var got []MarketAllocation
	require.NoError(t, decoded.Scan(&got))
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].MarketParams.ID(), got[i].MarketParams.ID())
		require.Zero(t, want[i].Assets.Cmp(got[i].Assets))
	}
}

func TestDecodeQueues(t *testing.T) {
	e := newTestEncoder(t)
	ids := []MarketID{testMarket.ID(), {0x01}}

	c, err := e.SetSupplyQueue(ids)
	require.NoError(t, err)
	decoded, err := e.Decode(c)
	require.NoError(t, err)
	var gotIDs []MarketID
	require.NoError(t, decoded.Scan(&gotIDs))
	require.Equal(t, ids, gotIDs)

	c, err = e.UpdateWithdrawQueue(nil)
	require.NoError(t, err)
	decoded, err = e.Decode(c)
	require.NoError(t, err)
	var indexes []*big.Int
	require.NoError(t, decoded.Scan(&indexes))
	require.Empty(t, indexes)
}

func TestDecodeSetIsAllocator(t *testing.T) {
	e := newTestEncoder(t)
	c, err := e.SetIsAllocator(addrB, true)
	require.NoError(t, err)

	decoded, err := e.Decode(c)
	require.NoError(t, err)
	var (
		allocator common.Address
		enabled   bool
	)
	require.NoError(t, decoded.Scan(&allocator, &enabled))
	require.Equal(t, addrB, allocator)
	require.True(t, enabled)
}

func TestDecodeErrors(t *testing.T) {
	e := newTestEncoder(t)

	_, err := e.Decode([]byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrShortCalldata)

	_, err = e.Decode([]byte{0xde, 0xad, 0xbe, 0xef})
	require.ErrorIs(t, err, ErrUnknownSelector)

	c, err := e.Withdraw(big.NewInt(1), addrA, addrB)
	require.NoError(t, err)
	_, err = e.Decode(c[:40])
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, "withdraw", encErr.Op)

	decoded, err := e.Decode(c)
	require.NoError(t, err)
	var a, b, d, extra common.Address
	require.Error(t, decoded.Scan(new(big.Int), &a, &b, &extra))
	require.Error(t, decoded.Scan(&d))
}

func argNames(c *DecodedCall) []string {
	out := make([]string, len(c.Args))
	for i, a := range c.Args {
		out[i] = a.Name
	}
	return out
}
