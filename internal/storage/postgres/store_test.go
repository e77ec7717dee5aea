package postgres

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"binFlow/internal/ledger"
	"binFlow/internal/model"
)

const maxU128 = "340282366920938463463374607431768211455"

func TestParseU128(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{in: "0", want: "0"},
		{in: "007", want: "7"},
		{in: "3000000000", want: "3000000000"},
		{in: maxU128, want: maxU128},
	} {
		var got uint256.Int
		require.NoError(t, parseU128(tc.in, &got), tc.in)
		require.Equal(t, tc.want, got.Dec(), tc.in)
	}
}

func TestParseU128Rejects(t *testing.T) {
	var got uint256.Int
	// 2^128 fits NUMERIC(39,0) but not a u128 field.
	err := parseU128("340282366920938463463374607431768211456", &got)
	require.ErrorIs(t, err, model.ErrMathOverflow)

	require.Error(t, parseU128("-1", &got))
	require.Error(t, parseU128("12.5", &got))
	require.Error(t, parseU128("abc", &got))
}

func TestParseU128sRoundTrip(t *testing.T) {
	var bin model.Bin
	bin.Liquidity.SetUint64(1_000_000)
	bin.FeeGrowthA.SetUint64(3_000_000_000)
	require.NoError(t, bin.AmountA.SetFromDecimal(maxU128))

	values := []string{bin.Liquidity.Dec(), bin.FeeGrowthA.Dec(), bin.FeeGrowthB.Dec(), bin.AmountA.Dec(), bin.AmountB.Dec()}
	var loaded model.Bin
	require.NoError(t, parseU128s(values, &loaded.Liquidity, &loaded.FeeGrowthA, &loaded.FeeGrowthB, &loaded.AmountA, &loaded.AmountB))
	require.Equal(t, bin, loaded)

	require.Error(t, parseU128s(values[:2], &loaded.Liquidity))
}

func TestParseReserve(t *testing.T) {
	got, err := parseReserve("18446744073709551615")
	require.NoError(t, err)
	require.Equal(t, uint64(18446744073709551615), got)

	_, err = parseReserve("18446744073709551616")
	require.Error(t, err)
}

func TestCommitBatch(t *testing.T) {
	pool := model.Pool{
		Address:   common.HexToAddress("0x01"),
		BinStep:   10,
		FeeRate:   30,
		ReservesA: 3_000_000,
	}
	bin := model.Bin{Address: common.HexToAddress("0x02"), Pool: pool.Address, BinID: -10}
	bin.Liquidity.SetUint64(1_000_000)
	position := model.Position{Address: common.HexToAddress("0x03"), Pool: pool.Address, LowerBinID: -10, UpperBinID: 10}
	closed := common.HexToAddress("0x04")

	batch := commitBatch(ledger.ChangeSet{
		Pools:            []model.Pool{pool},
		Bins:             []model.Bin{bin},
		Positions:        []model.Position{position},
		DeletedPositions: []common.Address{closed},
	})
	require.Equal(t, 4, batch.Len())

	queries := batch.QueuedQueries
	require.True(t, strings.Contains(queries[0].SQL, "INSERT INTO pools"))
	require.Equal(t, pool.Address.Hex(), queries[0].Arguments[0])
	require.Equal(t, "3000000", queries[0].Arguments[10])

	require.True(t, strings.Contains(queries[1].SQL, "INSERT INTO bins"))
	require.Equal(t, int32(-10), queries[1].Arguments[2])
	require.Equal(t, "1000000", queries[1].Arguments[3])

	require.True(t, strings.Contains(queries[2].SQL, "INSERT INTO positions"))
	require.True(t, strings.Contains(queries[3].SQL, "DELETE FROM positions"))
	require.Equal(t, closed.Hex(), queries[3].Arguments[0])
}
