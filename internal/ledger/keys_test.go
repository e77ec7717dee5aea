package ledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestKeysDeterministicAndDistinct(t *testing.T) {
	keys := NewKeys(common.HexToAddress("0x00000000000000000000000000000000000000d1"))
	mintA := common.HexToAddress("0x1000000000000000000000000000000000000000")
	mintB := common.HexToAddress("0x2000000000000000000000000000000000000000")

	pool := keys.Pool(mintA, mintB, 10)
	require.Equal(t, pool, keys.Pool(mintA, mintB, 10))
	require.NotEqual(t, pool, keys.Pool(mintA, mintB, 20))
	require.NotEqual(t, pool, keys.Pool(mintB, mintA, 10))

	other := NewKeys(common.HexToAddress("0x00000000000000000000000000000000000000d2"))
	require.NotEqual(t, pool, other.Pool(mintA, mintB, 10))

	require.NotEqual(t, keys.Vault(pool, mintA), keys.Vault(pool, mintB))
	require.NotEqual(t, keys.Bin(pool, 10), keys.Bin(pool, -10))
}

func TestBinRange(t *testing.T) {
	keys := NewKeys(common.Address{})
	pool := common.HexToAddress("0x3000000000000000000000000000000000000000")

	up := keys.BinRange(pool, -20, 10, 5)
	require.Len(t, up, 5)
	require.Equal(t, keys.Bin(pool, -20), up[0])
	require.Equal(t, keys.Bin(pool, 20), up[4])

	down := keys.BinRange(pool, 0, -10, 3)
	require.Equal(t, keys.Bin(pool, -20), down[2])
}
