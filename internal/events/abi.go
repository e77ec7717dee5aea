package events

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	EventLiquidityRebalanced = "LiquidityRebalanced"
	EventSwap                = "Swap"
)

const binPoolABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "pool", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "oldPosition", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "newPosition", "type": "address"},
      {"indexed": false, "internalType": "uint128", "name": "liquidityMoved", "type": "uint128"},
      {"indexed": false, "internalType": "int32", "name": "newLowerBinId", "type": "int32"},
      {"indexed": false, "internalType": "int32", "name": "newUpperBinId", "type": "int32"}
    ],
    "name": "LiquidityRebalanced",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "pool", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "trader", "type": "address"},
      {"indexed": false, "internalType": "bool", "name": "aToB", "type": "bool"},
      {"indexed": false, "internalType": "uint64", "name": "amountIn", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "amountOut", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "feeAmount", "type": "uint64"},
      {"indexed": false, "internalType": "int32", "name": "startBinId", "type": "int32"},
      {"indexed": false, "internalType": "int32", "name": "activeBinId", "type": "int32"}
    ],
    "name": "Swap",
    "type": "event"
  }
]`

var (
	binPoolABI     abi.ABI
	binPoolABIOnce sync.Once
	binPoolABIErr  error
)

// BinPoolABI returns the parsed event ABI.
func BinPoolABI() (abi.ABI, error) {
	binPoolABIOnce.Do(func() {
		binPoolABI, binPoolABIErr = abi.JSON(strings.NewReader(binPoolABIJSON))
	})
	return binPoolABI, binPoolABIErr
}
