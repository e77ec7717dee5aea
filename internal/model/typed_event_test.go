package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRebalanceEventDataStringAmounts(t *testing.T) {
	payload := RebalanceEventData{
		Pool:           "0x1111111111111111111111111111111111111111",
		Owner:          "0x2222222222222222222222222222222222222222",
		OldPosition:    "0x3333333333333333333333333333333333333333",
		NewPosition:    "0x4444444444444444444444444444444444444444",
		LiquidityMoved: "340282366920938463463374607431768211455",
		NewLowerBinID:  -20,
		NewUpperBinID:  40,
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.IsType(t, "", decoded["liquidity_moved"])
	require.EqualValues(t, -20, decoded["new_lower_bin_id"])
}
