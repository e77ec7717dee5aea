package events

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"binFlow/internal/model"
	"binFlow/internal/storage"
)

var (
	pool  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	owner = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestRebalancedEncodeDecode(t *testing.T) {
	encoder, err := NewEncoder()
	require.NoError(t, err)
	decoder, err := NewDecoder()
	require.NoError(t, err)

	evt := model.Rebalanced{
		Pool:          pool,
		Owner:         owner,
		OldPosition:   common.HexToAddress("0x3333333333333333333333333333333333333333"),
		NewPosition:   common.HexToAddress("0x4444444444444444444444444444444444444444"),
		NewLowerBinID: -40,
		NewUpperBinID: 20,
	}
	require.NoError(t, evt.LiquidityMoved.SetFromDecimal("340282366920938463463374607431768211455"))

	record, err := encoder.Encode(&evt)
	require.NoError(t, err)
	require.Len(t, record.Topics, 3)
	require.True(t, decoder.CanDecode(record.Topics[0]))

	typed, err := decoder.Decode(record)
	require.NoError(t, err)
	require.Equal(t, EventLiquidityRebalanced, typed.EventName)

	data, ok := typed.Decoded.(model.RebalanceEventData)
	require.True(t, ok)
	require.Equal(t, pool.Hex(), data.Pool)
	require.Equal(t, owner.Hex(), data.Owner)
	require.Equal(t, evt.NewPosition.Hex(), data.NewPosition)
	require.Equal(t, "340282366920938463463374607431768211455", data.LiquidityMoved)
	require.Equal(t, int32(-40), data.NewLowerBinID)
	require.Equal(t, int32(20), data.NewUpperBinID)
}

func TestSwappedEncodeDecode(t *testing.T) {
	encoder, err := NewEncoder()
	require.NoError(t, err)
	decoder, err := NewDecoder()
	require.NoError(t, err)

	record, err := encoder.Encode(model.Swapped{
		Pool:        pool,
		Trader:      owner,
		AToB:        true,
		AmountIn:    1_000_000,
		AmountOut:   997_000,
		FeeAmount:   3_000,
		StartBinID:  0,
		ActiveBinID: -10,
	})
	require.NoError(t, err)

	typed, err := decoder.Decode(record)
	require.NoError(t, err)
	data, ok := typed.Decoded.(model.SwapEventData)
	require.True(t, ok)
	require.True(t, data.AToB)
	require.Equal(t, "997000", data.AmountOut)
	require.Equal(t, "3000", data.FeeAmount)
	require.Equal(t, int32(-10), data.ActiveBinID)
}

func TestDecoderRejectsUnknownTopic(t *testing.T) {
	decoder, err := NewDecoder()
	require.NoError(t, err)
	require.False(t, decoder.CanDecode(""))
	require.False(t, decoder.CanDecode("0x01"))

	_, err = decoder.Decode(model.LogRecord{Address: pool.Hex(), Topics: []string{"0x01"}})
	require.Error(t, err)
}

func TestEmitterWritesSequencedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	emitter, err := NewEmitter(nil, storage.NewJsonlStorage(path))
	require.NoError(t, err)

	rebalanced := model.Rebalanced{Pool: pool, Owner: owner, LiquidityMoved: *uint256.NewInt(5)}
	swapped := model.Swapped{Pool: pool, Trader: owner, AmountIn: 10}
	require.NoError(t, emitter.Emit(WithSeq(context.Background(), 7), swapped, rebalanced))

	logs, err := storage.ReadLogs(path)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for i, record := range logs {
		require.Equal(t, uint64(7), record.Seq)
		require.Equal(t, uint64(i), record.LogIndex)
		_, err := uuid.Parse(record.ID)
		require.NoError(t, err)
	}

	_, err = emitter.encoder.Encode("not an event")
	require.Error(t, err)
}
