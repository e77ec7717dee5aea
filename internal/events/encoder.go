package events

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"binFlow/internal/model"
)

// Encoder turns engine events into ABI-encoded log records.
type Encoder struct {
	poolABI abi.ABI
}

func NewEncoder() (*Encoder, error) {
	poolABI, err := BinPoolABI()
	if err != nil {
		return nil, err
	}
	return &Encoder{poolABI: poolABI}, nil
}

// Encode converts a *model.Rebalanced or *model.Swapped (or value) into a
// LogRecord. ID, Seq, LogIndex and EmittedAt are left for the caller.
func (e *Encoder) Encode(event interface{}) (model.LogRecord, error) {
	switch evt := event.(type) {
	case model.Rebalanced:
		return e.encodeRebalanced(evt)
	case *model.Rebalanced:
		return e.encodeRebalanced(*evt)
	case model.Swapped:
		return e.encodeSwapped(evt)
	case *model.Swapped:
		return e.encodeSwapped(*evt)
	default:
		return model.LogRecord{}, fmt.Errorf("unsupported event type %T", event)
	}
}

func (e *Encoder) encodeRebalanced(evt model.Rebalanced) (model.LogRecord, error) {
	event := e.poolABI.Events[EventLiquidityRebalanced]
	data, err := event.Inputs.NonIndexed().Pack(
		evt.OldPosition,
		evt.NewPosition,
		evt.LiquidityMoved.ToBig(),
		evt.NewLowerBinID,
		evt.NewUpperBinID,
	)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", event.Name, err)
	}
	return buildLogRecord(evt.Pool, event.ID, data, topicFromAddress(evt.Pool), topicFromAddress(evt.Owner)), nil
}

func (e *Encoder) encodeSwapped(evt model.Swapped) (model.LogRecord, error) {
	event := e.poolABI.Events[EventSwap]
	data, err := event.Inputs.NonIndexed().Pack(
		evt.AToB,
		evt.AmountIn,
		evt.AmountOut,
		evt.FeeAmount,
		evt.StartBinID,
		evt.ActiveBinID,
	)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", event.Name, err)
	}
	return buildLogRecord(evt.Pool, event.ID, data, topicFromAddress(evt.Pool), topicFromAddress(evt.Trader)), nil
}

func buildLogRecord(address common.Address, topic0 common.Hash, data []byte, indexed ...common.Hash) model.LogRecord {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}
	return model.LogRecord{
		Address: address.Hex(),
		Topics:  topics,
		Data:    hexutil.Encode(data),
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
