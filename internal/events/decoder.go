package events

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"binFlow/internal/model"
)

// Decoder turns emitted log records back into typed events.
type Decoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

func NewDecoder() (*Decoder, error) {
	poolABI, err := BinPoolABI()
	if err != nil {
		return nil, err
	}

	topicToName := map[string]string{
		strings.ToLower(poolABI.Events[EventLiquidityRebalanced].ID.Hex()): EventLiquidityRebalanced,
		strings.ToLower(poolABI.Events[EventSwap].ID.Hex()):                EventSwap,
	}

	return &Decoder{
		poolABI:     poolABI,
		topicToName: topicToName,
	}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *Decoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Address)
	}

	var decoded interface{}
	var err error
	switch name {
	case EventLiquidityRebalanced:
		decoded, err = d.decodeRebalanced(log)
	case EventSwap:
		decoded, err = d.decodeSwap(log)
	}
	if err != nil {
		return nil, err
	}

	return &model.TypedEvent{
		ID:        log.ID,
		Seq:       log.Seq,
		LogIndex:  log.LogIndex,
		Address:   log.Address,
		EventName: name,
		Decoded:   decoded,
		Raw:       &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}, nil
}

func (d *Decoder) decodeRebalanced(log model.LogRecord) (model.RebalanceEventData, error) {
	event := d.poolABI.Events[EventLiquidityRebalanced]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.RebalanceEventData{}, err
	}

	var indexed struct {
		Pool  common.Address
		Owner common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.RebalanceEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.RebalanceEventData{}, err
	}
	if len(values) != 5 {
		return model.RebalanceEventData{}, fmt.Errorf("unexpected rebalance values: %d", len(values))
	}

	oldPosition, err := asAddress(values[0])
	if err != nil {
		return model.RebalanceEventData{}, err
	}
	newPosition, err := asAddress(values[1])
	if err != nil {
		return model.RebalanceEventData{}, err
	}
	liquidity, err := asBigInt(values[2])
	if err != nil {
		return model.RebalanceEventData{}, err
	}
	lower, err := asInt32(values[3])
	if err != nil {
		return model.RebalanceEventData{}, err
	}
	upper, err := asInt32(values[4])
	if err != nil {
		return model.RebalanceEventData{}, err
	}

	return model.RebalanceEventData{
		Pool:           indexed.Pool.Hex(),
		Owner:          indexed.Owner.Hex(),
		OldPosition:    oldPosition.Hex(),
		NewPosition:    newPosition.Hex(),
		LiquidityMoved: liquidity.String(),
		NewLowerBinID:  lower,
		NewUpperBinID:  upper,
	}, nil
}

func (d *Decoder) decodeSwap(log model.LogRecord) (model.SwapEventData, error) {
	event := d.poolABI.Events[EventSwap]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.SwapEventData{}, err
	}

	var indexed struct {
		Pool   common.Address
		Trader common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.SwapEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.SwapEventData{}, err
	}
	if len(values) != 6 {
		return model.SwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}

	aToB, ok := values[0].(bool)
	if !ok {
		return model.SwapEventData{}, fmt.Errorf("unexpected bool type %T", values[0])
	}
	amounts := make([]uint64, 3)
	for i := range amounts {
		amount, ok := values[i+1].(uint64)
		if !ok {
			return model.SwapEventData{}, fmt.Errorf("unexpected uint64 type %T", values[i+1])
		}
		amounts[i] = amount
	}
	start, err := asInt32(values[4])
	if err != nil {
		return model.SwapEventData{}, err
	}
	active, err := asInt32(values[5])
	if err != nil {
		return model.SwapEventData{}, err
	}

	return model.SwapEventData{
		Pool:        indexed.Pool.Hex(),
		Trader:      indexed.Trader.Hex(),
		AToB:        aToB,
		AmountIn:    fmt.Sprintf("%d", amounts[0]),
		AmountOut:   fmt.Sprintf("%d", amounts[1]),
		FeeAmount:   fmt.Sprintf("%d", amounts[2]),
		StartBinID:  start,
		ActiveBinID: active,
	}, nil
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	out := make([]common.Hash, 0, indexedCount)
	for _, topic := range topics[1:] {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func asAddress(value interface{}) (common.Address, error) {
	addr, ok := value.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected address type %T", value)
	}
	return addr, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	v, ok := value.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected int type %T", value)
	}
	return v, nil
}

func asInt32(value interface{}) (int32, error) {
	v, ok := value.(int32)
	if !ok {
		return 0, fmt.Errorf("unexpected int32 type %T", value)
	}
	return v, nil
}
