// Package events encodes engine events as ABI logs and fans them out to
// sinks once the owning operation has committed.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"binFlow/internal/model"
	"binFlow/internal/storage"
)

type seqKey struct{}

// WithSeq tags ctx with the sequence number of the operation being applied.
func WithSeq(ctx context.Context, seq uint64) context.Context {
	return context.WithValue(ctx, seqKey{}, seq)
}

// SeqFrom returns the sequence number stored by WithSeq.
func SeqFrom(ctx context.Context) uint64 {
	seq, _ := ctx.Value(seqKey{}).(uint64)
	return seq
}

// Emitter encodes events and writes them to every sink. Sink failures are
// logged and returned; the ledger is already committed by then.
type Emitter struct {
	encoder *Encoder
	sinks   []storage.Storage
	logger  *zap.Logger
	now     func() time.Time
}

func NewEmitter(logger *zap.Logger, sinks ...storage.Storage) (*Emitter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	encoder, err := NewEncoder()
	if err != nil {
		return nil, err
	}
	return &Emitter{
		encoder: encoder,
		sinks:   sinks,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Emit encodes events in order and publishes them as one batch.
func (e *Emitter) Emit(ctx context.Context, events ...interface{}) error {
	if e == nil || len(events) == 0 {
		return nil
	}

	seq := SeqFrom(ctx)
	emittedAt := e.now().UTC().Format(time.RFC3339Nano)
	records := make([]model.LogRecord, 0, len(events))
	for i, event := range events {
		record, err := e.encoder.Encode(event)
		if err != nil {
			return err
		}
		record.ID = uuid.NewString()
		record.Seq = seq
		record.LogIndex = uint64(i)
		record.EmittedAt = emittedAt
		records = append(records, record)
	}

	var firstErr error
	for _, sink := range e.sinks {
		if err := sink.PutLogBatch(ctx, records); err != nil {
			e.logger.Warn("publish events failed", zap.Error(err), zap.Uint64("seq", seq), zap.Int("events", len(records)))
			if firstErr == nil {
				firstErr = fmt.Errorf("publish events: %w", err)
			}
		}
	}
	return firstErr
}
