package storage

import (
	"context"

	"binFlow/internal/model"
)

// Storage defines a sink for emitted event log records.
type Storage interface {
	PutLogBatch(ctx context.Context, logs []model.LogRecord) error
}
