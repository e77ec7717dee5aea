package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"binFlow/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	sink := NewJsonlStorage(path)
	ctx := context.Background()

	require.NoError(t, sink.PutLogBatch(ctx, []model.LogRecord{{Seq: 1, Topics: []string{"0x01"}}}))
	require.NoError(t, sink.PutLogBatch(ctx, nil))
	require.NoError(t, sink.PutLogBatch(ctx, []model.LogRecord{{Seq: 2}, {Seq: 3}}))

	logs, err := ReadLogs(path)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	require.Equal(t, uint64(3), logs[2].Seq)
	require.Equal(t, []string{"0x01"}, logs[0].Topics)
}

func TestReadLogsMissingFile(t *testing.T) {
	logs, err := ReadLogs(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	require.Empty(t, logs)
}
