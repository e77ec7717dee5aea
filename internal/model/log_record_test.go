package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogRecordJSONFieldNames(t *testing.T) {
	record := LogRecord{
		ID:        "5f1c7d1e-8a51-4a53-9a3c-8f1f0c0d2b11",
		Seq:       42,
		LogIndex:  1,
		Address:   "0x1111111111111111111111111111111111111111",
		Topics:    []string{"0xaaa", "0xbbb"},
		Data:      "0xdeadbeef",
		EmittedAt: "2024-01-01T00:00:00Z",
	}

	b, err := json.Marshal(record)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &fields))
	for _, key := range []string{"id", "seq", "log_index", "address", "topics", "data", "emitted_at"} {
		require.Contains(t, fields, key)
	}

	var decoded LogRecord
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, record, decoded)
}
