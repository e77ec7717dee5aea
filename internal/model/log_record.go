package model

import (
	"encoding/json"
)

// LogRecord is an ABI-encoded event as emitted by the engine, in the same
// topics/data layout an EVM log uses so standard decoders can read it.
type LogRecord struct {
	ID        string   `json:"id"`
	Seq       uint64   `json:"seq"`
	LogIndex  uint64   `json:"log_index"`
	Address   string   `json:"address"`
	Topics    []string `json:"topics"`
	Data      string   `json:"data"`
	EmittedAt string   `json:"emitted_at"`
}

// MarshalJSON ensures LogRecord is encoded with stable field names.
func (lr LogRecord) MarshalJSON() ([]byte, error) {
	type Alias LogRecord
	return json.Marshal(Alias(lr))
}

// UnmarshalJSON decodes a LogRecord from JSON.
func (lr *LogRecord) UnmarshalJSON(data []byte) error {
	type Alias LogRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*lr = LogRecord(a)
	return nil
}
