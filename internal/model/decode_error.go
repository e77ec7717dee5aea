package model

// DecodeError records a decode failure for an event log line.
type DecodeError struct {
	ID       string `json:"id,omitempty"`
	Seq      uint64 `json:"seq"`
	LogIndex uint64 `json:"log_index"`
	Address  string `json:"address,omitempty"`
	Topic0   string `json:"topic0,omitempty"`
	Error    string `json:"error"`
}
