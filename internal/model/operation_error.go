package model

// OperationError records a rejected or malformed operation line.
type OperationError struct {
	Seq   uint64 `json:"seq"`
	Op    string `json:"op"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}
