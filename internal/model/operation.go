package model

// Operation is one line of an operations JSONL file. Which fields apply
// depends on Op; amounts and liquidity are decimal strings.
type Operation struct {
	Seq          uint64 `json:"seq"`
	Op           string `json:"op"`
	Pool         string `json:"pool,omitempty"`
	Caller       string `json:"caller,omitempty"`
	TokenA       string `json:"token_a,omitempty"`
	TokenB       string `json:"token_b,omitempty"`
	DecimalsA    uint8  `json:"decimals_a,omitempty"`
	DecimalsB    uint8  `json:"decimals_b,omitempty"`
	BinStep      uint16 `json:"bin_step,omitempty"`
	FeeRate      uint16 `json:"fee_rate,omitempty"`
	BinID        int32  `json:"bin_id,omitempty"`
	PositionMint string `json:"position_mint,omitempty"`
	NewMint      string `json:"new_position_mint,omitempty"`
	Lower        int32  `json:"lower,omitempty"`
	Upper        int32  `json:"upper,omitempty"`
	Liquidity    string `json:"liquidity,omitempty"`
	Asset        string `json:"asset,omitempty"`
	Amount       string `json:"amount,omitempty"`
	MinAmountA   string `json:"min_amount_a,omitempty"`
	MinAmountB   string `json:"min_amount_b,omitempty"`
	MinAmountOut string `json:"min_amount_out,omitempty"`
}

// OperationResult is written for every applied operation.
type OperationResult struct {
	Seq         uint64 `json:"seq"`
	Op          string `json:"op"`
	Pool        string `json:"pool,omitempty"`
	Position    string `json:"position,omitempty"`
	AmountA     string `json:"amount_a,omitempty"`
	AmountB     string `json:"amount_b,omitempty"`
	AmountOut   string `json:"amount_out,omitempty"`
	Price       string `json:"price,omitempty"`
	ActiveBinID *int32 `json:"active_bin_id,omitempty"`
	Chunks      int    `json:"chunks,omitempty"`
}
