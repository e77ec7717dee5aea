package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"binFlow/internal/amm"
	"binFlow/internal/config"
	"binFlow/internal/custody"
	"binFlow/internal/ledger"
	"binFlow/internal/model"
)

const (
	tokenA   = "0x000000000000000000000000000000000000000a"
	tokenB   = "0x000000000000000000000000000000000000000b"
	alice    = "0x00000000000000000000000000000000000a11ce"
	bob      = "0x0000000000000000000000000000000000000b0b"
	position = "0x0000000000000000000000000000000000001001"
)

var script = []string{
	`{"seq":1,"op":"fund","caller":"` + alice + `","asset":"` + tokenA + `","amount":"10000000"}`,
	`{"seq":2,"op":"fund","caller":"` + alice + `","asset":"` + tokenB + `","amount":"10000000"}`,
	`{"seq":3,"op":"fund","caller":"` + bob + `","asset":"` + tokenA + `","amount":"10000000"}`,
	`{"seq":4,"op":"create_pool","token_a":"` + tokenA + `","token_b":"` + tokenB + `","decimals_a":6,"decimals_b":6,"bin_step":10,"fee_rate":30}`,
	`{"seq":5,"op":"open_position","token_a":"` + tokenA + `","token_b":"` + tokenB + `","bin_step":10,"caller":"` + alice + `","position_mint":"` + position + `","lower":-20,"upper":20}`,
	`{"seq":6,"op":"add_liquidity","caller":"` + alice + `","position_mint":"` + position + `","liquidity":"1000000"}`,
	`not json`,
	`{"seq":7,"op":"swap","token_a":"` + tokenA + `","token_b":"` + tokenB + `","bin_step":10,"caller":"` + bob + `","asset":"` + tokenA + `","amount":"1000000"}`,
	`{"seq":8,"op":"price","token_a":"` + tokenA + `","token_b":"` + tokenB + `","bin_step":10,"bin_id":0}`,
	`{"seq":9,"op":"close_position","caller":"` + alice + `","position_mint":"` + position + `"}`,
	`{"seq":10,"op":"swap","token_a":"` + tokenA + `","token_b":"` + tokenB + `","bin_step":10,"caller":"` + bob + `","asset":"` + tokenA + `","amount":"1000","min_amount_out":"1000"}`,
	`{"seq":11,"op":"teleport"}`,
}

type fixture struct {
	engine *amm.Engine
	book   *custody.Book
	cfg    RunConfig
	state  *FileStateStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "ops.jsonl")
	require.NoError(t, os.WriteFile(input, []byte(strings.Join(script, "\n")+"\n"), 0o644))

	params, err := config.ParseParams(config.DefaultAllowedParameters, 500, 2, 64)
	require.NoError(t, err)
	book := custody.NewBook()
	engine, err := amm.NewEngine(amm.Options{
		Keys:    ledger.NewKeys(common.HexToAddress(config.DefaultProgramID)),
		Params:  params,
		Store:   ledger.NewMemoryStore(),
		Custody: book,
		Issuer:  custody.NewRegistry(),
	})
	require.NoError(t, err)

	return fixture{
		engine: engine,
		book:   book,
		cfg: RunConfig{
			InputPath:   input,
			ResultsPath: filepath.Join(dir, "out", "results.jsonl"),
			ErrorsPath:  filepath.Join(dir, "out", "rejected.jsonl"),
		},
		state: &FileStateStore{Path: filepath.Join(dir, "out", "checkpoint.json"), Enabled: true},
	}
}

func readLines[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var out []T
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var v T
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &v))
		out = append(out, v)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestRunnerAppliesScript(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stats, err := NewRunner(f.cfg, f.engine, f.book, f.state, nil).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Total: 12, Applied: 8, Rejected: 3, Malformed: 1}, stats)

	results := readLines[model.OperationResult](t, f.cfg.ResultsPath)
	require.Len(t, results, 8)
	bySeq := make(map[uint64]model.OperationResult)
	for _, r := range results {
		bySeq[r.Seq] = r
	}
	require.Equal(t, 3, bySeq[6].Chunks)
	require.Equal(t, "3000000", bySeq[6].AmountA)
	require.Equal(t, "997000", bySeq[7].AmountOut)
	require.NotNil(t, bySeq[7].ActiveBinID)
	require.Equal(t, int32(-10), *bySeq[7].ActiveBinID)
	require.Equal(t, "1000000000000", bySeq[8].Price)

	rejected := readLines[model.OperationError](t, f.cfg.ErrorsPath)
	codes := make(map[uint64]string)
	for _, r := range rejected {
		codes[r.Seq] = r.Code
	}
	require.Equal(t, codeMalformed, codes[0])
	require.Equal(t, "PositionNotEmpty", codes[9])
	require.Equal(t, "SlippageExceeded", codes[10])
	require.Equal(t, "InvalidParameters", codes[11])

	last, ok, err := f.state.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(11), last)

	pool := f.engine.Keys().Pool(common.HexToAddress(tokenA), common.HexToAddress(tokenB), 10)
	got, err := f.engine.Pool(ctx, pool)
	require.NoError(t, err)
	require.Equal(t, uint64(4_000_000), got.ReservesA)
	require.Equal(t, uint64(9_000_000), f.book.Balance(common.HexToAddress(bob), common.HexToAddress(tokenA)))
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := NewRunner(f.cfg, f.engine, f.book, f.state, nil).Run(ctx)
	require.NoError(t, err)

	stats, err := NewRunner(f.cfg, f.engine, f.book, f.state, nil).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{Total: 12, Skipped: 11, Malformed: 1}, stats)
	require.Equal(t, uint64(9_000_000), f.book.Balance(common.HexToAddress(bob), common.HexToAddress(tokenA)))
}

func TestErrorCode(t *testing.T) {
	require.Equal(t, "SlippageExceeded", errorCode(model.ErrSlippageExceeded))
	require.Equal(t, codeInsufficientFunds, errorCode(custody.ErrInsufficientFunds))
	require.Equal(t, codeNotFound, errorCode(ledger.ErrNotFound))
	require.Empty(t, errorCode(os.ErrClosed))
}
