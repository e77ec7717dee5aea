// Package ops replays a JSONL file of market operations through the engine.
package ops

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"binFlow/internal/amm"
	"binFlow/internal/custody"
	"binFlow/internal/events"
	"binFlow/internal/ledger"
	"binFlow/internal/model"
	"binFlow/internal/storage"
)

const (
	codeMalformed         = "MalformedOperation"
	codeInsufficientFunds = "InsufficientFunds"
	codeNotFound          = "NotFound"
)

// Funder credits external balances for "fund" operations.
type Funder interface {
	Credit(account, asset common.Address, amount uint64) error
}

// RunConfig holds runtime settings for the runner.
type RunConfig struct {
	InputPath   string
	ResultsPath string
	ErrorsPath  string
}

// Stats counts what a run did with each input line.
type Stats struct {
	Total     int
	Applied   int
	Rejected  int
	Skipped   int
	Malformed int
}

// Runner applies operations in file order, one at a time.
type Runner struct {
	cfg    RunConfig
	engine *amm.Engine
	funder Funder
	state  StateStore
	logger *zap.Logger

	pools     map[common.Address]*Accumulator
	poolOrder []common.Address
}

// NewRunner builds a Runner with its dependencies. funder and state may be
// nil.
func NewRunner(cfg RunConfig, engine *amm.Engine, funder Funder, state StateStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		engine: engine,
		funder: funder,
		state:  state,
		logger: logger,
		pools:  make(map[common.Address]*Accumulator),
	}
}

// Run applies every operation after the saved checkpoint. Rejected
// operations are recorded and skipped; infrastructure failures stop the
// run without advancing the checkpoint.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if r.engine == nil {
		return stats, fmt.Errorf("engine is nil")
	}
	if r.cfg.InputPath == "" {
		return stats, fmt.Errorf("input path is required")
	}

	var last uint64
	if r.state != nil {
		seq, ok, err := r.state.Load(ctx)
		if err != nil {
			return stats, err
		}
		if ok {
			last = seq
			r.logger.Info("resume from checkpoint", zap.Uint64("last_seq", last))
		}
	}

	file, err := os.Open(r.cfg.InputPath)
	if err != nil {
		return stats, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	results, err := openWriter(r.cfg.ResultsPath)
	if err != nil {
		return stats, err
	}
	defer results.Close()
	rejected, err := openWriter(r.cfg.ErrorsPath)
	if err != nil {
		return stats, err
	}
	defer rejected.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Total++

		var op model.Operation
		if err := json.Unmarshal(line, &op); err != nil {
			stats.Malformed++
			r.logger.Warn("malformed operation", zap.Int("line", stats.Total), zap.Error(err))
			if err := rejected.Write(model.OperationError{Code: codeMalformed, Error: err.Error()}); err != nil {
				return stats, err
			}
			continue
		}
		if op.Seq <= last {
			stats.Skipped++
			continue
		}

		result, err := r.apply(events.WithSeq(ctx, op.Seq), op)
		if err != nil {
			code := errorCode(err)
			if code == "" {
				return stats, fmt.Errorf("operation %d (%s): %w", op.Seq, op.Op, err)
			}
			stats.Rejected++
			if err := rejected.Write(model.OperationError{Seq: op.Seq, Op: op.Op, Code: code, Error: err.Error()}); err != nil {
				return stats, err
			}
		} else {
			stats.Applied++
			if err := results.Write(result); err != nil {
				return stats, err
			}
		}

		if err := results.Flush(); err != nil {
			return stats, err
		}
		if err := rejected.Flush(); err != nil {
			return stats, err
		}
		if r.state != nil {
			if err := r.state.Save(ctx, op.Seq); err != nil {
				return stats, err
			}
		}
		last = op.Seq
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}

	r.logSummary()
	r.logger.Info("apply complete",
		zap.Int("total", stats.Total),
		zap.Int("applied", stats.Applied),
		zap.Int("rejected", stats.Rejected),
		zap.Int("skipped", stats.Skipped),
		zap.Int("malformed", stats.Malformed),
	)
	return stats, nil
}

func openWriter(path string) (*storage.JSONLWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("output path is required")
	}
	return storage.NewJSONLWriter(path, true)
}

// errorCode classifies err. An empty code means the failure is not the
// operation's fault.
func errorCode(err error) string {
	if code := model.ErrorCode(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, custody.ErrInsufficientFunds), errors.Is(err, custody.ErrBadAuthority):
		return codeInsufficientFunds
	case errors.Is(err, ledger.ErrNotFound):
		return codeNotFound
	}
	return ""
}

func (r *Runner) accumulator(pool model.Pool) *Accumulator {
	acc, ok := r.pools[pool.Address]
	if !ok {
		acc = NewAccumulator(pool.Address, pool.TokenADecimals, pool.TokenBDecimals)
		r.pools[pool.Address] = acc
		r.poolOrder = append(r.poolOrder, pool.Address)
	}
	return acc
}

func (r *Runner) logSummary() {
	for _, addr := range r.poolOrder {
		acc := r.pools[addr]
		r.logger.Info("pool summary",
			zap.String("pool", addr.Hex()),
			zap.Uint64("swaps", acc.SwapCount),
			zap.Uint64("deposits", acc.Deposits),
			zap.String("volume_a", formatTokenAmount(acc.VolumeA, acc.DecimalsA)),
			zap.String("volume_b", formatTokenAmount(acc.VolumeB, acc.DecimalsB)),
			zap.String("fee_a", formatTokenAmount(acc.FeeA, acc.DecimalsA)),
			zap.String("fee_b", formatTokenAmount(acc.FeeB, acc.DecimalsB)),
		)
	}
}
