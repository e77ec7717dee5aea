// Package amm implements the bin-based market maker: pools, positions,
// liquidity provisioning, swaps, fee accounting and rebalancing.
package amm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"binFlow/internal/config"
	"binFlow/internal/custody"
	"binFlow/internal/events"
	"binFlow/internal/ledger"
	"binFlow/internal/metrics"
	"binFlow/internal/model"
)

// Options wires an Engine to its collaborators. Store, Custody and Issuer
// are required.
type Options struct {
	Keys    ledger.Keys
	Params  config.Params
	Store   ledger.Store
	Custody custody.Custodian
	Issuer  custody.Issuer
	Emitter *events.Emitter
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Engine applies operations one at a time. Each operation either commits
// every ledger, custody and credential effect or none of them. Callers must
// not invoke an Engine concurrently.
type Engine struct {
	keys    ledger.Keys
	params  config.Params
	store   ledger.Store
	custody custody.Custodian
	issuer  custody.Issuer
	emitter *events.Emitter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewEngine(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if opts.Custody == nil {
		return nil, fmt.Errorf("custody is nil")
	}
	if opts.Issuer == nil {
		return nil, fmt.Errorf("credential issuer is nil")
	}
	if opts.Params.MaxBinsPerPosition() == 0 {
		return nil, fmt.Errorf("params are not configured")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		keys:    opts.Keys,
		params:  opts.Params,
		store:   opts.Store,
		custody: opts.Custody,
		issuer:  opts.Issuer,
		emitter: opts.Emitter,
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// Keys returns the address deriver used by the engine.
func (e *Engine) Keys() ledger.Keys {
	return e.keys
}

// Params returns the market configuration.
func (e *Engine) Params() config.Params {
	return e.params
}

// Pool reads a committed pool.
func (e *Engine) Pool(ctx context.Context, addr common.Address) (model.Pool, error) {
	pool, err := e.store.LoadPool(ctx, addr)
	if errors.Is(err, ledger.ErrNotFound) {
		return model.Pool{}, fmt.Errorf("pool %s: %w", addr.Hex(), model.ErrInvalidPool)
	}
	return pool, err
}

// Position reads a committed position.
func (e *Engine) Position(ctx context.Context, addr common.Address) (model.Position, error) {
	position, err := e.store.LoadPosition(ctx, addr)
	if err != nil {
		return model.Position{}, fmt.Errorf("position %s: %w", addr.Hex(), err)
	}
	return position, nil
}

// Bin reads a committed bin. Bins never touched read as empty.
func (e *Engine) Bin(ctx context.Context, pool common.Address, binID int32) (model.Bin, error) {
	addr := e.keys.Bin(pool, binID)
	bin, err := e.store.LoadBin(ctx, addr)
	if errors.Is(err, ledger.ErrNotFound) {
		return model.Bin{Address: addr, Pool: pool, BinID: binID}, nil
	}
	return bin, err
}

type vaultOpening struct {
	account   common.Address
	authority common.Address
}

// effects collects what an operation does outside the ledger.
type effects struct {
	vaults    []vaultOpening
	issue     *custody.Credential
	burn      *custody.Credential
	transfers []model.Transfer
	events    []interface{}
}

func (fx *effects) transfer(tr model.Transfer) {
	if tr.Amount == 0 {
		return
	}
	fx.transfers = append(fx.transfers, tr)
}

// apply stages one operation and commits it. Nothing is written when stage
// fails.
func (e *Engine) apply(ctx context.Context, op string, stage func(txn *ledger.Txn, fx *effects) error) error {
	started := time.Now()
	txn := ledger.NewTxn(e.store)
	fx := &effects{}

	err := stage(txn, fx)
	if err == nil {
		err = e.commit(ctx, txn, fx)
	}
	code := model.ErrorCode(err)
	if err != nil && code == "" {
		code = metrics.CodeInternal
	}
	e.metrics.ObserveOperation(op, code, started)
	if err != nil {
		e.logger.Warn("operation rejected",
			zap.String("op", op),
			zap.Uint64("seq", events.SeqFrom(ctx)),
			zap.String("code", code),
			zap.Error(err),
		)
		return err
	}

	if err := e.emitter.Emit(ctx, fx.events...); err != nil {
		e.logger.Warn("emit events failed", zap.String("op", op), zap.Error(err))
	}
	return nil
}

func (e *Engine) commit(ctx context.Context, txn *ledger.Txn, fx *effects) error {
	for _, vault := range fx.vaults {
		if err := e.custody.OpenVault(ctx, vault.account, vault.authority); err != nil {
			return fmt.Errorf("open vault: %w", err)
		}
	}
	if fx.issue != nil {
		if err := e.issuer.Issue(ctx, *fx.issue); err != nil {
			return fmt.Errorf("issue credential: %w", err)
		}
	}
	if fx.burn != nil {
		if err := e.issuer.Burn(ctx, fx.burn.Mint, fx.burn.Owner); err != nil {
			return fmt.Errorf("burn credential: %w", err)
		}
	}
	if len(fx.transfers) > 0 {
		if err := e.custody.Apply(ctx, fx.transfers); err != nil {
			e.undoCredentials(ctx, fx)
			return fmt.Errorf("apply transfers: %w", err)
		}
	}

	if err := e.store.Commit(ctx, txn.Changes()); err != nil {
		if len(fx.transfers) > 0 {
			e.metrics.ObserveReversal()
			if rerr := e.custody.Revert(ctx, fx.transfers); rerr != nil {
				e.logger.Error("revert transfers failed", zap.Error(rerr), zap.Int("transfers", len(fx.transfers)))
			}
		}
		e.undoCredentials(ctx, fx)
		return fmt.Errorf("commit ledger: %w", err)
	}
	return nil
}

func (e *Engine) undoCredentials(ctx context.Context, fx *effects) {
	if fx.issue != nil {
		if err := e.issuer.Burn(ctx, fx.issue.Mint, fx.issue.Owner); err != nil {
			e.logger.Error("undo credential issue failed", zap.Error(err))
		}
	}
	if fx.burn != nil {
		if err := e.issuer.Issue(ctx, *fx.burn); err != nil {
			e.logger.Error("undo credential burn failed", zap.Error(err))
		}
	}
}

func (e *Engine) loadPool(ctx context.Context, txn *ledger.Txn, addr common.Address) (*model.Pool, error) {
	pool, err := txn.Pool(ctx, addr)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("pool %s: %w", addr.Hex(), model.ErrInvalidPool)
	}
	return pool, err
}

// loadOwnedPosition loads a position and its pool, checking that caller
// owns it.
func (e *Engine) loadOwnedPosition(ctx context.Context, txn *ledger.Txn, addr, caller common.Address) (*model.Position, *model.Pool, error) {
	position, err := txn.Position(ctx, addr)
	if err != nil {
		return nil, nil, fmt.Errorf("position %s: %w", addr.Hex(), err)
	}
	if position.Owner != caller {
		return nil, nil, model.ErrUnauthorized
	}
	pool, err := e.loadPool(ctx, txn, position.Pool)
	if err != nil {
		return nil, nil, err
	}
	return position, pool, nil
}

// loadBin loads bin binID of pool after checking that ref is its derived
// address.
func (e *Engine) loadBin(ctx context.Context, txn *ledger.Txn, pool *model.Pool, binID int32, ref common.Address) (*model.Bin, error) {
	if ref != e.keys.Bin(pool.Address, binID) {
		return nil, fmt.Errorf("bin %d: %w", binID, model.ErrInvalidBinAccount)
	}
	return txn.Bin(ctx, ref, pool.Address, binID)
}

// payout builds a transfer out of one of the pool's vaults.
func payout(pool *model.Pool, tokenA bool, to common.Address, amount uint64) model.Transfer {
	tr := model.Transfer{
		Destination: to,
		Authority:   pool.Address,
		Amount:      amount,
	}
	if tokenA {
		tr.Source, tr.Asset, tr.Decimals = pool.TokenAVault, pool.TokenAMint, pool.TokenADecimals
	} else {
		tr.Source, tr.Asset, tr.Decimals = pool.TokenBVault, pool.TokenBMint, pool.TokenBDecimals
	}
	return tr
}

// deposit builds a transfer from a caller into one of the pool's vaults.
func deposit(pool *model.Pool, tokenA bool, from common.Address, amount uint64) model.Transfer {
	tr := model.Transfer{
		Source:    from,
		Authority: from,
		Amount:    amount,
	}
	if tokenA {
		tr.Destination, tr.Asset, tr.Decimals = pool.TokenAVault, pool.TokenAMint, pool.TokenADecimals
	} else {
		tr.Destination, tr.Asset, tr.Decimals = pool.TokenBVault, pool.TokenBMint, pool.TokenBDecimals
	}
	return tr
}
