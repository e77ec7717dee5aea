package amm

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"binFlow/internal/binmath"
	"binFlow/internal/ledger"
	"binFlow/internal/model"
)

type CreatePoolParams struct {
	TokenAMint     common.Address
	TokenBMint     common.Address
	TokenADecimals uint8
	TokenBDecimals uint8
	BinStep        uint16
	FeeRate        uint16
	InitialBinID   int32
}

// CreatePool registers a pool for an allow-listed (bin step, fee rate) pair
// and opens its two vaults. Token A must sort before token B.
func (e *Engine) CreatePool(ctx context.Context, params CreatePoolParams) (model.Pool, error) {
	var created model.Pool
	err := e.apply(ctx, "create_pool", func(txn *ledger.Txn, fx *effects) error {
		if !e.params.Allowed(params.BinStep, params.FeeRate) {
			return model.ErrInvalidParameters
		}
		if bytes.Compare(params.TokenAMint.Bytes(), params.TokenBMint.Bytes()) >= 0 {
			return model.ErrInvalidMintOrder
		}
		if !isBinID(params.InitialBinID, params.BinStep) {
			return model.ErrInvalidBinID
		}
		if _, err := binmath.Price(params.InitialBinID, params.BinStep); err != nil {
			return err
		}

		addr := e.keys.Pool(params.TokenAMint, params.TokenBMint, params.BinStep)
		if _, err := txn.Pool(ctx, addr); err == nil {
			return fmt.Errorf("pool %s already exists: %w", addr.Hex(), model.ErrInvalidPool)
		} else if !errors.Is(err, ledger.ErrNotFound) {
			return err
		}

		pool := txn.CreatePool(model.Pool{
			Address:        addr,
			BinStep:        params.BinStep,
			FeeRate:        params.FeeRate,
			ActiveBinID:    params.InitialBinID,
			TokenAMint:     params.TokenAMint,
			TokenBMint:     params.TokenBMint,
			TokenADecimals: params.TokenADecimals,
			TokenBDecimals: params.TokenBDecimals,
			TokenAVault:    e.keys.Vault(addr, params.TokenAMint),
			TokenBVault:    e.keys.Vault(addr, params.TokenBMint),
		})
		fx.vaults = append(fx.vaults,
			vaultOpening{account: pool.TokenAVault, authority: addr},
			vaultOpening{account: pool.TokenBVault, authority: addr},
		)
		created = *pool
		return nil
	})
	if err != nil {
		return model.Pool{}, err
	}

	e.logger.Info("pool created",
		zap.String("pool", created.Address.Hex()),
		zap.Uint16("bin_step", created.BinStep),
		zap.Uint16("fee_rate", created.FeeRate),
		zap.Int32("active_bin", created.ActiveBinID),
	)
	return created, nil
}

// InitializeBin creates an empty bin record. Existing bins are left as they
// are.
func (e *Engine) InitializeBin(ctx context.Context, poolAddr common.Address, binID int32) (model.Bin, error) {
	var out model.Bin
	err := e.apply(ctx, "init_bin", func(txn *ledger.Txn, _ *effects) error {
		pool, err := e.loadPool(ctx, txn, poolAddr)
		if err != nil {
			return err
		}
		if !isBinID(binID, pool.BinStep) {
			return model.ErrInvalidBinID
		}
		addr := e.keys.Bin(pool.Address, binID)
		bin, err := txn.Bin(ctx, addr, pool.Address, binID)
		if err != nil {
			return err
		}
		txn.TouchBin(addr)
		out = *bin
		return nil
	})
	return out, err
}

// QuotePrice returns the fixed-point price of binID in pool.
func (e *Engine) QuotePrice(ctx context.Context, poolAddr common.Address, binID int32) (*uint256.Int, error) {
	pool, err := e.Pool(ctx, poolAddr)
	if err != nil {
		return nil, err
	}
	return binmath.Price(binID, pool.BinStep)
}
