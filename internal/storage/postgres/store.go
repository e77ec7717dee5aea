// Package postgres persists the ledger and runner state in Postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"binFlow/internal/ledger"
	"binFlow/internal/model"
)

// Store implements ledger.Store. Addresses are stored as hex text and
// amounts as NUMERIC.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	address          TEXT PRIMARY KEY,
	bin_step         INTEGER NOT NULL,
	fee_rate         INTEGER NOT NULL,
	active_bin_id    INTEGER NOT NULL,
	token_a_mint     TEXT NOT NULL,
	token_b_mint     TEXT NOT NULL,
	token_a_decimals SMALLINT NOT NULL,
	token_b_decimals SMALLINT NOT NULL,
	token_a_vault    TEXT NOT NULL,
	token_b_vault    TEXT NOT NULL,
	reserves_a       NUMERIC(20, 0) NOT NULL,
	reserves_b       NUMERIC(20, 0) NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS bins (
	address      TEXT PRIMARY KEY,
	pool         TEXT NOT NULL REFERENCES pools (address),
	bin_id       INTEGER NOT NULL,
	liquidity    NUMERIC(39, 0) NOT NULL,
	fee_growth_a NUMERIC(39, 0) NOT NULL,
	fee_growth_b NUMERIC(39, 0) NOT NULL,
	amount_a     NUMERIC(39, 0) NOT NULL,
	amount_b     NUMERIC(39, 0) NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (pool, bin_id)
);
CREATE TABLE IF NOT EXISTS positions (
	address               TEXT PRIMARY KEY,
	pool                  TEXT NOT NULL REFERENCES pools (address),
	owner                 TEXT NOT NULL,
	mint                  TEXT NOT NULL UNIQUE,
	lower_bin_id          INTEGER NOT NULL,
	upper_bin_id          INTEGER NOT NULL,
	liquidity             NUMERIC(39, 0) NOT NULL,
	fee_growth_snapshot_a NUMERIC(39, 0) NOT NULL,
	fee_growth_snapshot_b NUMERIC(39, 0) NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS runner_state (
	name       TEXT PRIMARY KEY,
	last_seq   BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the ledger tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) LoadPool(ctx context.Context, addr common.Address) (model.Pool, error) {
	var (
		pool                                     model.Pool
		mintA, mintB, vaultA, vaultB, resA, resB string
		binStep, feeRate                         int32
		decimalsA, decimalsB                     int16
	)
	row := s.pool.QueryRow(ctx, `
		SELECT bin_step, fee_rate, active_bin_id, token_a_mint, token_b_mint,
			token_a_decimals, token_b_decimals, token_a_vault, token_b_vault,
			reserves_a::text, reserves_b::text
		FROM pools WHERE address = $1
	`, addr.Hex())
	err := row.Scan(&binStep, &feeRate, &pool.ActiveBinID, &mintA, &mintB,
		&decimalsA, &decimalsB, &vaultA, &vaultB, &resA, &resB)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pool{}, ledger.ErrNotFound
		}
		return model.Pool{}, err
	}

	pool.Address = addr
	pool.BinStep = uint16(binStep)
	pool.FeeRate = uint16(feeRate)
	pool.TokenAMint = common.HexToAddress(mintA)
	pool.TokenBMint = common.HexToAddress(mintB)
	pool.TokenADecimals = uint8(decimalsA)
	pool.TokenBDecimals = uint8(decimalsB)
	pool.TokenAVault = common.HexToAddress(vaultA)
	pool.TokenBVault = common.HexToAddress(vaultB)
	if pool.ReservesA, err = parseReserve(resA); err != nil {
		return model.Pool{}, fmt.Errorf("pool %s reserves_a: %w", addr.Hex(), err)
	}
	if pool.ReservesB, err = parseReserve(resB); err != nil {
		return model.Pool{}, fmt.Errorf("pool %s reserves_b: %w", addr.Hex(), err)
	}
	return pool, nil
}

func (s *Store) LoadBin(ctx context.Context, addr common.Address) (model.Bin, error) {
	var (
		bin    model.Bin
		pool   string
		values [5]string
	)
	row := s.pool.QueryRow(ctx, `
		SELECT pool, bin_id, liquidity::text, fee_growth_a::text, fee_growth_b::text,
			amount_a::text, amount_b::text
		FROM bins WHERE address = $1
	`, addr.Hex())
	err := row.Scan(&pool, &bin.BinID, &values[0], &values[1], &values[2], &values[3], &values[4])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bin{}, ledger.ErrNotFound
		}
		return model.Bin{}, err
	}

	bin.Address = addr
	bin.Pool = common.HexToAddress(pool)
	if err := parseU128s(values[:], &bin.Liquidity, &bin.FeeGrowthA, &bin.FeeGrowthB, &bin.AmountA, &bin.AmountB); err != nil {
		return model.Bin{}, fmt.Errorf("bin %s: %w", addr.Hex(), err)
	}
	return bin, nil
}

func (s *Store) LoadPosition(ctx context.Context, addr common.Address) (model.Position, error) {
	var (
		position          model.Position
		pool, owner, mint string
		values            [3]string
	)
	row := s.pool.QueryRow(ctx, `
		SELECT pool, owner, mint, lower_bin_id, upper_bin_id, liquidity::text,
			fee_growth_snapshot_a::text, fee_growth_snapshot_b::text
		FROM positions WHERE address = $1
	`, addr.Hex())
	err := row.Scan(&pool, &owner, &mint, &position.LowerBinID, &position.UpperBinID,
		&values[0], &values[1], &values[2])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Position{}, ledger.ErrNotFound
		}
		return model.Position{}, err
	}

	position.Address = addr
	position.Pool = common.HexToAddress(pool)
	position.Owner = common.HexToAddress(owner)
	position.Mint = common.HexToAddress(mint)
	if err := parseU128s(values[:], &position.Liquidity, &position.FeeGrowthSnapshotA, &position.FeeGrowthSnapshotB); err != nil {
		return model.Position{}, fmt.Errorf("position %s: %w", addr.Hex(), err)
	}
	return position, nil
}

// Commit writes a change set in one transaction.
func (s *Store) Commit(ctx context.Context, changes ledger.ChangeSet) error {
	if changes.Empty() {
		return nil
	}
	batch := commitBatch(changes)
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("commit statement %d: %w", i, err)
			}
		}
		return br.Close()
	})
}

// commitBatch queues one upsert per changed entity and one delete per
// closed position.
func commitBatch(changes ledger.ChangeSet) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, pool := range changes.Pools {
		batch.Queue(`
			INSERT INTO pools (
				address, bin_step, fee_rate, active_bin_id, token_a_mint, token_b_mint,
				token_a_decimals, token_b_decimals, token_a_vault, token_b_vault,
				reserves_a, reserves_b, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::numeric,$12::numeric,now())
			ON CONFLICT (address)
			DO UPDATE SET
				active_bin_id = EXCLUDED.active_bin_id,
				reserves_a = EXCLUDED.reserves_a,
				reserves_b = EXCLUDED.reserves_b,
				updated_at = now()
		`,
			pool.Address.Hex(),
			int32(pool.BinStep),
			int32(pool.FeeRate),
			pool.ActiveBinID,
			pool.TokenAMint.Hex(),
			pool.TokenBMint.Hex(),
			int16(pool.TokenADecimals),
			int16(pool.TokenBDecimals),
			pool.TokenAVault.Hex(),
			pool.TokenBVault.Hex(),
			strconv.FormatUint(pool.ReservesA, 10),
			strconv.FormatUint(pool.ReservesB, 10),
		)
	}
	for _, bin := range changes.Bins {
		batch.Queue(`
			INSERT INTO bins (
				address, pool, bin_id, liquidity, fee_growth_a, fee_growth_b, amount_a, amount_b, updated_at
			) VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6::numeric,$7::numeric,$8::numeric,now())
			ON CONFLICT (address)
			DO UPDATE SET
				liquidity = EXCLUDED.liquidity,
				fee_growth_a = EXCLUDED.fee_growth_a,
				fee_growth_b = EXCLUDED.fee_growth_b,
				amount_a = EXCLUDED.amount_a,
				amount_b = EXCLUDED.amount_b,
				updated_at = now()
		`,
			bin.Address.Hex(),
			bin.Pool.Hex(),
			bin.BinID,
			bin.Liquidity.Dec(),
			bin.FeeGrowthA.Dec(),
			bin.FeeGrowthB.Dec(),
			bin.AmountA.Dec(),
			bin.AmountB.Dec(),
		)
	}
	for _, position := range changes.Positions {
		batch.Queue(`
			INSERT INTO positions (
				address, pool, owner, mint, lower_bin_id, upper_bin_id, liquidity,
				fee_growth_snapshot_a, fee_growth_snapshot_b, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric,$9::numeric,now())
			ON CONFLICT (address)
			DO UPDATE SET
				liquidity = EXCLUDED.liquidity,
				fee_growth_snapshot_a = EXCLUDED.fee_growth_snapshot_a,
				fee_growth_snapshot_b = EXCLUDED.fee_growth_snapshot_b,
				updated_at = now()
		`,
			position.Address.Hex(),
			position.Pool.Hex(),
			position.Owner.Hex(),
			position.Mint.Hex(),
			position.LowerBinID,
			position.UpperBinID,
			position.Liquidity.Dec(),
			position.FeeGrowthSnapshotA.Dec(),
			position.FeeGrowthSnapshotB.Dec(),
		)
	}
	for _, addr := range changes.DeletedPositions {
		batch.Queue(`DELETE FROM positions WHERE address = $1`, addr.Hex())
	}
	return batch
}

// LoadState returns the last applied sequence number stored under name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq int64
	row := s.pool.QueryRow(ctx, `SELECT last_seq FROM runner_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(seq), true, nil
}

// SaveState upserts the last applied sequence number for name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runner_state (name, last_seq, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_seq = EXCLUDED.last_seq, updated_at = now()
	`, name, int64(seq))
	return err
}
