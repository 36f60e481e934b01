package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/domain"
)

// MarketRepository persists tokenized markets and their pool reserves.
type MarketRepository struct {
	db *sqlx.DB
}

// NewMarketRepository creates a new MarketRepository.
func NewMarketRepository(db *sqlx.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

// Create inserts a new market inside an existing transaction. A duplicate URL
// surfaces as ErrAlreadyTokenized.
func (r *MarketRepository) Create(ctx context.Context, tx *sqlx.Tx, m *domain.Market) error {
	query := `
		INSERT INTO markets (
			id, url, token_symbol, deployer_account,
			usdc_reserve, token_reserve, reserve_seed, deployer_fee_owed,
			created_at, updated_at
		) VALUES (
			:id, :url, :token_symbol, :deployer_account,
			:usdc_reserve, :token_reserve, :reserve_seed, :deployer_fee_owed,
			:created_at, :updated_at
		)`
	if _, err := tx.NamedExecContext(ctx, query, m); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrAlreadyTokenized
		}
		return fmt.Errorf("market_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a market by id.
func (r *MarketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Market, error) {
	var m domain.Market
	err := r.db.GetContext(ctx, &m, `SELECT * FROM markets WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, fmt.Errorf("market_repo.GetByID: %w", err)
	}
	return &m, nil
}

// GetByURL fetches the market minted for a URL, if any.
func (r *MarketRepository) GetByURL(ctx context.Context, url string) (*domain.Market, error) {
	var m domain.Market
	err := r.db.GetContext(ctx, &m, `SELECT * FROM markets WHERE url = $1`, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, fmt.Errorf("market_repo.GetByURL: %w", err)
	}
	return &m, nil
}

// List returns markets newest-first.
func (r *MarketRepository) List(ctx context.Context, limit, offset int) ([]domain.Market, error) {
	var out []domain.Market
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM markets ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("market_repo.List: %w", err)
	}
	return out, nil
}

// ListCreatedAfter returns markets created after the cutoff, oldest first.
// Used by the fee-tick broadcaster to find markets still in decay.
func (r *MarketRepository) ListCreatedAfter(ctx context.Context, cutoff time.Time) ([]domain.Market, error) {
	var out []domain.Market
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM markets WHERE created_at > $1 ORDER BY created_at`,
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("market_repo.ListCreatedAfter: %w", err)
	}
	return out, nil
}

// Count returns the total number of markets.
func (r *MarketRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM markets`); err != nil {
		return 0, fmt.Errorf("market_repo.Count: %w", err)
	}
	return n, nil
}

// GetForUpdate locks a market row inside tx and returns its current state.
// Every reserve mutation goes through this lock so concurrent swaps serialize
// per market.
func (r *MarketRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.Market, error) {
	var m domain.Market
	err := tx.GetContext(ctx, &m, `SELECT * FROM markets WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, fmt.Errorf("market_repo.GetForUpdate: %w", err)
	}
	return &m, nil
}

// UpdateReserves overwrites both pool reserves for a market already locked by
// GetForUpdate in the same transaction.
func (r *MarketRepository) UpdateReserves(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, usdcReserve, tokenReserve decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE markets
		SET usdc_reserve = $1, token_reserve = $2, updated_at = NOW()
		WHERE id = $3`,
		usdcReserve, tokenReserve, id)
	if err != nil {
		return fmt.Errorf("market_repo.UpdateReserves: %w", err)
	}
	return nil
}

// AccrueDeployerFee adds amount to the deployer's owed balance on a market
// already locked in the same transaction.
func (r *MarketRepository) AccrueDeployerFee(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE markets
		SET deployer_fee_owed = deployer_fee_owed + $1, updated_at = NOW()
		WHERE id = $2`,
		amount, id)
	if err != nil {
		return fmt.Errorf("market_repo.AccrueDeployerFee: %w", err)
	}
	return nil
}

// ResetDeployerFee zeroes the deployer's owed balance on a market already
// locked in the same transaction.
func (r *MarketRepository) ResetDeployerFee(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE markets
		SET deployer_fee_owed = 0, updated_at = NOW()
		WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("market_repo.ResetDeployerFee: %w", err)
	}
	return nil
}

// SetUsdcReserve overwrites only the reference-side reserve, used when
// treasury withdrawals drain revenue above the seed.
func (r *MarketRepository) SetUsdcReserve(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, usdcReserve decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE markets SET usdc_reserve = $1, updated_at = NOW() WHERE id = $2`,
		usdcReserve, id)
	if err != nil {
		return fmt.Errorf("market_repo.SetUsdcReserve: %w", err)
	}
	return nil
}
