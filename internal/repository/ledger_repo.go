package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/domain"
)

// LedgerRepository is the external fungible-asset ledger: balances and
// allowances per (asset, account). The exchange core treats it as opaque —
// it pulls and pushes amounts and propagates failures, never retrying.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ── Accounts ─────────────────────────────────────────────────────────────────

// CreateAccount inserts a new custody account row.
func (r *LedgerRepository) CreateAccount(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (id, address, label, created_at)
		VALUES (:id, :address, :label, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("ledger_repo.CreateAccount: %w", err)
	}
	return nil
}

// EnsureAccount inserts a protocol account row if it does not already exist.
// Called at boot for the reserve, sink, and owner addresses; idempotent.
func (r *LedgerRepository) EnsureAccount(ctx context.Context, address, label string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, address, label, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (address) DO NOTHING`,
		uuid.New(), address, label)
	if err != nil {
		return fmt.Errorf("ledger_repo.EnsureAccount: %w", err)
	}
	return nil
}

// GetAccountByAddress fetches an account by its ledger address.
func (r *LedgerRepository) GetAccountByAddress(ctx context.Context, address string) (*domain.Account, error) {
	var a domain.Account
	err := r.db.GetContext(ctx, &a, `SELECT * FROM accounts WHERE address = $1`, address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("ledger_repo.GetAccountByAddress: %w", err)
	}
	return &a, nil
}

// ── Balances ─────────────────────────────────────────────────────────────────

// AssetBalance is one (asset, balance) pair for an account.
type AssetBalance struct {
	Asset   string          `json:"asset"   db:"asset"`
	Balance decimal.Decimal `json:"balance" db:"balance"`
}

// BalanceOf returns the balance of account for asset; zero when no row exists.
func (r *LedgerRepository) BalanceOf(ctx context.Context, asset, account string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := r.db.GetContext(ctx, &bal,
		`SELECT balance FROM token_balances WHERE asset = $1 AND account = $2`,
		asset, account)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("ledger_repo.BalanceOf: %w", err)
	}
	return bal, nil
}

// Balances returns every non-zero asset balance held by account.
func (r *LedgerRepository) Balances(ctx context.Context, account string) ([]AssetBalance, error) {
	var out []AssetBalance
	err := r.db.SelectContext(ctx, &out,
		`SELECT asset, balance FROM token_balances
		 WHERE account = $1 AND balance > 0
		 ORDER BY asset`,
		account)
	if err != nil {
		return nil, fmt.Errorf("ledger_repo.Balances: %w", err)
	}
	return out, nil
}

// Mint credits amount of asset to account, creating the balance row if
// needed. Bootstrap/test use only; swaps never mint.
func (r *LedgerRepository) Mint(ctx context.Context, tx *sqlx.Tx, asset, account string, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO token_balances (asset, account, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset, account) DO UPDATE SET balance = token_balances.balance + $3`,
		asset, account, amount)
	if err != nil {
		return fmt.Errorf("ledger_repo.Mint: %w", err)
	}
	return nil
}

// ── Transfers ────────────────────────────────────────────────────────────────

// Transfer moves amount of asset from one account to another inside an
// existing transaction. Locks the sender's balance row and returns
// ErrInsufficientBalance when it cannot cover the amount.
func (r *LedgerRepository) Transfer(ctx context.Context, tx *sqlx.Tx, asset, from, to string, amount decimal.Decimal) error {
	var balance decimal.Decimal
	err := tx.GetContext(ctx, &balance,
		`SELECT balance FROM token_balances WHERE asset = $1 AND account = $2 FOR UPDATE`,
		asset, from)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrInsufficientBalance
		}
		return fmt.Errorf("ledger_repo.Transfer lock: %w", err)
	}
	if balance.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE token_balances SET balance = balance - $1 WHERE asset = $2 AND account = $3`,
		amount, asset, from); err != nil {
		return fmt.Errorf("ledger_repo.Transfer debit: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO token_balances (asset, account, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset, account) DO UPDATE SET balance = token_balances.balance + $3`,
		asset, to, amount); err != nil {
		return fmt.Errorf("ledger_repo.Transfer credit: %w", err)
	}
	return nil
}

// TransferFrom spends owner's approved allowance for spender: decrements the
// allowance, then moves amount from owner to the destination. Returns
// ErrInsufficientAllowance before touching any balance.
func (r *LedgerRepository) TransferFrom(ctx context.Context, tx *sqlx.Tx, asset, owner, spender, to string, amount decimal.Decimal) error {
	var allowance decimal.Decimal
	err := tx.GetContext(ctx, &allowance, `
		SELECT allowance FROM token_allowances
		WHERE asset = $1 AND owner_account = $2 AND spender_account = $3 FOR UPDATE`,
		asset, owner, spender)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrInsufficientAllowance
		}
		return fmt.Errorf("ledger_repo.TransferFrom lock: %w", err)
	}
	if allowance.LessThan(amount) {
		return domain.ErrInsufficientAllowance
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE token_allowances SET allowance = allowance - $1
		WHERE asset = $2 AND owner_account = $3 AND spender_account = $4`,
		amount, asset, owner, spender); err != nil {
		return fmt.Errorf("ledger_repo.TransferFrom spend: %w", err)
	}

	return r.Transfer(ctx, tx, asset, owner, to, amount)
}

// ── Allowances ───────────────────────────────────────────────────────────────

// Approve sets (replaces, not increments) spender's allowance over owner's
// asset balance.
func (r *LedgerRepository) Approve(ctx context.Context, asset, owner, spender string, amount decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO token_allowances (asset, owner_account, spender_account, allowance)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (asset, owner_account, spender_account) DO UPDATE SET allowance = $4`,
		asset, owner, spender, amount)
	if err != nil {
		return fmt.Errorf("ledger_repo.Approve: %w", err)
	}
	return nil
}

// Allowance returns spender's remaining allowance over owner's asset balance.
func (r *LedgerRepository) Allowance(ctx context.Context, asset, owner, spender string) (decimal.Decimal, error) {
	var allowance decimal.Decimal
	err := r.db.GetContext(ctx, &allowance, `
		SELECT allowance FROM token_allowances
		WHERE asset = $1 AND owner_account = $2 AND spender_account = $3`,
		asset, owner, spender)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("ledger_repo.Allowance: %w", err)
	}
	return allowance, nil
}
