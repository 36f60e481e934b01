package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/repository"
)

// LedgerService fronts the asset ledger for account-facing reads and the
// operations that do not belong to a swap: approvals and the dev faucet.
type LedgerService struct {
	db     *sqlx.DB
	ledger *repository.LedgerRepository

	referenceAsset string
	faucetEnabled  bool
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(db *sqlx.DB, ledger *repository.LedgerRepository, referenceAsset string, faucetEnabled bool) *LedgerService {
	return &LedgerService{
		db:             db,
		ledger:         ledger,
		referenceAsset: referenceAsset,
		faucetEnabled:  faucetEnabled,
	}
}

// Balances returns every asset balance held by an account.
func (s *LedgerService) Balances(ctx context.Context, account string) ([]repository.AssetBalance, error) {
	return s.ledger.Balances(ctx, account)
}

// Approve grants the protocol reserve spending rights over the caller's
// balance of one asset. Swaps and tokenize fees both pull through this
// allowance.
func (s *LedgerService) Approve(ctx context.Context, owner, asset string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return domain.ErrZeroAmount
	}
	return s.ledger.Approve(ctx, asset, owner, domain.ProtocolReserveAccount, amount)
}

// Allowance returns the protocol reserve's remaining allowance over the
// owner's asset balance.
func (s *LedgerService) Allowance(ctx context.Context, owner, asset string) (decimal.Decimal, error) {
	return s.ledger.Allowance(ctx, asset, owner, domain.ProtocolReserveAccount)
}

// Faucet mints reference asset to the caller. Development environments only;
// production boots with the faucet disabled.
func (s *LedgerService) Faucet(ctx context.Context, account string, amount decimal.Decimal) error {
	if !s.faucetEnabled {
		return domain.ErrForbidden
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrZeroAmount
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger_service.Faucet begin: %w", err)
	}
	defer tx.Rollback()

	if err = s.ledger.Mint(ctx, tx, s.referenceAsset, account, amount); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ledger_service.Faucet commit: %w", err)
	}
	return nil
}
