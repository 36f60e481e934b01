package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// SinkDeposit is one audit row for a fee amount routed to the staking sink.
type SinkDeposit struct {
	ID          uuid.UUID       `json:"id"           db:"id"`
	MarketID    uuid.UUID       `json:"market_id"    db:"market_id"`
	Amount      decimal.Decimal `json:"amount"       db:"amount"`
	DepositedAt time.Time       `json:"deposited_at" db:"deposited_at"`
}

// SinkRepository records fee-sink deposits for audit. The sink account itself
// lives in the ledger; these rows only explain where its balance came from.
type SinkRepository struct {
	db *sqlx.DB
}

// NewSinkRepository creates a new SinkRepository.
func NewSinkRepository(db *sqlx.DB) *SinkRepository {
	return &SinkRepository{db: db}
}

// Record inserts a deposit row inside the swap's transaction so the audit
// trail commits or rolls back with the transfer it describes.
func (r *SinkRepository) Record(ctx context.Context, tx *sqlx.Tx, marketID uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sink_deposits (id, market_id, amount, deposited_at)
		VALUES ($1, $2, $3, NOW())`,
		uuid.New(), marketID, amount)
	if err != nil {
		return fmt.Errorf("sink_repo.Record: %w", err)
	}
	return nil
}

// List returns recent deposits, newest-first.
func (r *SinkRepository) List(ctx context.Context, limit, offset int) ([]SinkDeposit, error) {
	var out []SinkDeposit
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM sink_deposits ORDER BY deposited_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sink_repo.List: %w", err)
	}
	return out, nil
}

// Total returns the lifetime sum of recorded deposits.
func (r *SinkRepository) Total(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(amount), 0) FROM sink_deposits`)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sink_repo.Total: %w", err)
	}
	return total, nil
}
