package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/upsidefi/metaswap/internal/domain"
)

// feeSettingsRow is the single-row persistence shape of domain.FeeInfo.
type feeSettingsRow struct {
	TokenizeFeeEnabled     bool   `db:"tokenize_fee_enabled"`
	TokenizeFeeDestination string `db:"tokenize_fee_destination"`
	SwapFeeStartingBp      int64  `db:"swap_fee_starting_bp"`
	SwapFeeDecayBp         int64  `db:"swap_fee_decay_bp"`
	SwapFeeDecayInterval   int64  `db:"swap_fee_decay_interval_sec"`
	SwapFeeFinalBp         int64  `db:"swap_fee_final_bp"`
	SwapFeeDeployerBp      int64  `db:"swap_fee_deployer_bp"`
	SwapFeeSellBp          int64  `db:"swap_fee_sell_bp"`
}

// SettingsRepository persists the fee configuration. A single row shared by
// the API server and the back-office, so owner updates reach every process.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// LoadFees reads the persisted fee configuration. The boolean is false when
// no row has been written yet (first boot).
func (r *SettingsRepository) LoadFees(ctx context.Context) (domain.FeeInfo, bool, error) {
	var row feeSettingsRow
	err := r.db.GetContext(ctx, &row, `
		SELECT tokenize_fee_enabled, tokenize_fee_destination,
		       swap_fee_starting_bp, swap_fee_decay_bp, swap_fee_decay_interval_sec,
		       swap_fee_final_bp, swap_fee_deployer_bp, swap_fee_sell_bp
		FROM fee_settings WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FeeInfo{}, false, nil
		}
		return domain.FeeInfo{}, false, fmt.Errorf("settings_repo.LoadFees: %w", err)
	}
	return domain.FeeInfo{
		TokenizeFeeEnabled:     row.TokenizeFeeEnabled,
		TokenizeFeeDestination: row.TokenizeFeeDestination,
		SwapFeeStartingBp:      row.SwapFeeStartingBp,
		SwapFeeDecayBp:         row.SwapFeeDecayBp,
		SwapFeeDecayInterval:   row.SwapFeeDecayInterval,
		SwapFeeFinalBp:         row.SwapFeeFinalBp,
		SwapFeeDeployerBp:      row.SwapFeeDeployerBp,
		SwapFeeSellBp:          row.SwapFeeSellBp,
	}, true, nil
}

// SaveFees upserts the single fee configuration row.
func (r *SettingsRepository) SaveFees(ctx context.Context, info domain.FeeInfo) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fee_settings (
			id, tokenize_fee_enabled, tokenize_fee_destination,
			swap_fee_starting_bp, swap_fee_decay_bp, swap_fee_decay_interval_sec,
			swap_fee_final_bp, swap_fee_deployer_bp, swap_fee_sell_bp, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (id) DO UPDATE SET
			tokenize_fee_enabled        = $1,
			tokenize_fee_destination    = $2,
			swap_fee_starting_bp        = $3,
			swap_fee_decay_bp           = $4,
			swap_fee_decay_interval_sec = $5,
			swap_fee_final_bp           = $6,
			swap_fee_deployer_bp        = $7,
			swap_fee_sell_bp            = $8,
			updated_at                  = NOW()`,
		info.TokenizeFeeEnabled, info.TokenizeFeeDestination,
		info.SwapFeeStartingBp, info.SwapFeeDecayBp, info.SwapFeeDecayInterval,
		info.SwapFeeFinalBp, info.SwapFeeDeployerBp, info.SwapFeeSellBp)
	if err != nil {
		return fmt.Errorf("settings_repo.SaveFees: %w", err)
	}
	return nil
}
