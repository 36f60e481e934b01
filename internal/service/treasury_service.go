package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/repository"
)

// treasuryMarketStore is the slice of the market repository the treasury
// touches: locked reads plus the writes behind withdrawal and fee claims.
type treasuryMarketStore interface {
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.Market, error)
	SetUsdcReserve(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, usdcReserve decimal.Decimal) error
	ResetDeployerFee(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
}

// treasuryLedger is the slice of the asset ledger the treasury touches.
type treasuryLedger interface {
	Transfer(ctx context.Context, tx *sqlx.Tx, asset, from, to string, amount decimal.Decimal) error
	BalanceOf(ctx context.Context, asset, account string) (decimal.Decimal, error)
}

// TreasuryService is the owner-side surface: fee configuration, the
// withdrawal cooldown timer, revenue withdrawal, and deployer fee claims.
// The timer is process state, not persistence — a restart disarms it, which
// only delays the owner, never the traders.
type TreasuryService struct {
	db      *sqlx.DB
	markets treasuryMarketStore
	ledger  treasuryLedger
	sink    *repository.SinkRepository
	fees    *FeeState

	referenceAsset string
	ownerAccount   string
	cooldown       time.Duration
	now            func() time.Time

	timerMu sync.Mutex
	timer   domain.WithdrawTimer
}

// NewTreasuryService creates a new TreasuryService.
func NewTreasuryService(
	db *sqlx.DB,
	markets treasuryMarketStore,
	ledger treasuryLedger,
	sink *repository.SinkRepository,
	fees *FeeState,
	referenceAsset, ownerAccount string,
	cooldown time.Duration,
) *TreasuryService {
	return &TreasuryService{
		db:             db,
		markets:        markets,
		ledger:         ledger,
		sink:           sink,
		fees:           fees,
		referenceAsset: referenceAsset,
		ownerAccount:   ownerAccount,
		cooldown:       cooldown,
		now:            time.Now,
	}
}

// ── Fee configuration ────────────────────────────────────────────────────────

// GetFees returns the current fee configuration.
func (s *TreasuryService) GetFees() domain.FeeInfo {
	return s.fees.Get()
}

// SetFees validates and installs a new fee configuration, effective
// immediately for every market.
func (s *TreasuryService) SetFees(ctx context.Context, info domain.FeeInfo) error {
	if err := s.fees.Set(ctx, info); err != nil {
		return err
	}
	slog.Info("fee configuration updated",
		"starting_bp", info.SwapFeeStartingBp,
		"final_bp", info.SwapFeeFinalBp,
		"decay_interval", info.SwapFeeDecayInterval)
	return nil
}

// ── Withdrawal cooldown timer ────────────────────────────────────────────────

// TimerStatus is the externally visible state of the withdrawal timer.
type TimerStatus struct {
	Armed        bool       `json:"armed"`
	StartAt      *time.Time `json:"start_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	RemainingSec int64      `json:"remaining_sec"`
}

// ArmTimer starts (or restarts) the withdrawal cooldown. Re-arming an armed
// timer resets the clock; nothing disarms it short of a process restart.
func (s *TreasuryService) ArmTimer() TimerStatus {
	s.timerMu.Lock()
	s.timer.Arm(s.now())
	s.timerMu.Unlock()
	slog.Info("withdrawal cooldown armed", "cooldown", s.cooldown)
	return s.Timer()
}

// Timer reports the current timer state.
func (s *TreasuryService) Timer() TimerStatus {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	status := TimerStatus{Armed: s.timer.IsArmed()}
	if !status.Armed {
		return status
	}
	start := s.timer.StartTime()
	ends := start.Add(s.cooldown)
	status.StartAt = &start
	status.EndsAt = &ends
	if remaining := ends.Sub(s.now()); remaining > 0 {
		status.RemainingSec = int64(remaining.Seconds())
	}
	return status
}

// ── Revenue withdrawal ───────────────────────────────────────────────────────

// WithdrawalResult reports the per-market outcome of a batch withdrawal.
// Duplicate ids in the request each get their own entry; the second drain of
// a market finds nothing above the seed and reports zero.
type WithdrawalResult struct {
	MarketID uuid.UUID       `json:"market_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// WithdrawLiquidity drains the revenue (reserve above seed) of each listed
// market to the owner account. Requires an armed, elapsed cooldown; the timer
// stays armed afterwards. The batch is a single transaction: one bad market
// id rolls back every drain.
func (s *TreasuryService) WithdrawLiquidity(ctx context.Context, marketIDs []uuid.UUID) ([]WithdrawalResult, error) {
	s.timerMu.Lock()
	err := s.timer.CheckElapsed(s.now(), s.cooldown)
	s.timerMu.Unlock()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("treasury_service.WithdrawLiquidity begin: %w", err)
	}
	defer tx.Rollback()

	results, total, err := s.drainMarkets(ctx, tx, marketIDs)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("treasury_service.WithdrawLiquidity commit: %w", err)
	}

	slog.Info("liquidity withdrawn", "markets", len(marketIDs), "total", total)
	return results, nil
}

// drainMarkets drains each listed market to the owner inside tx. Duplicate
// ids are legal: each pass re-reads the locked row, so a repeat sees the
// earlier drain's write, finds nothing above the seed, and reports zero.
func (s *TreasuryService) drainMarkets(ctx context.Context, tx *sqlx.Tx, marketIDs []uuid.UUID) ([]WithdrawalResult, decimal.Decimal, error) {
	results := make([]WithdrawalResult, 0, len(marketIDs))
	total := decimal.Zero
	for _, id := range marketIDs {
		market, err := s.markets.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, decimal.Zero, err
		}
		amount := market.WithdrawableRevenue()
		if amount.IsPositive() {
			if err = s.markets.SetUsdcReserve(ctx, tx, id, market.ReserveSeed); err != nil {
				return nil, decimal.Zero, err
			}
			err = s.ledger.Transfer(ctx, tx, s.referenceAsset,
				domain.ProtocolReserveAccount, s.ownerAccount, amount)
			if err != nil {
				return nil, decimal.Zero, err
			}
			total = total.Add(amount)
		}
		results = append(results, WithdrawalResult{MarketID: id, Amount: amount})
	}
	return results, total, nil
}

// ── Deployer fee claims ──────────────────────────────────────────────────────

// ClaimDeployerFees pays out the accrued deployer share of a market's swap
// fees. Only the market's deployer may claim; claiming with nothing owed is
// a no-op returning zero.
func (s *TreasuryService) ClaimDeployerFees(ctx context.Context, marketID uuid.UUID, caller string) (decimal.Decimal, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("treasury_service.ClaimDeployerFees begin: %w", err)
	}
	defer tx.Rollback()

	market, err := s.markets.GetForUpdate(ctx, tx, marketID)
	if err != nil {
		return decimal.Zero, err
	}
	if market.DeployerAccount != caller {
		return decimal.Zero, domain.ErrForbidden
	}

	owed := market.DeployerFeeOwed
	if owed.IsPositive() {
		err = s.ledger.Transfer(ctx, tx, s.referenceAsset,
			domain.ProtocolReserveAccount, caller, owed)
		if err != nil {
			return decimal.Zero, err
		}
		if err = s.markets.ResetDeployerFee(ctx, tx, marketID); err != nil {
			return decimal.Zero, err
		}
	}

	if err = tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("treasury_service.ClaimDeployerFees commit: %w", err)
	}
	return owed, nil
}

// ── Fee sink ─────────────────────────────────────────────────────────────────

// SinkSummary aggregates the staking sink: its live ledger balance plus the
// recorded deposit audit trail.
type SinkSummary struct {
	Account  string                   `json:"account"`
	Balance  decimal.Decimal          `json:"balance"`
	Lifetime decimal.Decimal          `json:"lifetime"`
	Recent   []repository.SinkDeposit `json:"recent"`
}

// Sink returns the current sink summary.
func (s *TreasuryService) Sink(ctx context.Context, limit int) (*SinkSummary, error) {
	balance, err := s.ledger.BalanceOf(ctx, s.referenceAsset, domain.FeeSinkAccount)
	if err != nil {
		return nil, err
	}
	lifetime, err := s.sink.Total(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.sink.List(ctx, limit, 0)
	if err != nil {
		return nil, err
	}
	return &SinkSummary{
		Account:  domain.FeeSinkAccount,
		Balance:  balance,
		Lifetime: lifetime,
		Recent:   recent,
	}, nil
}
