package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// maxBp is the upper bound for every basis-point field (100%).
const maxBp = 10000

// ──────────────────────────────────────────────────────────────────────────────
// FeeInfo — protocol-wide fee configuration
// ──────────────────────────────────────────────────────────────────────────────

// FeeInfo is the global fee configuration shared by every market. A new value
// fully replaces the old one and takes effect immediately for all markets.
// Mutated only by the protocol owner.
type FeeInfo struct {
	TokenizeFeeEnabled     bool   `json:"tokenize_fee_enabled"`
	TokenizeFeeDestination string `json:"tokenize_fee_destination"` // ledger account address
	SwapFeeStartingBp      int64  `json:"swap_fee_starting_bp"`
	SwapFeeDecayBp         int64  `json:"swap_fee_decay_bp"`       // bp shaved off per interval
	SwapFeeDecayInterval   int64  `json:"swap_fee_decay_interval"` // seconds, must be > 0
	SwapFeeFinalBp         int64  `json:"swap_fee_final_bp"`
	SwapFeeDeployerBp      int64  `json:"swap_fee_deployer_bp"` // deployer's share of the fee
	SwapFeeSellBp          int64  `json:"swap_fee_sell_bp"`     // flat sell-side fee, no decay
}

// Validate rejects degenerate configurations. A zero decay interval is a
// configuration error here and must never reach ComputeTimeFee.
func (f FeeInfo) Validate() error {
	if f.SwapFeeDecayInterval <= 0 {
		return fmt.Errorf("%w: swap_fee_decay_interval must be > 0", ErrInvalidSetting)
	}
	for name, bp := range map[string]int64{
		"swap_fee_starting_bp": f.SwapFeeStartingBp,
		"swap_fee_decay_bp":    f.SwapFeeDecayBp,
		"swap_fee_final_bp":    f.SwapFeeFinalBp,
		"swap_fee_deployer_bp": f.SwapFeeDeployerBp,
		"swap_fee_sell_bp":     f.SwapFeeSellBp,
	} {
		if bp < 0 || bp > maxBp {
			return fmt.Errorf("%w: %s must be in [0, %d], got %d", ErrInvalidSetting, name, maxBp, bp)
		}
	}
	if f.SwapFeeStartingBp < f.SwapFeeFinalBp {
		return fmt.Errorf("%w: starting fee (%d bp) below final fee (%d bp)",
			ErrInvalidSetting, f.SwapFeeStartingBp, f.SwapFeeFinalBp)
	}
	if f.TokenizeFeeEnabled && f.TokenizeFeeDestination == "" {
		return fmt.Errorf("%w: tokenize fee enabled without a destination account", ErrInvalidSetting)
	}
	return nil
}

// ComputeTimeFee returns the effective buy-side swap fee in basis points for a
// market created at createdAt, as observed at now. The fee decays linearly by
// SwapFeeDecayBp every SwapFeeDecayInterval seconds from SwapFeeStartingBp,
// floored at SwapFeeFinalBp. Pure read-only query: monotonically
// non-increasing in elapsed time, no side effects.
//
// Callers must only invoke this on a validated FeeInfo; Validate guarantees
// the interval is non-zero.
func (f FeeInfo) ComputeTimeFee(createdAt, now time.Time) int64 {
	elapsed := int64(now.Sub(createdAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	steps := elapsed / f.SwapFeeDecayInterval
	decayed := steps * f.SwapFeeDecayBp
	if ceiling := f.SwapFeeStartingBp - f.SwapFeeFinalBp; decayed > ceiling {
		decayed = ceiling
	}
	return f.SwapFeeStartingBp - decayed
}

// ──────────────────────────────────────────────────────────────────────────────
// Fee split
// ──────────────────────────────────────────────────────────────────────────────

// FeeSplit is the outcome of applying a fee to a gross input amount.
// Net + Deployer + Sink always equals the gross amount exactly: the deployer
// share floors and the sink takes the remainder, so the derived shares can
// never exceed the fee collected.
type FeeSplit struct {
	Net      decimal.Decimal // portion that enters the reserves / pricing engine
	Deployer decimal.Decimal // accrues to the market deployer
	Sink     decimal.Decimal // routed to the protocol fee sink
}

// SplitBuyFee splits a gross buy input at feeBp, handing SwapFeeDeployerBp of
// the fee portion to the deployer and the remainder to the fee sink.
func (f FeeInfo) SplitBuyFee(gross decimal.Decimal, feeBp int64) FeeSplit {
	fee := ApplyBp(gross, feeBp)
	deployer := ApplyBp(fee, f.SwapFeeDeployerBp)
	return FeeSplit{
		Net:      gross.Sub(fee),
		Deployer: deployer,
		Sink:     fee.Sub(deployer),
	}
}

// SellFee returns the flat sell-side fee taken from a gross token input.
// The skim stays in the token reserve; only the net enters the pricing
// engine.
func (f FeeInfo) SellFee(gross decimal.Decimal) decimal.Decimal {
	return ApplyBp(gross, f.SwapFeeSellBp)
}
