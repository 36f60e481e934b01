// Package domain defines the core business entities and math for the
// MetaSwap URL tokenization and bonding-curve exchange.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Market
// ──────────────────────────────────────────────────────────────────────────────

// Market is one bonding-curve exchange instance for a single tokenized URL.
// Reserves are integers in the smallest unit of each asset (reference asset
// typically 6 decimals, issued MetaCoin 18 decimals) and are always > 0 after
// creation: swaps and owner withdrawals can shrink them but never drain them.
type Market struct {
	ID              uuid.UUID       `json:"id"                db:"id"`
	URL             string          `json:"url"               db:"url"`
	TokenSymbol     string          `json:"token_symbol"      db:"token_symbol"`
	DeployerAccount string          `json:"deployer_account"  db:"deployer_account"`
	UsdcReserve     decimal.Decimal `json:"usdc_reserve"      db:"usdc_reserve"`
	TokenReserve    decimal.Decimal `json:"token_reserve"     db:"token_reserve"`
	ReserveSeed     decimal.Decimal `json:"reserve_seed"      db:"reserve_seed"`
	DeployerFeeOwed decimal.Decimal `json:"deployer_fee_owed" db:"deployer_fee_owed"`
	CreatedAt       time.Time       `json:"created_at"        db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"        db:"updated_at"`
}

// SwapSide selects the direction of a swap.
type SwapSide string

const (
	SideBuy  SwapSide = "buy"  // reference asset in, MetaCoin out
	SideSell SwapSide = "sell" // MetaCoin in, reference asset out
)

// IsValid returns true if the side is a recognised direction.
func (s SwapSide) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// SpotPrice returns usdcReserve/tokenReserve — the marginal price of one
// issued-token base unit in reference base units. Informational only; trade
// output always comes from QuoteBuy/QuoteSell.
func (m *Market) SpotPrice() decimal.Decimal {
	if m.TokenReserve.IsZero() {
		return decimal.Zero
	}
	return m.UsdcReserve.Div(m.TokenReserve)
}

// WithdrawableRevenue is the reference-liquidity revenue the owner may drain:
// everything above the creation-time seed. Floored at zero so draining an
// exhausted market is a no-op, and the reserve never falls below the seed.
func (m *Market) WithdrawableRevenue() decimal.Decimal {
	rev := m.UsdcReserve.Sub(m.ReserveSeed)
	if rev.IsNegative() {
		return decimal.Zero
	}
	return rev
}

// ──────────────────────────────────────────────────────────────────────────────
// Swap computation
// ──────────────────────────────────────────────────────────────────────────────

// SwapQuote is the full outcome of pricing one swap against a market
// snapshot. The committing path and the read-only preview both derive their
// numbers from ComputeSwap, so they can never diverge.
type SwapQuote struct {
	Side        SwapSide        `json:"side"`
	AmountIn    decimal.Decimal `json:"amount_in"`
	AmountOut   decimal.Decimal `json:"amount_out"`
	FeeBp       int64           `json:"fee_bp"`
	DeployerFee decimal.Decimal `json:"deployer_fee"` // reference asset, buys only
	SinkFee     decimal.Decimal `json:"sink_fee"`     // reference asset, buys only
	TokenFee    decimal.Decimal `json:"token_fee"`    // MetaCoin skim, sells only

	// Post-swap reserves.
	NewUsdcReserve  decimal.Decimal `json:"new_usdc_reserve"`
	NewTokenReserve decimal.Decimal `json:"new_token_reserve"`
}

// ComputeSwap prices amountIn against the market's current reserves under the
// given fee configuration at the caller-supplied time. Pure: it mutates
// nothing, making it safe for previews. Buys pay the time-decayed fee split
// between deployer and sink; sells pay the flat sell fee, skimmed into the
// token reserve.
func (m *Market) ComputeSwap(fees FeeInfo, side SwapSide, amountIn decimal.Decimal, now time.Time) (SwapQuote, error) {
	if amountIn.LessThanOrEqual(decimal.Zero) {
		return SwapQuote{}, ErrZeroAmount
	}

	q := SwapQuote{Side: side, AmountIn: amountIn}

	switch side {
	case SideBuy:
		q.FeeBp = fees.ComputeTimeFee(m.CreatedAt, now)
		split := fees.SplitBuyFee(amountIn, q.FeeBp)
		out, err := QuoteBuy(m.UsdcReserve, m.TokenReserve, split.Net)
		if err != nil {
			return SwapQuote{}, err
		}
		q.AmountOut = out
		q.DeployerFee = split.Deployer
		q.SinkFee = split.Sink
		q.NewUsdcReserve = m.UsdcReserve.Add(split.Net)
		q.NewTokenReserve = m.TokenReserve.Sub(out)

	case SideSell:
		q.FeeBp = fees.SwapFeeSellBp
		fee := fees.SellFee(amountIn)
		net := amountIn.Sub(fee)
		out, err := QuoteSell(m.UsdcReserve, m.TokenReserve, net)
		if err != nil {
			return SwapQuote{}, err
		}
		q.AmountOut = out
		q.TokenFee = fee
		q.NewUsdcReserve = m.UsdcReserve.Sub(out)
		q.NewTokenReserve = m.TokenReserve.Add(amountIn)

	default:
		return SwapQuote{}, ErrInvalidSide
	}

	return q, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// MarketSummary — lightweight read model for WS broadcasts and list endpoints
// ──────────────────────────────────────────────────────────────────────────────

// MarketSummary is a derived, read-only view of a Market used for broadcasting.
type MarketSummary struct {
	ID           uuid.UUID       `json:"id"`
	URL          string          `json:"url"`
	TokenSymbol  string          `json:"token_symbol"`
	UsdcReserve  decimal.Decimal `json:"usdc_reserve"`
	TokenReserve decimal.Decimal `json:"token_reserve"`
	SpotPrice    decimal.Decimal `json:"spot_price"`
	SwapFeeBp    int64           `json:"swap_fee_bp"`
	AgeSec       int64           `json:"age_sec"`
}

// ToSummary builds a MarketSummary with the current computed time fee.
func (m *Market) ToSummary(fees FeeInfo, now time.Time) MarketSummary {
	return MarketSummary{
		ID:           m.ID,
		URL:          m.URL,
		TokenSymbol:  m.TokenSymbol,
		UsdcReserve:  m.UsdcReserve,
		TokenReserve: m.TokenReserve,
		SpotPrice:    m.SpotPrice(),
		SwapFeeBp:    fees.ComputeTimeFee(m.CreatedAt, now),
		AgeSec:       int64(now.Sub(m.CreatedAt).Seconds()),
	}
}
