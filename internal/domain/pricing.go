package domain

import (
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Constant-product pricing
//
// All amounts are non-negative integers in the smallest unit of their asset.
// Every division floors toward the protocol so repeated small trades can
// never leak value out of the reserves.
// ──────────────────────────────────────────────────────────────────────────────

// QuoteBuy returns how many issued tokens a buyer receives for usdcIn of the
// reference asset against the (usdcReserve, tokenReserve) pair:
//
//	tokensOut = floor(tokenReserve * usdcIn / (usdcReserve + usdcIn))
//
// The result is always strictly less than tokenReserve, so a single buy can
// never drain the issued-asset side. Returns ErrZeroAmount when usdcIn <= 0.
func QuoteBuy(usdcReserve, tokenReserve, usdcIn decimal.Decimal) (decimal.Decimal, error) {
	if usdcIn.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrZeroAmount
	}
	num := tokenReserve.Mul(usdcIn)
	den := usdcReserve.Add(usdcIn)
	out, _ := num.QuoRem(den, 0)
	return out, nil
}

// QuoteSell is the dual of QuoteBuy with the reserves swapped in the formula:
//
//	usdcOut = floor(usdcReserve * tokensIn / (tokenReserve + tokensIn))
//
// Returns ErrZeroAmount when tokensIn <= 0.
func QuoteSell(usdcReserve, tokenReserve, tokensIn decimal.Decimal) (decimal.Decimal, error) {
	if tokensIn.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrZeroAmount
	}
	num := usdcReserve.Mul(tokensIn)
	den := tokenReserve.Add(tokensIn)
	out, _ := num.QuoRem(den, 0)
	return out, nil
}

// bpDenominator is the basis-point scale: fee fields are integers in [0, 10000].
var bpDenominator = decimal.NewFromInt(10000)

// ApplyBp returns floor(amount * bp / 10000). Used for every basis-point
// calculation so the rounding direction is uniform across the engine.
func ApplyBp(amount decimal.Decimal, bp int64) decimal.Decimal {
	cut, _ := amount.Mul(decimal.NewFromInt(bp)).QuoRem(bpDenominator, 0)
	return cut
}
