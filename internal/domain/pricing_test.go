package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/upsidefi/metaswap/internal/domain"
)

// ── Constant-product quotes ───────────────────────────────────────────────────

func TestQuoteBuy_NeverDrainsReserve(t *testing.T) {
	usdcReserve := decimal.NewFromInt(10_000)
	tokenReserve := decimal.NewFromInt(1_000_000)

	// Even absurdly large inputs must leave the token reserve positive.
	for _, in := range []int64{1, 500, 10_000, 1_000_000, 1_000_000_000_000} {
		out, err := domain.QuoteBuy(usdcReserve, tokenReserve, decimal.NewFromInt(in))
		if err != nil {
			t.Fatalf("QuoteBuy(%d) error: %v", in, err)
		}
		if out.GreaterThanOrEqual(tokenReserve) {
			t.Errorf("QuoteBuy(%d) = %s, must be < reserve %s", in, out, tokenReserve)
		}
		if out.IsNegative() {
			t.Errorf("QuoteBuy(%d) = %s, must not be negative", in, out)
		}
	}
}

func TestQuoteBuy_MonotonicInInput(t *testing.T) {
	usdcReserve := decimal.NewFromInt(10_000)
	tokenReserve := decimal.NewFromInt(1_000_000)

	prev := decimal.Zero
	for _, in := range []int64{10, 100, 1_000, 10_000, 100_000, 1_000_000} {
		out, err := domain.QuoteBuy(usdcReserve, tokenReserve, decimal.NewFromInt(in))
		if err != nil {
			t.Fatalf("QuoteBuy(%d) error: %v", in, err)
		}
		if out.LessThan(prev) {
			t.Errorf("QuoteBuy not monotonic: in=%d out=%s < prev=%s", in, out, prev)
		}
		prev = out
	}
}

func TestQuoteBuy_ExactFloor(t *testing.T) {
	// floor(1_000_000 * 50_000 / (10_000 + 50_000)) = floor(833333.33…) = 833333
	out, err := domain.QuoteBuy(
		decimal.NewFromInt(10_000),
		decimal.NewFromInt(1_000_000),
		decimal.NewFromInt(50_000),
	)
	if err != nil {
		t.Fatalf("QuoteBuy error: %v", err)
	}
	want := decimal.NewFromInt(833_333)
	if !out.Equal(want) {
		t.Errorf("QuoteBuy = %s, want %s", out, want)
	}
}

// A single unconstrained buy may acquire well over 70% of supply: this is an
// intentional property of the permissionless curve and must not be capped.
func TestQuoteBuy_LargeTradePriceImpactUncapped(t *testing.T) {
	out, err := domain.QuoteBuy(
		decimal.NewFromInt(10_000),
		decimal.NewFromInt(1_000_000),
		decimal.NewFromInt(50_000),
	)
	if err != nil {
		t.Fatalf("QuoteBuy error: %v", err)
	}
	supply := decimal.NewFromInt(1_000_000)
	if out.GreaterThanOrEqual(supply) {
		t.Fatalf("output %s must stay below supply %s", out, supply)
	}
	share := out.Div(supply)
	if share.LessThanOrEqual(decimal.NewFromFloat(0.70)) {
		t.Errorf("large buy acquired %s of supply, expected > 0.70", share)
	}
}

func TestQuoteSell_ExactFloor(t *testing.T) {
	// floor(10_000 * 100_000 / (1_000_000 + 100_000)) = floor(909.09…) = 909
	out, err := domain.QuoteSell(
		decimal.NewFromInt(10_000),
		decimal.NewFromInt(1_000_000),
		decimal.NewFromInt(100_000),
	)
	if err != nil {
		t.Fatalf("QuoteSell error: %v", err)
	}
	want := decimal.NewFromInt(909)
	if !out.Equal(want) {
		t.Errorf("QuoteSell = %s, want %s", out, want)
	}
}

func TestQuoteSell_NeverDrainsReserve(t *testing.T) {
	usdcReserve := decimal.NewFromInt(10_000)
	tokenReserve := decimal.NewFromInt(1_000_000)

	for _, in := range []int64{1, 1_000_000, 1_000_000_000_000} {
		out, err := domain.QuoteSell(usdcReserve, tokenReserve, decimal.NewFromInt(in))
		if err != nil {
			t.Fatalf("QuoteSell(%d) error: %v", in, err)
		}
		if out.GreaterThanOrEqual(usdcReserve) {
			t.Errorf("QuoteSell(%d) = %s, must be < reserve %s", in, out, usdcReserve)
		}
	}
}

func TestQuote_ZeroAmountRejected(t *testing.T) {
	r1 := decimal.NewFromInt(10_000)
	r2 := decimal.NewFromInt(1_000_000)

	if _, err := domain.QuoteBuy(r1, r2, decimal.Zero); err != domain.ErrZeroAmount {
		t.Errorf("QuoteBuy(0) error = %v, want ErrZeroAmount", err)
	}
	if _, err := domain.QuoteSell(r1, r2, decimal.NewFromInt(-5)); err != domain.ErrZeroAmount {
		t.Errorf("QuoteSell(-5) error = %v, want ErrZeroAmount", err)
	}
}

// Product of reserves must be non-decreasing across a swap net of fees.
func TestQuoteBuy_ProductNonDecreasing(t *testing.T) {
	usdcReserve := decimal.NewFromInt(10_000)
	tokenReserve := decimal.NewFromInt(1_000_000)
	in := decimal.NewFromInt(7_777)

	out, err := domain.QuoteBuy(usdcReserve, tokenReserve, in)
	if err != nil {
		t.Fatalf("QuoteBuy error: %v", err)
	}

	before := usdcReserve.Mul(tokenReserve)
	after := usdcReserve.Add(in).Mul(tokenReserve.Sub(out))
	if after.LessThan(before) {
		t.Errorf("reserve product decreased: before=%s after=%s", before, after)
	}
}

// ── ApplyBp ───────────────────────────────────────────────────────────────────

func TestApplyBp_Floors(t *testing.T) {
	// 333 * 9900 / 10000 = 329.667 → 329
	got := domain.ApplyBp(decimal.NewFromInt(333), 9900)
	if !got.Equal(decimal.NewFromInt(329)) {
		t.Errorf("ApplyBp(333, 9900) = %s, want 329", got)
	}
	if !domain.ApplyBp(decimal.NewFromInt(1000), 0).IsZero() {
		t.Error("ApplyBp(_, 0) should be zero")
	}
	if !domain.ApplyBp(decimal.NewFromInt(1000), 10000).Equal(decimal.NewFromInt(1000)) {
		t.Error("ApplyBp(_, 10000) should equal the input")
	}
}
